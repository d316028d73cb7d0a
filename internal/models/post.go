// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// StatusDraft is the status assigned to posts created without an explicit status.
const StatusDraft = "draft"

// Post represents a single blog post.
//
// The store assigns ID and both timestamps on creation; UpdatedAt is refreshed
// on every successful update. Deletes are hard deletes.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Author    string    `gorm:"not null" json:"author"`
	Status    string    `gorm:"not null;default:draft" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaginatedPosts is the list response envelope.
type PaginatedPosts struct {
	Data    []*Post `json:"data"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Total   int64   `json:"total"`
}
