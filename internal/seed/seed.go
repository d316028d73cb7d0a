// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"log"
	"math/rand"
	"time"

	"scribe/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var statuses = []string{models.StatusDraft, "published", "published", "archived"}

// Seeder builds posts and persists them to the database.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// BuildPost constructs a post with realistic fake data but does not persist
// it. Useful for batching and tests.
func (s *Seeder) BuildPost(overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:   gofakeit.Sentence(5),
		Content: gofakeit.Paragraph(1, 3, 5, "\n"),
		Author:  gofakeit.Name(),
		Status:  statuses[s.rng.Intn(len(statuses))],
	}

	// realistic created_at spread over the last 90 days
	daysBack := s.rng.Intn(90)
	hoursBack := s.rng.Intn(24)
	minsBack := s.rng.Intn(60)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
	post.UpdatedAt = post.CreatedAt

	for _, override := range overrides {
		override(post)
	}
	return post
}

// SeedPosts persists n fake posts in a single batch.
func (s *Seeder) SeedPosts(n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, s.BuildPost())
	}

	if err := s.db.CreateInBatches(posts, 100).Error; err != nil {
		return nil, err
	}

	log.Printf("Seeded %d posts", len(posts))
	return posts, nil
}

// ClearAll removes all seeded posts.
func (s *Seeder) ClearAll() error {
	return s.db.Exec("DELETE FROM posts").Error
}
