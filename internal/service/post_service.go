// Package service contains the domain rules for posts: input validation,
// defaults, and partial-update merge semantics.
package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"scribe/internal/models"
	"scribe/internal/observability"
	"scribe/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const minTitleLen = 3

type PostService struct {
	postRepo repository.PostRepository
}

type CreatePostInput struct {
	Title   string
	Content string
	Author  string
	Status  string
}

// UpdatePostInput carries one optional field per updatable attribute.
// A nil field is absent from the request and must not overwrite the
// stored value.
type UpdatePostInput struct {
	Title   *string
	Content *string
	Author  *string
	Status  *string
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost")
	defer func() {
		span.SetError(err)
		span.End()
		observability.CountPostOperation("create", err)
	}()

	if utf8.RuneCountInString(in.Title) < minTitleLen {
		return nil, models.NewValidationError("Title must be at least 3 characters")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content cannot be empty")
	}
	if in.Author == "" {
		return nil, models.NewValidationError("Author cannot be empty")
	}

	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}

	post = &models.Post{
		Title:   in.Title,
		Content: in.Content,
		Author:  in.Author,
		Status:  status,
	}
	if err = s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}
	span.AddAttributes(attribute.Int64("post.id", int64(post.ID)))

	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.GetPost")
	span.AddAttributes(attribute.Int64("post.id", int64(id)))
	defer func() {
		span.SetError(err)
		span.End()
	}()

	post, err = s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// ListPosts returns one window of posts plus the unfiltered total. Page and
// perPage are expected to be normalized by the caller.
func (s *PostService) ListPosts(ctx context.Context, page, perPage int) (result *models.PaginatedPosts, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.ListPosts")
	span.AddAttributes(
		attribute.Int("page", page),
		attribute.Int("per_page", perPage),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	offset := (page - 1) * perPage

	posts, err := s.postRepo.List(ctx, perPage, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if posts == nil {
		posts = []*models.Post{}
	}

	return &models.PaginatedPosts{
		Data:    posts,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}, nil
}

// UpdatePost merges the supplied fields into the stored post. Absent fields
// keep their prior values; updated_at refreshes on every successful update.
func (s *PostService) UpdatePost(ctx context.Context, id uint, in UpdatePostInput) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.UpdatePost")
	span.AddAttributes(attribute.Int64("post.id", int64(id)))
	defer func() {
		span.SetError(err)
		span.End()
		observability.CountPostOperation("update", err)
	}()

	// Title is validated only when present in the request.
	if in.Title != nil && utf8.RuneCountInString(*in.Title) < minTitleLen {
		return nil, models.NewValidationError("Title must be at least 3 characters")
	}

	post, err = s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Author != nil {
		post.Author = *in.Author
	}
	if in.Status != nil {
		post.Status = *in.Status
	}

	if err = s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uint) (err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.DeletePost")
	span.AddAttributes(attribute.Int64("post.id", int64(id)))
	defer func() {
		span.SetError(err)
		span.End()
		observability.CountPostOperation("delete", err)
	}()

	affected, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return models.NewInternalError(err)
	}
	if affected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}
