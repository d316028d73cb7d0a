package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"scribe/internal/models"
	"scribe/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	listFn    func(context.Context, int, int) ([]*models.Post, error)
	countFn   func(context.Context) (int64, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) (int64, error) {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, post *models.Post) error {
			post.ID = 1
			post.CreatedAt = time.Now()
			post.UpdatedAt = post.CreatedAt
			return nil
		},
		getByIDFn: func(_ context.Context, _ uint) (*models.Post, error) { return &models.Post{}, nil },
		listFn:    func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		countFn:   func(_ context.Context) (int64, error) { return 0, nil },
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:  func(_ context.Context, _ uint) (int64, error) { return 1, nil },
	}
}

func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}

func TestCreatePost_Validation(t *testing.T) {
	svc := NewPostService(noopPostRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		input   CreatePostInput
		message string
	}{
		{
			name:    "Title too short",
			input:   CreatePostInput{Title: "ab", Content: "x", Author: "me"},
			message: "Title must be at least 3 characters",
		},
		{
			name:    "Title missing",
			input:   CreatePostInput{Content: "x", Author: "me"},
			message: "Title must be at least 3 characters",
		},
		{
			name:    "Content missing",
			input:   CreatePostInput{Title: "abc", Author: "me"},
			message: "Content cannot be empty",
		},
		{
			name:    "Author missing",
			input:   CreatePostInput{Title: "abc", Content: "x"},
			message: "Author cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := svc.CreatePost(ctx, tt.input)
			assert.Nil(t, post)
			assertValidationError(t, err, tt.message)
		})
	}
}

func TestCreatePost_TitleLengthCountsRunes(t *testing.T) {
	svc := NewPostService(noopPostRepo())

	// three runes, more than three bytes
	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Title: "日本語", Content: "x", Author: "me",
	})
	require.NoError(t, err)
	assert.Equal(t, "日本語", post.Title)
}

func TestCreatePost_DefaultsStatusToDraft(t *testing.T) {
	svc := NewPostService(noopPostRepo())

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Title: "abc", Content: "body", Author: "me",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, post.Status)
	assert.NotZero(t, post.ID)
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)
}

func TestCreatePost_KeepsExplicitStatus(t *testing.T) {
	svc := NewPostService(noopPostRepo())

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Title: "abc", Content: "body", Author: "me", Status: "published",
	})
	require.NoError(t, err)
	assert.Equal(t, "published", post.Status)
}

func TestGetPost_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewPostService(repo)

	post, err := svc.GetPost(context.Background(), 999999)
	assert.Nil(t, post)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestGetPost_StorageFault(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
		return nil, errors.New("connection refused")
	}
	svc := NewPostService(repo)

	_, err := svc.GetPost(context.Background(), 1)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)
	// the cause is preserved for logging, not for the response body
	assert.ErrorContains(t, appErr.Err, "connection refused")
}

func TestListPosts_WindowMath(t *testing.T) {
	var gotLimit, gotOffset int
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, limit, offset int) ([]*models.Post, error) {
		gotLimit, gotOffset = limit, offset
		return []*models.Post{{ID: 3}, {ID: 2}}, nil
	}
	repo.countFn = func(_ context.Context) (int64, error) { return 3, nil }
	svc := NewPostService(repo)

	result, err := svc.ListPosts(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, gotLimit)
	assert.Equal(t, 2, gotOffset)
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, 2, result.PerPage)
	assert.Equal(t, int64(3), result.Total)
	assert.Len(t, result.Data, 2)
}

func TestListPosts_EmptyWindowIsNotAnError(t *testing.T) {
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil }
	repo.countFn = func(_ context.Context) (int64, error) { return 0, nil }
	svc := NewPostService(repo)

	result, err := svc.ListPosts(context.Background(), 50, 20)
	require.NoError(t, err)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}

func TestUpdatePost_PartialMerge(t *testing.T) {
	stored := &models.Post{
		ID:      1,
		Title:   "original title",
		Content: "original content",
		Author:  "ann",
		Status:  "published",
	}
	var saved *models.Post
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return stored, nil }
	repo.updateFn = func(_ context.Context, post *models.Post) error {
		saved = post
		return nil
	}
	svc := NewPostService(repo)

	content := "x"
	post, err := svc.UpdatePost(context.Background(), 1, UpdatePostInput{Content: &content})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "original title", post.Title)
	assert.Equal(t, "x", post.Content)
	assert.Equal(t, "ann", post.Author)
	assert.Equal(t, "published", post.Status)
}

func TestUpdatePost_EmptyInputStillWrites(t *testing.T) {
	stored := &models.Post{
		ID:      7,
		Title:   "kept title",
		Content: "kept content",
		Author:  "ann",
		Status:  "published",
	}
	var saved *models.Post
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return stored, nil }
	repo.updateFn = func(_ context.Context, post *models.Post) error {
		saved = post
		return nil
	}
	svc := NewPostService(repo)

	post, err := svc.UpdatePost(context.Background(), 7, UpdatePostInput{})
	require.NoError(t, err)

	// the write is still issued so the stored row's updated_at refreshes
	require.NotNil(t, saved)
	assert.Equal(t, "kept title", post.Title)
	assert.Equal(t, "kept content", post.Content)
	assert.Equal(t, "ann", post.Author)
	assert.Equal(t, "published", post.Status)
}

func TestUpdatePost_TitleValidatedOnlyWhenPresent(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
		return &models.Post{ID: 1, Title: "ok title"}, nil
	}
	svc := NewPostService(repo)
	ctx := context.Background()

	short := "ab"
	_, err := svc.UpdatePost(ctx, 1, UpdatePostInput{Title: &short})
	assertValidationError(t, err, "Title must be at least 3 characters")

	// absent title is not validated
	content := "new content"
	post, err := svc.UpdatePost(ctx, 1, UpdatePostInput{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "ok title", post.Title)
}

func TestUpdatePost_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewPostService(repo)

	title := "new title"
	_, err := svc.UpdatePost(context.Background(), 42, UpdatePostInput{Title: &title})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestDeletePost(t *testing.T) {
	calls := 0
	repo := noopPostRepo()
	repo.deleteFn = func(_ context.Context, _ uint) (int64, error) {
		calls++
		if calls == 1 {
			return 1, nil
		}
		return 0, nil
	}
	svc := NewPostService(repo)
	ctx := context.Background()

	// first delete succeeds, second of the same id reports not found
	assert.NoError(t, svc.DeletePost(ctx, 1))

	err := svc.DeletePost(ctx, 1)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestOperationsEmitSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })

	svc := NewPostService(noopPostRepo())
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, CreatePostInput{Title: "abc", Content: "x", Author: "me"})
	require.NoError(t, err)
	_, err = svc.GetPost(ctx, 1)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "PostService.CreatePost", spans[0].Name())
	assert.Equal(t, "PostService.GetPost", spans[1].Name())
}

func TestDeletePost_StorageFault(t *testing.T) {
	repo := noopPostRepo()
	repo.deleteFn = func(_ context.Context, _ uint) (int64, error) {
		return 0, errors.New("pool timeout")
	}
	svc := NewPostService(repo)

	err := svc.DeletePost(context.Background(), 1)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)
}
