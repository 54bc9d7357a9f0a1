package repository

import (
	"context"
	"errors"

	"github.com/blog-post-pages/internal/database"
	"github.com/blog-post-pages/internal/models"
)

// ErrPostNotFound is returned when a write references a post that does not exist
var ErrPostNotFound = errors.New("post not found")

// AuthorRepository defines the interface for author data operations
type AuthorRepository interface {
	Create(ctx context.Context, id string, author *models.AuthorRef) error
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, authorID string) error
	ListSlugs(ctx context.Context) ([]models.PostSummary, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	Count(ctx context.Context) (int, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Author  AuthorRepository
	Post    PostRepository
	Comment CommentRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Author:  NewAuthorRepo(db),
		Post:    NewPostRepo(db),
		Comment: NewCommentRepo(db),
	}
}
