package service

import (
	"context"

	"github.com/blog-post-pages/internal/cache"
	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/rs/zerolog"
)

// PathService enumerates the universe of renderable slugs
type PathService interface {
	ListSlugs(ctx context.Context) ([]models.PostSummary, error)
}

// PostService resolves a slug into the denormalized post view
type PostService interface {
	// Resolve serves from the freshness cache; it returns
	// contentstore.ErrNotFound when no post matches
	Resolve(ctx context.Context, slug string) (*models.Post, error)
	// ResolveFresh always queries the content store
	ResolveFresh(ctx context.Context, slug string) (*models.Post, error)
	CacheStats() cache.Stats
}

// CommentService accepts comment submissions for moderation
type CommentService interface {
	Submit(ctx context.Context, input *models.CommentInput) (*models.Comment, error)
}

// Services holds all service interfaces
type Services struct {
	Paths    PathService
	Posts    PostService
	Comments CommentService
}

// NewServices creates all services over one content store and page cache
func NewServices(store contentstore.Store, pages *cache.PageCache, log zerolog.Logger) *Services {
	return &Services{
		Paths:    newPathService(store, log),
		Posts:    newPostService(store, pages, log),
		Comments: newCommentService(store, log),
	}
}
