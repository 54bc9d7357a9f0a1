package contentstore

import (
	"context"
	"errors"

	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/repository"
	"github.com/rs/zerolog"
)

// Counter is implemented by stores that can report document counts
type Counter interface {
	Counts(ctx context.Context) (map[string]int, error)
}

// PostgresStore serves content from the self-hosted relational schema
type PostgresStore struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

var (
	_ Store   = (*PostgresStore)(nil)
	_ Counter = (*PostgresStore)(nil)
)

// NewPostgresStore creates a store over the given repositories
func NewPostgresStore(repos *repository.Repositories, log zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		repos: repos,
		log:   log.With().Str("component", "postgres_store").Logger(),
	}
}

// Name implements Store
func (s *PostgresStore) Name() string {
	return "postgres"
}

// ListSlugs implements Store
func (s *PostgresStore) ListSlugs(ctx context.Context) ([]models.PostSummary, error) {
	posts, err := s.repos.Post.ListSlugs(ctx)
	if err != nil {
		return nil, Unavailable("list slugs", err)
	}
	return posts, nil
}

// ResolvePost implements Store
func (s *PostgresStore) ResolvePost(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.repos.Post.GetBySlug(ctx, slug)
	if err != nil {
		return nil, Unavailable("resolve post", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// CreateComment implements Store
func (s *PostgresStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	err := s.repos.Comment.Create(ctx, comment)
	if errors.Is(err, repository.ErrPostNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return Unavailable("create comment", err)
	}
	s.log.Debug().
		Str("comment_id", comment.ID).
		Str("post_id", comment.Post.Ref).
		Msg("Comment stored")
	return nil
}

// Counts reports the number of posts and comments
func (s *PostgresStore) Counts(ctx context.Context) (map[string]int, error) {
	posts, err := s.repos.Post.Count(ctx)
	if err != nil {
		return nil, Unavailable("count posts", err)
	}
	comments, err := s.repos.Comment.Count(ctx)
	if err != nil {
		return nil, Unavailable("count comments", err)
	}
	return map[string]int{
		"posts":    posts,
		"comments": comments,
	}, nil
}
