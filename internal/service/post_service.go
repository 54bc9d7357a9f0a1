package service

import (
	"context"
	"errors"
	"sort"

	"github.com/blog-post-pages/internal/cache"
	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/validation"
	"github.com/rs/zerolog"
)

// postService is the concrete implementation of PostService
type postService struct {
	store contentstore.Store
	pages *cache.PageCache
	log   zerolog.Logger
}

func newPostService(store contentstore.Store, pages *cache.PageCache, log zerolog.Logger) *postService {
	return &postService{
		store: store,
		pages: pages,
		log:   log.With().Str("service", "posts").Logger(),
	}
}

// Resolve returns the cached post for slug, regenerating per the cache policy
func (s *postService) Resolve(ctx context.Context, slug string) (*models.Post, error) {
	if !validation.ValidSlug(slug) {
		return nil, contentstore.ErrNotFound
	}

	post, err := s.pages.Get(ctx, slug, s.ResolveFresh)
	switch {
	case errors.Is(err, contentstore.ErrNotFound):
		s.log.Debug().Str("slug", slug).Msg("Post not found")
	case err != nil:
		s.log.Error().Err(err).Str("slug", slug).Msg("Failed to resolve post")
	}
	return post, err
}

// ResolveFresh queries the store and normalizes the result
func (s *postService) ResolveFresh(ctx context.Context, slug string) (*models.Post, error) {
	if !validation.ValidSlug(slug) {
		return nil, contentstore.ErrNotFound
	}

	post, err := s.store.ResolvePost(ctx, slug)
	if err != nil {
		return nil, err
	}
	return normalizePost(post), nil
}

// CacheStats returns the page cache counters
func (s *postService) CacheStats() cache.Stats {
	return s.pages.Stats()
}

// normalizePost keeps only approved comments that belong to the post and
// orders them chronologically, oldest first, ties broken by id.
func normalizePost(post *models.Post) *models.Post {
	comments := make([]models.Comment, 0, len(post.Comments))
	for _, comment := range post.Comments {
		if !comment.Approved {
			continue
		}
		if comment.Post.Ref != "" && comment.Post.Ref != post.ID {
			continue
		}
		comments = append(comments, comment)
	}

	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})

	out := *post
	out.Comments = comments
	return &out
}
