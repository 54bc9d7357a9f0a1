package service

import (
	"context"

	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/rs/zerolog"
)

// pathService is the concrete implementation of PathService
type pathService struct {
	store contentstore.Store
	log   zerolog.Logger
}

func newPathService(store contentstore.Store, log zerolog.Logger) *pathService {
	return &pathService{
		store: store,
		log:   log.With().Str("service", "paths").Logger(),
	}
}

// ListSlugs returns every post with a slug, once per slug. Store failures are
// returned unchanged so the caller can decide between aborting and an empty set.
func (s *pathService) ListSlugs(ctx context.Context) ([]models.PostSummary, error) {
	posts, err := s.store.ListSlugs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to enumerate post slugs")
		return nil, err
	}

	seen := make(map[string]bool, len(posts))
	out := make([]models.PostSummary, 0, len(posts))
	for _, post := range posts {
		slug := post.Slug.Current
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, post)
	}

	s.log.Debug().Int("count", len(out)).Msg("Enumerated post slugs")
	return out, nil
}
