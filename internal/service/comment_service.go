package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	store contentstore.Store
	log   zerolog.Logger
}

func newCommentService(store contentstore.Store, log zerolog.Logger) *commentService {
	return &commentService{
		store: store,
		log:   log.With().Str("service", "comments").Logger(),
	}
}

// Submit validates input and stores it as an unapproved comment.
// Errors are validation.Errors, contentstore.ErrNotFound when the post does
// not exist, or an upstream failure.
func (s *commentService) Submit(ctx context.Context, input *models.CommentInput) (*models.Comment, error) {
	if errs := validation.ValidateComment(input); errs != nil {
		return nil, errs
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Comment:   strings.TrimSpace(input.Comment),
		Approved:  false,
		Post: models.PostRef{
			Ref:  strings.TrimSpace(input.ID),
			Type: "reference",
		},
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			s.log.Info().Str("post_id", comment.Post.Ref).Msg("Comment submitted for unknown post")
		} else {
			s.log.Error().Err(err).Str("post_id", comment.Post.Ref).Msg("Failed to store comment")
		}
		return nil, err
	}

	s.log.Info().
		Str("comment_id", comment.ID).
		Str("post_id", comment.Post.Ref).
		Msg("Comment submitted for moderation")
	return comment, nil
}
