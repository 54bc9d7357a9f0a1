package contentstore

import (
	"context"
	"errors"

	"github.com/blog-post-pages/internal/models"
)

var (
	// ErrNotFound is returned when no document matches. It is an expected
	// outcome and maps to a "page does not exist" response.
	ErrNotFound = errors.New("content not found")

	// ErrUpstreamUnavailable wraps every failure to reach or query the store.
	ErrUpstreamUnavailable = errors.New("content store unavailable")
)

// Store is the query and mutation surface of the headless content store
type Store interface {
	// ListSlugs returns every post id/slug pair in one pass
	ListSlugs(ctx context.Context) ([]models.PostSummary, error)
	// ResolvePost returns the post matching slug with its author joined and
	// only approved comments attached, or ErrNotFound
	ResolvePost(ctx context.Context, slug string) (*models.Post, error)
	// CreateComment stores a new comment document
	CreateComment(ctx context.Context, comment *models.Comment) error
	// Name identifies the backend in logs and metrics
	Name() string
}

// Unavailable wraps err so that errors.Is(err, ErrUpstreamUnavailable) holds
func Unavailable(op string, err error) error {
	if err == nil || errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// UpstreamError records which store operation failed
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + ErrUpstreamUnavailable.Error() + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}
