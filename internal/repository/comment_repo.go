package repository

import (
	"context"
	"errors"
	"time"

	"github.com/blog-post-pages/internal/database"
	"github.com/blog-post-pages/internal/models"
	"github.com/lib/pq"
)

// SQLSTATE codes that mean the referenced post cannot exist
const (
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment. A reference to a missing post yields ErrPostNotFound
// and an existing id is left untouched.
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now

	query := `
		INSERT INTO comments (id, post_id, name, email, comment, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.Post.Ref, comment.Name, comment.Email, comment.Comment,
		comment.Approved, comment.CreatedAt, comment.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && (pqErr.Code == foreignKeyViolation || pqErr.Code == invalidTextRepresentation) {
		return ErrPostNotFound
	}
	return err
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}
