package repository

import (
	"context"
	"time"

	"github.com/blog-post-pages/internal/database"
	"github.com/blog-post-pages/internal/models"
)

// authorRepo is the concrete implementation of AuthorRepository
type authorRepo struct {
	db *database.DB
}

// NewAuthorRepo creates a new author repository
func NewAuthorRepo(db *database.DB) AuthorRepository {
	return &authorRepo{db: db}
}

// Create inserts a new author. An existing id is left untouched.
func (r *authorRepo) Create(ctx context.Context, id string, author *models.AuthorRef) error {
	query := `
		INSERT INTO authors (id, name, image_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, id, author.Name, imageRef(author.Image), time.Now())
	return err
}

// imageRef flattens an image to the single column it is stored in
func imageRef(img models.Image) string {
	if img.Asset.Ref != "" {
		return img.Asset.Ref
	}
	return img.Asset.URL
}
