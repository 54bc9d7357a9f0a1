package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blog-post-pages/internal/database"
	"github.com/blog-post-pages/internal/models"
)

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

// Create inserts a new post. A post whose id or slug already exists is left untouched.
func (r *postRepo) Create(ctx context.Context, post *models.Post, authorID string) error {
	body := post.Body
	if len(body) == 0 {
		body = json.RawMessage("[]")
	}
	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var author sql.NullString
	if authorID != "" {
		author = sql.NullString{String: authorID, Valid: true}
	}

	query := `
		INSERT INTO posts (id, slug, title, description, author_id, main_image_ref, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.Slug.Current, post.Title, post.Description, author,
		imageRef(post.MainImage), []byte(body), createdAt, time.Now(),
	)
	return err
}

// ListSlugs returns every post id and slug in creation order
func (r *postRepo) ListSlugs(ctx context.Context) ([]models.PostSummary, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, slug FROM posts ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.PostSummary, 0)
	for rows.Next() {
		var post models.PostSummary
		if err := rows.Scan(&post.ID, &post.Slug.Current); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// GetBySlug retrieves a post with its author joined and approved comments
// aggregated in a single query. Returns nil when no post matches.
func (r *postRepo) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	query := `
		SELECT
			p.id, p.created_at, p.title, p.description,
			COALESCE(a.name, ''), COALESCE(a.image_ref, ''),
			p.main_image_ref, p.body, p.slug,
			COALESCE((
				SELECT json_agg(json_build_object(
					'_id', c.id,
					'_createdAt', c.created_at,
					'_updatedAt', c.updated_at,
					'name', c.name,
					'email', c.email,
					'comment', c.comment,
					'approved', c.approved,
					'post', json_build_object('_ref', c.post_id, '_type', 'reference')
				) ORDER BY c.created_at, c.id)
				FROM comments c
				WHERE c.post_id = p.id AND c.approved
			), '[]'::json)
		FROM posts p
		LEFT JOIN authors a ON a.id = p.author_id
		WHERE p.slug = $1
	`

	var post models.Post
	var authorImage, mainImage string
	var body, comments []byte

	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&post.ID, &post.CreatedAt, &post.Title, &post.Description,
		&post.Author.Name, &authorImage,
		&mainImage, &body, &post.Slug.Current,
		&comments,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	post.Author.Image = imageFromColumn(authorImage)
	post.MainImage = imageFromColumn(mainImage)
	post.Body = json.RawMessage(body)

	if err := json.Unmarshal(comments, &post.Comments); err != nil {
		return nil, fmt.Errorf("decode comments for post %s: %w", post.ID, err)
	}

	return &post, nil
}

// Count returns the total number of posts
func (r *postRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count)
	return count, err
}

func imageFromColumn(value string) models.Image {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return models.Image{Asset: models.ImageAsset{URL: value}}
	}
	return models.Image{Asset: models.ImageAsset{Ref: value}}
}
