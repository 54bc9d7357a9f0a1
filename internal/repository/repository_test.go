package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/blog-post-pages/internal/config"
	"github.com/blog-post-pages/internal/database"
	"github.com/blog-post-pages/internal/mocks"
	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestMockRepositories_JoinApprovedComments(t *testing.T) {
	authors := mocks.NewMockAuthorRepository()
	comments := mocks.NewMockCommentRepository()
	posts := mocks.NewMockPostRepository(authors, comments)
	ctx := context.Background()

	authors.Create(ctx, "author-1", &models.AuthorRef{Name: "Ada"})
	posts.Create(ctx, &models.Post{ID: "post-1", Slug: models.Slug{Current: "hello-world"}}, "author-1")
	comments.Create(ctx, &models.Comment{ID: "c1", Approved: true, Post: models.PostRef{Ref: "post-1"}})
	comments.Create(ctx, &models.Comment{ID: "c2", Approved: false, Post: models.PostRef{Ref: "post-1"}})

	post, err := posts.GetBySlug(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if post.Author.Name != "Ada" {
		t.Errorf("Expected author Ada, got %q", post.Author.Name)
	}
	if len(post.Comments) != 1 || post.Comments[0].ID != "c1" {
		t.Errorf("Expected only c1, got %+v", post.Comments)
	}

	missing, err := posts.GetBySlug(ctx, "does-not-exist")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown slug, got %v, %v", missing, err)
	}
}

func TestMockCommentRepository_UnknownPost(t *testing.T) {
	comments := mocks.NewMockCommentRepository()

	err := comments.Create(context.Background(), &models.Comment{ID: "c1", Post: models.PostRef{Ref: "nope"}})
	if !errors.Is(err, repository.ErrPostNotFound) {
		t.Errorf("Expected ErrPostNotFound, got %v", err)
	}
}

// openTestDB connects to the database named by the TEST_DB_* variables
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set")
	}

	cfg := &config.DatabaseConfig{
		Host:         host,
		Port:         envOr("TEST_DB_PORT", "5432"),
		User:         envOr("TEST_DB_USER", "postgres"),
		Password:     envOr("TEST_DB_PASSWORD", "postgres"),
		Name:         envOr("TEST_DB_NAME", "blog_test"),
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 1,
		MaxLifetime:  time.Minute,
	}

	db, err := database.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestPostgresRepositories(t *testing.T) {
	db := openTestDB(t)
	repos := repository.New(db)
	ctx := context.Background()

	authorID := uuid.NewString()
	postID := uuid.NewString()
	slug := "it-" + postID[:8]
	t.Cleanup(func() {
		db.ExecContext(context.Background(), "DELETE FROM posts WHERE id = $1", postID)
		db.ExecContext(context.Background(), "DELETE FROM authors WHERE id = $1", authorID)
	})

	if err := repos.Author.Create(ctx, authorID, &models.AuthorRef{
		Name:  "Ada",
		Image: models.Image{Asset: models.ImageAsset{Ref: "image-a-1x1-png"}},
	}); err != nil {
		t.Fatalf("Author.Create failed: %v", err)
	}

	err := repos.Post.Create(ctx, &models.Post{
		ID:        postID,
		CreatedAt: time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC),
		Title:     "Hello World",
		Body:      json.RawMessage(`[{"_type":"block","children":[{"_type":"span","text":"Hi"}]}]`),
		MainImage: models.Image{Asset: models.ImageAsset{URL: "https://img.example.com/m.png"}},
		Slug:      models.Slug{Current: slug},
	}, authorID)
	if err != nil {
		t.Fatalf("Post.Create failed: %v", err)
	}

	// Seeding the same documents again is a no-op
	if err := repos.Author.Create(ctx, authorID, &models.AuthorRef{Name: "Ada"}); err != nil {
		t.Errorf("Repeated Author.Create failed: %v", err)
	}
	if err := repos.Post.Create(ctx, &models.Post{ID: postID, Slug: models.Slug{Current: slug}}, authorID); err != nil {
		t.Errorf("Repeated Post.Create failed: %v", err)
	}

	base := time.Date(2022, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, approved := range []bool{true, false, true} {
		err := repos.Comment.Create(ctx, &models.Comment{
			ID:        uuid.NewString(),
			CreatedAt: base.Add(time.Duration(2-i) * time.Hour),
			Name:      "Commenter",
			Email:     "c@example.com",
			Comment:   "Comment",
			Approved:  approved,
			Post:      models.PostRef{Ref: postID},
		})
		if err != nil {
			t.Fatalf("Comment.Create failed: %v", err)
		}
	}

	post, err := repos.Post.GetBySlug(ctx, slug)
	if err != nil || post == nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if post.Author.Name != "Ada" || post.Author.Image.Asset.Ref != "image-a-1x1-png" {
		t.Errorf("Unexpected author %+v", post.Author)
	}
	if post.MainImage.Asset.URL != "https://img.example.com/m.png" {
		t.Errorf("Unexpected main image %+v", post.MainImage)
	}
	if len(post.Comments) != 2 {
		t.Fatalf("Expected 2 approved comments, got %d", len(post.Comments))
	}
	if !post.Comments[0].CreatedAt.Before(post.Comments[1].CreatedAt) {
		t.Error("Expected comments oldest first")
	}

	summaries, err := repos.Post.ListSlugs(ctx)
	if err != nil {
		t.Fatalf("ListSlugs failed: %v", err)
	}
	var found bool
	for _, s := range summaries {
		found = found || s.Slug.Current == slug
	}
	if !found {
		t.Errorf("Expected %s in slug list", slug)
	}

	missing, err := repos.Post.GetBySlug(ctx, "it-does-not-exist")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown slug, got %v, %v", missing, err)
	}

	for _, ref := range []string{uuid.NewString(), "not-a-uuid"} {
		err := repos.Comment.Create(ctx, &models.Comment{ID: uuid.NewString(), Post: models.PostRef{Ref: ref}})
		if !errors.Is(err, repository.ErrPostNotFound) {
			t.Errorf("Comment for post %q: expected ErrPostNotFound, got %v", ref, err)
		}
	}
}
