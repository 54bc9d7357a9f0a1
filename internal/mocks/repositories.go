package mocks

import (
	"context"
	"sort"

	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/repository"
)

// MockAuthorRepository is a mock implementation of AuthorRepository
type MockAuthorRepository struct {
	Authors     map[string]*models.AuthorRef
	InsertError error
}

// Verify interface compliance
var _ repository.AuthorRepository = (*MockAuthorRepository)(nil)

func NewMockAuthorRepository() *MockAuthorRepository {
	return &MockAuthorRepository{
		Authors: make(map[string]*models.AuthorRef),
	}
}

func (m *MockAuthorRepository) Create(ctx context.Context, id string, author *models.AuthorRef) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Authors[id] = author
	return nil
}

// MockPostRepository is a mock implementation of PostRepository.
// GetBySlug joins comments from the linked MockCommentRepository the way the
// SQL query does.
type MockPostRepository struct {
	Posts       map[string]*models.Post
	AuthorIDs   map[string]string
	Comments    *MockCommentRepository
	Authors     *MockAuthorRepository
	InsertError error
	QueryError  error
}

// Verify interface compliance
var _ repository.PostRepository = (*MockPostRepository)(nil)

func NewMockPostRepository(authors *MockAuthorRepository, comments *MockCommentRepository) *MockPostRepository {
	return &MockPostRepository{
		Posts:     make(map[string]*models.Post),
		AuthorIDs: make(map[string]string),
		Comments:  comments,
		Authors:   authors,
	}
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post, authorID string) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Posts[post.Slug.Current] = post
	m.AuthorIDs[post.ID] = authorID
	if m.Comments != nil {
		m.Comments.PostIDs[post.ID] = true
	}
	return nil
}

func (m *MockPostRepository) ListSlugs(ctx context.Context) ([]models.PostSummary, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	posts := make([]*models.Post, 0, len(m.Posts))
	for _, post := range m.Posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})

	out := make([]models.PostSummary, 0, len(posts))
	for _, post := range posts {
		out = append(out, models.PostSummary{ID: post.ID, Slug: post.Slug})
	}
	return out, nil
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	stored, ok := m.Posts[slug]
	if !ok {
		return nil, nil
	}

	post := *stored
	if m.Authors != nil {
		if author, ok := m.Authors.Authors[m.AuthorIDs[post.ID]]; ok {
			post.Author = *author
		}
	}
	post.Comments = []models.Comment{}
	if m.Comments != nil {
		for _, comment := range m.Comments.ordered() {
			if comment.Post.Ref == post.ID && comment.Approved {
				post.Comments = append(post.Comments, *comment)
			}
		}
	}
	return &post, nil
}

func (m *MockPostRepository) Count(ctx context.Context) (int, error) {
	if m.QueryError != nil {
		return 0, m.QueryError
	}
	return len(m.Posts), nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	Comments    map[string]*models.Comment
	PostIDs     map[string]bool
	InsertError error
	order       []string
}

// Verify interface compliance
var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[string]*models.Comment),
		PostIDs:  make(map[string]bool),
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if !m.PostIDs[comment.Post.Ref] {
		return repository.ErrPostNotFound
	}
	if _, exists := m.Comments[comment.ID]; !exists {
		m.order = append(m.order, comment.ID)
	}
	m.Comments[comment.ID] = comment
	return nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	return len(m.Comments), nil
}

func (m *MockCommentRepository) ordered() []*models.Comment {
	out := make([]*models.Comment, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.Comments[id])
	}
	return out
}
