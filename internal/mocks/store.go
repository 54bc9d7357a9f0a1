package mocks

import (
	"context"
	"sync"

	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
)

// MockStore is an in-memory content store. It is safe for concurrent use
// and counts upstream calls so tests can assert on cache behavior.
type MockStore struct {
	mu sync.Mutex

	posts    map[string]*models.Post
	comments []*models.Comment

	ListError    error
	ResolveError error
	CreateError  error
	// ResolveFunc, when set, replaces the default lookup
	ResolveFunc func(ctx context.Context, slug string) (*models.Post, error)

	listCalls    int
	resolveCalls map[string]int
	Created      []*models.Comment
}

// Verify interface compliance
var _ contentstore.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		posts:        make(map[string]*models.Post),
		resolveCalls: make(map[string]int),
	}
}

func (m *MockStore) Name() string {
	return "mock"
}

// AddPost stores a post; its Comments field is ignored in favor of AddComment
func (m *MockStore) AddPost(post *models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.Slug.Current] = post
}

// AddComment stores a comment document, approved or not
func (m *MockStore) AddComment(comment *models.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, comment)
}

// SetResolveError changes the error returned by ResolvePost
func (m *MockStore) SetResolveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolveError = err
}

// ResolveCalls returns how many times slug was resolved
func (m *MockStore) ResolveCalls(slug string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls[slug]
}

// ListCalls returns how many times ListSlugs was called
func (m *MockStore) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func (m *MockStore) ListSlugs(ctx context.Context) ([]models.PostSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}

	out := make([]models.PostSummary, 0, len(m.posts))
	for _, post := range m.posts {
		out = append(out, models.PostSummary{ID: post.ID, Slug: post.Slug})
	}
	return out, nil
}

func (m *MockStore) ResolvePost(ctx context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	m.resolveCalls[slug]++
	resolveFunc := m.ResolveFunc
	m.mu.Unlock()

	if resolveFunc != nil {
		return resolveFunc(ctx, slug)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ResolveError != nil {
		return nil, m.ResolveError
	}

	stored, ok := m.posts[slug]
	if !ok {
		return nil, contentstore.ErrNotFound
	}

	post := *stored
	post.Comments = []models.Comment{}
	for _, comment := range m.comments {
		if comment.Post.Ref == post.ID && comment.Approved {
			post.Comments = append(post.Comments, *comment)
		}
	}
	return &post, nil
}

func (m *MockStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}

	for _, post := range m.posts {
		if post.ID == comment.Post.Ref {
			m.comments = append(m.comments, comment)
			m.Created = append(m.Created, comment)
			return nil
		}
	}
	return contentstore.ErrNotFound
}
