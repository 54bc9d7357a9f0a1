package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/rs/zerolog"
)

const (
	listSlugsQuery = `*[_type == "post" && defined(slug.current)]{
	_id,
	slug {
		current
	}
}`

	resolvePostQuery = `*[_type == "post" && slug.current == $slug][0]{
	_id,
	_createdAt,
	title,
	author -> {
		name,
		image
	},
	"comments": *[
		_type == "comment" &&
		post._ref == ^._id &&
		approved == true
	] | order(_createdAt asc),
	description,
	mainImage,
	slug,
	body
}`

	postExistsQuery = `count(*[_type == "post" && _id == $id])`
)

// maxErrorBody bounds how much of an error response is kept for logs
const maxErrorBody = 4 << 10

// Config identifies the project and dataset to talk to
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	// APIHost replaces both the api and apicdn hosts, e.g. for a proxy
	APIHost string
	Timeout time.Duration
}

// Client is a content store backed by the Sanity HTTP query API
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

var _ contentstore.Store = (*Client)(nil)

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the given project and dataset
func New(cfg Config, log zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg.ProjectID == "" && cfg.APIHost == "" {
		return nil, errors.New("sanity: project id is required")
	}
	if cfg.Dataset == "" {
		return nil, errors.New("sanity: dataset is required")
	}
	if cfg.APIVersion == "" {
		return nil, errors.New("sanity: api version is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log: log.With().
			Str("component", "sanity").
			Str("project", cfg.ProjectID).
			Str("dataset", cfg.Dataset).
			Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name implements contentstore.Store
func (c *Client) Name() string {
	return "sanity"
}

// ListSlugs fetches every post id and slug
func (c *Client) ListSlugs(ctx context.Context) ([]models.PostSummary, error) {
	var posts []models.PostSummary
	found, err := c.query(ctx, listSlugsQuery, nil, &posts)
	if err != nil {
		return nil, contentstore.Unavailable("list slugs", err)
	}
	if !found {
		return []models.PostSummary{}, nil
	}
	return posts, nil
}

// ResolvePost fetches the post for slug with its author and approved comments
func (c *Client) ResolvePost(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	found, err := c.query(ctx, resolvePostQuery, map[string]any{"slug": slug}, &post)
	if err != nil {
		return nil, contentstore.Unavailable("resolve post", err)
	}
	if !found {
		return nil, contentstore.ErrNotFound
	}
	return &post, nil
}

// CreateComment creates an unapproved comment document referencing its post
func (c *Client) CreateComment(ctx context.Context, comment *models.Comment) error {
	var count int
	if _, err := c.query(ctx, postExistsQuery, map[string]any{"id": comment.Post.Ref}, &count); err != nil {
		return contentstore.Unavailable("create comment", err)
	}
	if count == 0 {
		return contentstore.ErrNotFound
	}

	doc := map[string]any{
		"_type":    models.CommentDocumentType,
		"name":     comment.Name,
		"email":    comment.Email,
		"comment":  comment.Comment,
		"approved": comment.Approved,
		"post": map[string]string{
			"_type": "reference",
			"_ref":  comment.Post.Ref,
		},
	}
	if comment.ID != "" {
		doc["_id"] = comment.ID
	}

	body, err := json.Marshal(map[string]any{
		"mutations": []map[string]any{{"create": doc}},
	})
	if err != nil {
		return err
	}

	endpoint := c.baseURL(false) + "/data/mutate/" + url.PathEscape(c.cfg.Dataset) + "?returnIds=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(req); err != nil {
		return contentstore.Unavailable("create comment", err)
	}

	c.log.Info().
		Str("comment_id", comment.ID).
		Str("post_id", comment.Post.Ref).
		Msg("Comment document created")
	return nil
}

// query runs a GROQ query and decodes the result into dest.
// It reports false when the result is null.
func (c *Client) query(ctx context.Context, groq string, params map[string]any, dest any) (bool, error) {
	values := url.Values{}
	values.Set("query", groq)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return false, fmt.Errorf("encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	endpoint := c.baseURL(c.cfg.UseCDN) + "/data/query/" + url.PathEscape(c.cfg.Dataset) + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	start := time.Now()
	payload, err := c.do(req)
	if err != nil {
		return false, err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	c.log.Debug().
		Dur("duration", time.Since(start)).
		Int("bytes", len(payload)).
		Msg("Query completed")

	if len(envelope.Result) == 0 || bytes.Equal(envelope.Result, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(envelope.Result, dest); err != nil {
		return false, fmt.Errorf("decode result: %w", err)
	}
	return true, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(payload) > maxErrorBody {
			payload = payload[:maxErrorBody]
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

func (c *Client) baseURL(cdn bool) string {
	host := strings.TrimRight(c.cfg.APIHost, "/")
	if host == "" {
		sub := "api"
		if cdn {
			sub = "apicdn"
		}
		host = fmt.Sprintf("https://%s.%s.sanity.io", c.cfg.ProjectID, sub)
	}
	return host + "/v" + strings.TrimPrefix(c.cfg.APIVersion, "v")
}
