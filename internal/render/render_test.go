package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/richtext"
	"github.com/blog-post-pages/internal/validation"
)

type stubSubmitter struct {
	err   error
	calls int
	last  models.CommentInput
}

func (s *stubSubmitter) Submit(ctx context.Context, input *models.CommentInput) (*models.Comment, error) {
	s.calls++
	s.last = *input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Comment{ID: "c1"}, nil
}

func TestCommentForm_Success(t *testing.T) {
	form := NewCommentForm("post-1")
	s := &stubSubmitter{}

	err := form.Submit(context.Background(), s, models.CommentInput{ID: "forged", Name: "Linus", Email: "l@example.com", Comment: "Hi"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !form.Submitted() || form.State.String() != "submitted" {
		t.Errorf("Expected Submitted, got %s", form.State)
	}
	if s.last.ID != "post-1" {
		t.Errorf("Submission must target the page's post, got %q", s.last.ID)
	}
}

func TestCommentForm_SubmittedIsAbsorbing(t *testing.T) {
	form := NewCommentForm("post-1")
	s := &stubSubmitter{}
	form.Submit(context.Background(), s, models.CommentInput{Name: "A"})

	s.err = errors.New("should not be called")
	if err := form.Submit(context.Background(), s, models.CommentInput{Name: "B"}); err != nil {
		t.Errorf("Resubmit should be a no-op, got %v", err)
	}
	if s.calls != 1 {
		t.Errorf("Expected 1 submission, got %d", s.calls)
	}
	if !form.Submitted() {
		t.Error("Form must stay Submitted")
	}
}

func TestCommentForm_ValidationFailureKeepsValues(t *testing.T) {
	form := NewCommentForm("post-1")
	s := &stubSubmitter{err: validation.Errors{
		{Field: "name", Message: "name is required"},
		{Field: "email", Message: "invalid email format"},
	}}

	err := form.Submit(context.Background(), s, models.CommentInput{Email: "bad", Comment: "Hi"})
	if err == nil {
		t.Fatal("Expected error")
	}
	if form.Submitted() {
		t.Error("Failed submission must stay Unsubmitted")
	}
	if form.Values.Email != "bad" || form.Values.Comment != "Hi" {
		t.Errorf("Expected values to be kept, got %+v", form.Values)
	}

	msgs := form.Messages()
	if len(msgs) != 2 || msgs[0] != "The Name Field required" || msgs[1] != "The Email Field: invalid email format" {
		t.Errorf("Unexpected messages %v", msgs)
	}

	// A retry after fixing the input succeeds
	s.err = nil
	if err := form.Submit(context.Background(), s, models.CommentInput{Name: "A", Email: "a@example.com", Comment: "Hi"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !form.Submitted() || len(form.Messages()) != 0 {
		t.Errorf("Expected clean Submitted form, got %+v", form)
	}
}

func TestCommentForm_UpstreamFailure(t *testing.T) {
	form := NewCommentForm("post-1")
	s := &stubSubmitter{err: errors.New("connection refused")}

	form.Submit(context.Background(), s, models.CommentInput{Name: "A"})

	if form.Submitted() {
		t.Error("Failed submission must stay Unsubmitted")
	}
	if form.Failure == "" {
		t.Error("Expected a failure message")
	}
	if len(form.Messages()) != 0 {
		t.Errorf("Expected no field messages, got %v", form.Messages())
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(richtext.ImageURLBuilder{ProjectID: "proj", Dataset: "production"})
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}
	return r
}

func samplePost() *models.Post {
	return &models.Post{
		ID:          "post-1",
		CreatedAt:   time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC),
		Title:       "Hello <World>",
		Description: "First post",
		Author: models.AuthorRef{
			Name:  "Ada",
			Image: models.Image{Asset: models.ImageAsset{Ref: "image-a-10x10-png"}},
		},
		MainImage: models.Image{Asset: models.ImageAsset{Ref: "image-m-20x10-jpg"}},
		Body:      json.RawMessage(`[{"_type":"block","style":"h2","children":[{"_type":"span","text":"Intro"}]}]`),
		Comments: []models.Comment{
			{ID: "c1", Name: "Grace", Comment: "<b>nice</b>"},
		},
		Slug: models.Slug{Current: "hello-world"},
	}
}

func TestRenderPost(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.RenderPost(&buf, samplePost(), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	html := buf.String()

	expected := []string{
		"<title>Hello &lt;World&gt;</title>",
		`src="https://cdn.sanity.io/images/proj/production/m-20x10.jpg"`,
		`src="https://cdn.sanity.io/images/proj/production/a-10x10.png"`,
		"Blog post by",
		"Ada",
		"First post",
		`<h2 class="text-xl font-bold my-5">Intro</h2>`,
		`action="/post/hello-world"`,
		`name="_id" value="post-1"`,
		"&lt;b&gt;nice&lt;/b&gt;",
	}
	for _, want := range expected {
		if !strings.Contains(html, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
	if strings.Contains(html, `id="comment-submitted"`) {
		t.Error("New form must not show the thank-you panel")
	}
}

func TestRenderPost_Submitted(t *testing.T) {
	r := newTestRenderer(t)
	form := NewCommentForm("post-1")
	form.State = Submitted

	var buf bytes.Buffer
	if err := r.RenderPost(&buf, samplePost(), form); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, "Thank you for submitting your comment!") {
		t.Error("Expected the thank-you panel")
	}
	if strings.Contains(html, `id="comment-form"`) {
		t.Error("Form must be hidden once submitted")
	}
	if !strings.Contains(html, `id="comments"`) {
		t.Error("Comments list must still render")
	}
}

func TestRenderPost_InvalidBodyWritesNothing(t *testing.T) {
	r := newTestRenderer(t)
	post := samplePost()
	post.Body = json.RawMessage(`{"broken"`)

	var buf bytes.Buffer
	if err := r.RenderPost(&buf, post, nil); err == nil {
		t.Fatal("Expected error")
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no partial output, got %d bytes", buf.Len())
	}
}

func TestRenderNotFoundAndError(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.RenderNotFound(&buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "404") {
		t.Error("Expected not-found page")
	}

	buf.Reset()
	if err := r.RenderError(&buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "500") {
		t.Error("Expected error page")
	}
}
