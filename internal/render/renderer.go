package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/richtext"
)

//go:embed templates/*.html
var templateFS embed.FS

const publishedLayout = "Jan 2, 2006, 3:04:05 PM MST"

// Renderer renders post pages. It never calls back into the data flow.
type Renderer struct {
	tmpl   *template.Template
	rich   richtext.Renderer
	images richtext.ImageURLBuilder
}

// New parses the page templates
func New(images richtext.ImageURLBuilder) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{
		tmpl:   tmpl,
		rich:   richtext.Renderer{Images: images},
		images: images,
	}, nil
}

type postView struct {
	Post           *models.Post
	MainImageURL   string
	AuthorImageURL string
	PublishedAt    string
	Body           template.HTML
	Form           *CommentForm
	Action         string
}

// RenderPost writes the page for post. The page is rendered in full before
// anything is written to w.
func (r *Renderer) RenderPost(w io.Writer, post *models.Post, form *CommentForm) error {
	doc, err := richtext.Parse(post.Body)
	if err != nil {
		return err
	}
	if form == nil {
		form = NewCommentForm(post.ID)
	}

	view := postView{
		Post:           post,
		MainImageURL:   r.images.URL(post.MainImage.Asset),
		AuthorImageURL: r.images.URL(post.Author.Image.Asset),
		PublishedAt:    post.CreatedAt.Format(publishedLayout),
		Body:           r.rich.Render(doc),
		Form:           form,
		Action:         "/post/" + url.PathEscape(post.Slug.Current),
	}
	return r.execute(w, "post.html", view)
}

// RenderNotFound writes the "no such page" page
func (r *Renderer) RenderNotFound(w io.Writer) error {
	return r.execute(w, "not_found.html", nil)
}

// RenderError writes the page shown when the content store is unavailable
func (r *Renderer) RenderError(w io.Writer) error {
	return r.execute(w, "error.html", nil)
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
