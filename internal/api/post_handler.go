package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/render"
	"github.com/blog-post-pages/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	submittedCookiePrefix = "comment_submitted_"
	submittedCookieMaxAge = 365 * 24 * 60 * 60
)

// PostHandler serves post pages and the path listing
type PostHandler struct {
	services *service.Services
	renderer *render.Renderer
	log      zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, renderer *render.Renderer, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		services: services,
		renderer: renderer,
		log:      log.With().Str("handler", "post").Logger(),
	}
}

// pathParams mirrors the shape static site tooling expects per path
type pathParams struct {
	Params struct {
		Slug string `json:"slug"`
	} `json:"params"`
}

// ListPaths handles GET /api/paths
func (h *PostHandler) ListPaths(c *gin.Context) {
	posts, err := h.services.Paths.ListSlugs(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list slugs")
		c.JSON(http.StatusBadGateway, gin.H{"error": "content store unavailable"})
		return
	}

	paths := make([]pathParams, 0, len(posts))
	for _, p := range posts {
		var entry pathParams
		entry.Params.Slug = p.Slug.Current
		paths = append(paths, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"paths":    paths,
		"fallback": "blocking",
	})
}

// GetPost handles GET /api/posts/:slug
func (h *PostHandler) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	post, err := h.services.Posts.Resolve(c.Request.Context(), slug)
	switch {
	case errors.Is(err, contentstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	case err != nil:
		h.log.Error().Err(err).Str("slug", slug).Msg("Failed to resolve post")
		c.JSON(http.StatusBadGateway, gin.H{"error": "content store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// ShowPost handles GET /post/:slug
func (h *PostHandler) ShowPost(c *gin.Context) {
	post, ok := h.resolvePage(c)
	if !ok {
		return
	}

	form := render.NewCommentForm(post.ID)
	if h.alreadySubmitted(c, post.ID) {
		form.State = render.Submitted
	}

	h.writePage(c, http.StatusOK, post, form)
}

// SubmitComment handles POST /post/:slug, the form fallback for visitors
// without scripts
func (h *PostHandler) SubmitComment(c *gin.Context) {
	post, ok := h.resolvePage(c)
	if !ok {
		return
	}

	form := render.NewCommentForm(post.ID)
	if h.alreadySubmitted(c, post.ID) {
		form.State = render.Submitted
		h.writePage(c, http.StatusOK, post, form)
		return
	}

	var input models.CommentInput
	if err := c.ShouldBind(&input); err != nil {
		h.log.Debug().Err(err).Msg("Failed to bind comment form")
	}

	status := http.StatusOK
	if err := form.Submit(c.Request.Context(), h.services.Comments, input); err != nil {
		status = submitStatus(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Str("post_id", post.ID).Msg("Comment submission failed")
		}
	} else {
		c.SetCookie(submittedCookiePrefix+post.ID, "1", submittedCookieMaxAge, "/", "", false, true)
	}

	h.writePage(c, status, post, form)
}

// resolvePage resolves the slug and writes the not-found or error page when
// that fails
func (h *PostHandler) resolvePage(c *gin.Context) (*models.Post, bool) {
	slug := c.Param("slug")

	post, err := h.services.Posts.Resolve(c.Request.Context(), slug)
	if errors.Is(err, contentstore.ErrNotFound) {
		h.log.Debug().Str("slug", slug).Msg("Post not found")
		h.writeStatic(c, http.StatusNotFound, h.renderer.RenderNotFound)
		return nil, false
	}
	if err != nil {
		h.log.Error().Err(err).Str("slug", slug).Msg("Failed to resolve post")
		h.writeStatic(c, http.StatusInternalServerError, h.renderer.RenderError)
		return nil, false
	}
	return post, true
}

func (h *PostHandler) alreadySubmitted(c *gin.Context, postID string) bool {
	value, err := c.Cookie(submittedCookiePrefix + postID)
	return err == nil && value != ""
}

func (h *PostHandler) writePage(c *gin.Context, status int, post *models.Post, form *render.CommentForm) {
	var buf bytes.Buffer
	if err := h.renderer.RenderPost(&buf, post, form); err != nil {
		h.log.Error().Err(err).Str("post_id", post.ID).Msg("Failed to render post")
		h.writeStatic(c, http.StatusInternalServerError, h.renderer.RenderError)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PostHandler) writeStatic(c *gin.Context, status int, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		h.log.Error().Err(err).Msg("Failed to render page")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
