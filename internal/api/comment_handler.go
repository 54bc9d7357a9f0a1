package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blog-post-pages/internal/config"
	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/service"
	"github.com/blog-post-pages/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
)

// CommentHandler handles the comment submission endpoint
type CommentHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// CreateComment handles POST /api/createComment
// Accepts a JSON body (with or without a JSON content type) or a form post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input models.CommentInput
	if err := bindComment(c, &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := contextWithTimeout(c, h.submitTimeout())
	defer cancel()

	comment, err := h.services.Comments.Submit(ctx, &input)
	if err != nil {
		status := submitStatus(err)

		var errs validation.Errors
		switch {
		case errors.As(err, &errs):
			c.JSON(status, gin.H{
				"error":   "validation failed",
				"details": errs,
			})
		case status == http.StatusNotFound:
			c.JSON(status, gin.H{"error": "post not found"})
		default:
			h.log.Error().Err(err).Str("post_id", input.ID).Msg("Couldn't submit comment")
			c.JSON(status, gin.H{"message": "Couldn't submit comment", "error": "content store unavailable"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment submitted",
		"id":      comment.ID,
	})
}

func (h *CommentHandler) submitTimeout() time.Duration {
	if h.cfg != nil && h.cfg.Content.Timeout > 0 {
		return h.cfg.Content.Timeout
	}
	return 10 * time.Second
}

func bindComment(c *gin.Context, input *models.CommentInput) error {
	contentType := c.ContentType()
	if contentType == binding.MIMEPOSTForm || strings.HasPrefix(contentType, binding.MIMEMultipartPOSTForm) {
		return c.ShouldBind(input)
	}
	// Browsers posting with fetch often omit the content type
	return c.ShouldBindBodyWith(input, binding.JSON)
}

// submitStatus maps a submission error to an HTTP status
func submitStatus(err error) int {
	var errs validation.Errors
	switch {
	case errors.As(err, &errs):
		return http.StatusBadRequest
	case errors.Is(err, contentstore.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
