package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blog-post-pages/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	maxNameLength  = 200
	maxEmailLength = 320
	maxSlugLength  = 200
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a list of validation errors usable as an error value
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether any error concerns field
func (e Errors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ValidateComment validates a comment submission. It returns nil when the
// input is acceptable.
func ValidateComment(input *models.CommentInput) Errors {
	var errors Errors

	// Validate post reference
	if strings.TrimSpace(input.ID) == "" {
		errors = append(errors, ValidationError{Field: "_id", Message: "_id is required"})
	}

	// Validate name
	name := strings.TrimSpace(input.Name)
	if name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	} else if len(name) > maxNameLength {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("name exceeds maximum of %d characters", maxNameLength),
		})
	}

	// Validate email
	email := strings.TrimSpace(input.Email)
	if email == "" {
		errors = append(errors, ValidationError{Field: "email", Message: "email is required"})
	} else if len(email) > maxEmailLength || !emailRegex.MatchString(email) {
		errors = append(errors, ValidationError{Field: "email", Message: "invalid email format", Value: input.Email})
	}

	// Validate comment body
	if strings.TrimSpace(input.Comment) == "" {
		errors = append(errors, ValidationError{Field: "comment", Message: "comment is required"})
	} else {
		// Check word count (max 500 words)
		wordCount := len(strings.Fields(input.Comment))
		if wordCount > models.MaxCommentWords {
			errors = append(errors, ValidationError{
				Field:   "comment",
				Message: fmt.Sprintf("comment exceeds maximum of %d words (has %d)", models.MaxCommentWords, wordCount),
			})
		}
	}

	return errors
}

// ValidSlug reports whether slug can name a post at all. Slugs that fail this
// check are treated as not found without querying the content store.
func ValidSlug(slug string) bool {
	if slug == "" || len(slug) > maxSlugLength {
		return false
	}
	if slug == "." || slug == ".." || strings.ContainsAny(slug, "/\\") {
		return false
	}
	for _, r := range slug {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
