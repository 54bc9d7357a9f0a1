package render

import (
	"context"
	"errors"

	"github.com/blog-post-pages/internal/models"
	"github.com/blog-post-pages/internal/validation"
)

// FormState is the state of the comment form on a rendered page
type FormState int

const (
	// Unsubmitted shows the form
	Unsubmitted FormState = iota
	// Submitted shows the thank-you panel; it is never left
	Submitted
)

func (s FormState) String() string {
	switch s {
	case Submitted:
		return "submitted"
	default:
		return "unsubmitted"
	}
}

// Submitter sends a comment to the submission endpoint
type Submitter interface {
	Submit(ctx context.Context, input *models.CommentInput) (*models.Comment, error)
}

// CommentForm tracks the comment form for one post
type CommentForm struct {
	PostID string
	State  FormState
	Values models.CommentInput
	// Errors maps a field name to the message shown under the form
	Errors map[string]string
	// Failure is set when the submission itself failed
	Failure string
}

// NewCommentForm returns an empty, unsubmitted form for postID
func NewCommentForm(postID string) *CommentForm {
	return &CommentForm{PostID: postID, State: Unsubmitted}
}

// Submitted reports whether the form reached the Submitted state
func (f *CommentForm) Submitted() bool {
	return f.State == Submitted
}

// Submit sends input through s. Only a successful submission moves the form
// to Submitted; on failure it stays Unsubmitted with the visitor's values and
// the error messages so they can retry. Once Submitted, further submissions
// are ignored.
func (f *CommentForm) Submit(ctx context.Context, s Submitter, input models.CommentInput) error {
	if f.State == Submitted {
		return nil
	}

	input.ID = f.PostID
	f.Errors = nil
	f.Failure = ""

	if _, err := s.Submit(ctx, &input); err != nil {
		f.State = Unsubmitted
		f.Values = input
		f.setError(err)
		return err
	}

	f.State = Submitted
	f.Values = models.CommentInput{ID: f.PostID}
	return nil
}

var fieldLabels = map[string]string{
	"name":    "Name",
	"email":   "Email",
	"comment": "Comment",
}

func (f *CommentForm) setError(err error) {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		f.Failure = "Your comment could not be submitted. Please try again."
		return
	}

	f.Errors = make(map[string]string, len(errs))
	for _, e := range errs {
		label, ok := fieldLabels[e.Field]
		if !ok || f.Errors[e.Field] != "" {
			continue
		}
		if e.Message == e.Field+" is required" {
			f.Errors[e.Field] = "The " + label + " Field required"
		} else {
			f.Errors[e.Field] = "The " + label + " Field: " + e.Message
		}
	}
	if len(f.Errors) == 0 {
		f.Failure = "Your comment could not be submitted. Please try again."
	}
}

// Messages returns the field errors in form order
func (f *CommentForm) Messages() []string {
	var msgs []string
	for _, field := range []string{"name", "email", "comment"} {
		if msg, ok := f.Errors[field]; ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
