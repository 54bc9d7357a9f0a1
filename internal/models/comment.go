package models

import (
	"time"
)

// CommentDocumentType is the content store document type for comments
const CommentDocumentType = "comment"

// PostRef is a reference from a comment to the post it belongs to
type PostRef struct {
	Ref  string `json:"_ref"`
	Type string `json:"_type,omitempty"`
}

// Comment represents a visitor comment on a post
type Comment struct {
	ID        string    `json:"_id"`
	CreatedAt time.Time `json:"_createdAt"`
	UpdatedAt time.Time `json:"_updatedAt"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved"`
	Post      PostRef   `json:"post"`
}

// CommentInput is the body of a comment submission.
// ID carries the id of the post being commented on.
type CommentInput struct {
	ID      string `json:"_id" form:"_id"`
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Comment string `json:"comment" form:"comment"`
}

// MaxCommentWords is the maximum allowed words in a comment body
const MaxCommentWords = 500
