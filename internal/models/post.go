package models

import (
	"encoding/json"
	"time"
)

// Slug is the URL identifier of a post as stored by the content store
type Slug struct {
	Current string `json:"current"`
}

// PostSummary is the projection returned when enumerating posts
type PostSummary struct {
	ID   string `json:"_id"`
	Slug Slug   `json:"slug"`
}

// ImageAsset points at an uploaded image, either by asset reference or URL
type ImageAsset struct {
	Ref string `json:"_ref,omitempty"`
	URL string `json:"url,omitempty"`
}

// Image is an image field on a document
type Image struct {
	Asset ImageAsset `json:"asset"`
	Alt   string     `json:"alt,omitempty"`
}

// AuthorRef is the author projection joined into a post at query time
type AuthorRef struct {
	Name  string `json:"name"`
	Image Image  `json:"image"`
}

// Post is the denormalized view handed to the page renderer.
// Comments only ever contains approved comments.
type Post struct {
	ID          string          `json:"_id"`
	CreatedAt   time.Time       `json:"_createdAt"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Author      AuthorRef       `json:"author"`
	Body        json.RawMessage `json:"body,omitempty"`
	Comments    []Comment       `json:"comments"`
	MainImage   Image           `json:"mainImage"`
	Slug        Slug            `json:"slug"`
}
