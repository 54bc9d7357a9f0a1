package cache

import (
	"time"

	"github.com/blog-post-pages/internal/contentstore"
	"github.com/blog-post-pages/internal/models"
)

// Entry is one resolution of a slug together with the time it was computed.
// A NotFound entry remembers that the slug did not exist.
type Entry struct {
	Post       *models.Post `json:"post,omitempty"`
	NotFound   bool         `json:"not_found,omitempty"`
	ComputedAt time.Time    `json:"computed_at"`
}

func (e *Entry) result() (*models.Post, error) {
	if e.NotFound {
		return nil, contentstore.ErrNotFound
	}
	return e.Post, nil
}

// Policy decides when an entry must be regenerated
type Policy struct {
	Window time.Duration
}

// DefaultWindow is the freshness window applied when none is configured
const DefaultWindow = 60 * time.Second

// IsStale reports whether entry is outside the freshness window at now.
// A nil entry is always stale.
func (p Policy) IsStale(entry *Entry, now time.Time) bool {
	if entry == nil {
		return true
	}
	window := p.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return now.Sub(entry.ComputedAt) >= window
}
