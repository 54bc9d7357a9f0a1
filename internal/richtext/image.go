package richtext

import (
	"strings"

	"github.com/blog-post-pages/internal/models"
)

const defaultImageCDN = "https://cdn.sanity.io"

// ImageURLBuilder maps image asset references to CDN URLs
type ImageURLBuilder struct {
	ProjectID string
	Dataset   string
	BaseURL   string
}

// URL returns the address of asset. Assets that already carry a URL, or whose
// reference is an absolute URL, are returned unchanged. Unknown references
// yield "".
//
// A reference has the form image-<id>-<width>x<height>-<format>.
func (b ImageURLBuilder) URL(asset models.ImageAsset) string {
	if asset.URL != "" {
		return asset.URL
	}
	ref := asset.Ref
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "image-") || b.ProjectID == "" || b.Dataset == "" {
		return ""
	}

	parts := strings.Split(strings.TrimPrefix(ref, "image-"), "-")
	if len(parts) < 3 {
		return ""
	}
	format := parts[len(parts)-1]
	dimensions := parts[len(parts)-2]
	id := strings.Join(parts[:len(parts)-2], "-")
	if id == "" || format == "" || !strings.Contains(dimensions, "x") {
		return ""
	}

	base := strings.TrimRight(b.BaseURL, "/")
	if base == "" {
		base = defaultImageCDN
	}
	return base + "/images/" + b.ProjectID + "/" + b.Dataset + "/" + id + "-" + dimensions + "." + format
}
