package types

import "time"

// ------------------------------
// Request Types
// ------------------------------

// DefaultBookmarkCount is the number of bookmarks requested when the caller
// does not filter.
const DefaultBookmarkCount = 100000

// ListBookmarksRequest holds the posts/all filters. Zero values are omitted.
type ListBookmarksRequest struct {
	Tag         string
	Offset      int
	Count       int
	FromDate    time.Time
	ToDate      time.Time
	IncludeMeta bool
}

// AddBookmarkRequest holds parameters for a new bookmark.
// Title maps to the service's "description" field and Description to
// "extended". Shared defaults to true when nil.
type AddBookmarkRequest struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Shared      *bool    `json:"shared,omitempty"`
	Unread      bool     `json:"unread,omitempty"`
	Replace     bool     `json:"replace,omitempty"`
}

// IsShared reports the effective shared flag.
func (r AddBookmarkRequest) IsShared() bool {
	return r.Shared == nil || *r.Shared
}
