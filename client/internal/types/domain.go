package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// Bookmark is a saved URL with its metadata.
type Bookmark struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Shared      bool      `json:"shared"`
	Unread      bool      `json:"unread"`
	Time        time.Time `json:"time,omitempty"`
	Hash        string    `json:"hash,omitempty"`
	Meta        string    `json:"meta,omitempty"`
}

// Tag is a tag name with the number of bookmarks carrying it.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TagBundle is a named group of tags.
type TagBundle struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}
