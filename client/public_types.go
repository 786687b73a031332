package client

import "github.com/delicious-go/delicious/client/internal/types"

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	ListBookmarksRequest = types.ListBookmarksRequest
	AddBookmarkRequest   = types.AddBookmarkRequest

	// Domain entities
	Bookmark  = types.Bookmark
	Tag       = types.Tag
	TagBundle = types.TagBundle

	// Responses
	BookmarkList = types.BookmarkList
	EnqueueAck   = types.EnqueueAck
)

// DefaultBookmarkCount is the page size Bookmarks asks for.
const DefaultBookmarkCount = types.DefaultBookmarkCount

// DateLayout is the wire timestamp format (UTC).
const DateLayout = types.DateLayout

// Bool returns a pointer to v, for AddBookmarkRequest.Shared.
func Bool(v bool) *bool { return &v }
