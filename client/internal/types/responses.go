package types

// ------------------------------
// Response Types
// ------------------------------

// EnqueueAck represents acknowledgment of an async write.
type EnqueueAck struct {
	JobID  string `json:"jobId"`
	Key    string `json:"key"`
	Status string `json:"status"`
}

// BookmarkList is the result of posts/all: the bookmarks plus every other
// top-level field of the reply (user, tag, total, ...).
type BookmarkList struct {
	Bookmarks []Bookmark     `json:"bookmarks"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// UpdateResponse mirrors the posts/update reply.
type UpdateResponse struct {
	UpdateTime string `json:"update_time"`
}

// ResultDone is the result_code of a successful write.
const ResultDone = "done"
