package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the timestamp format used on the wire, always UTC.
const DateLayout = "2006-01-02T15:04:05Z"

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a wire timestamp, falling back to RFC 3339 for replies
// that carry an offset.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Post is a bookmark as the service encodes it.
type Post struct {
	Href        string `json:"href"`
	Description string `json:"description"`
	Extended    string `json:"extended"`
	Tags        string `json:"tags"`
	Time        string `json:"time"`
	Shared      string `json:"shared"`
	ToRead      string `json:"toread"`
	Hash        string `json:"hash"`
	Meta        string `json:"meta"`
}

// Bookmark converts the wire form to the domain form. A missing shared
// field means shared. An unparseable time leaves Time zero; the returned
// bookmark is complete either way and the error only reports the time.
func (p Post) Bookmark() (Bookmark, error) {
	b := Bookmark{
		URL:         p.Href,
		Title:       p.Description,
		Description: p.Extended,
		Tags:        SplitTags(p.Tags),
		Shared:      p.Shared == "" || yes(p.Shared),
		Unread:      yes(p.ToRead),
		Hash:        p.Hash,
		Meta:        p.Meta,
	}
	if p.Time != "" {
		t, err := ParseDate(p.Time)
		if err != nil {
			return b, fmt.Errorf("post %q: time: %w", p.Href, err)
		}
		b.Time = t
	}
	return b, nil
}

// DecodePosts accepts either a bare array of posts or an object with a
// "posts" array. For the object form every other top-level field is returned
// as metadata.
func DecodePosts(body []byte) ([]Post, map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var posts []Post
		if err := json.Unmarshal(trimmed, &posts); err != nil {
			return nil, nil, fmt.Errorf("decode posts: %w", err)
		}
		return posts, map[string]any{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode posts: %w", err)
	}
	var posts []Post
	if p, ok := raw["posts"]; ok && string(p) != "null" {
		if err := json.Unmarshal(p, &posts); err != nil {
			return nil, nil, fmt.Errorf("decode posts: %w", err)
		}
	}
	meta := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "posts" {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, nil, fmt.Errorf("decode posts meta %q: %w", k, err)
		}
		meta[k] = val
	}
	return posts, meta, nil
}

// DecodeTagCounts decodes a name → count object. Counts may be numbers or
// numeric strings. A tag whose count is neither keeps a count of zero and is
// listed in invalid, sorted by name.
func DecodeTagCounts(body []byte) (counts map[string]int, invalid []string, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode tags: %w", err)
	}
	counts = make(map[string]int, len(raw))
	for name, v := range raw {
		c, ok := parseCount(v)
		if !ok {
			invalid = append(invalid, name)
		}
		counts[name] = c
	}
	sort.Strings(invalid)
	return counts, invalid, nil
}

func parseCount(v json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, false
		}
		n = json.Number(strings.TrimSpace(s))
	}
	c, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, false
	}
	return c, true
}

// DecodeBundles decodes a name → space-separated tags object, optionally
// wrapped in {"bundles": ...}.
func DecodeBundles(body []byte) (map[string][]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode bundles: %w", err)
	}
	if inner, ok := raw["bundles"]; ok && len(raw) == 1 && isObject(inner) {
		raw = nil
		if err := json.Unmarshal(inner, &raw); err != nil {
			return nil, fmt.Errorf("decode bundles: %w", err)
		}
	}
	out := make(map[string][]string, len(raw))
	for name, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("decode bundle %q: %w", name, err)
		}
		out[name] = SplitTags(s)
	}
	return out, nil
}

// SplitTags splits a tag list on whitespace and commas, dropping empties.
func SplitTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func yes(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}
