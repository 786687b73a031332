package sandbox

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Result codes the sandbox answers writes with.
const (
	resultDone          = "done"
	resultNotFound      = "item not found"
	resultAlreadyExists = "item already exists"
)

type post struct {
	URL    string
	Title  string
	Notes  string
	Tags   []string
	Shared bool
	ToRead bool
	Time   time.Time
}

type account struct {
	password string
	posts    map[string]*post
	bundles  map[string][]string
	updated  time.Time
}

// postFilter mirrors the posts/all query parameters.
type postFilter struct {
	Tag   string
	Start int
	Count int
	From  time.Time
	To    time.Time
}

// store is the in-memory state of every sandbox account.
type store struct {
	mu       sync.Mutex
	now      func() time.Time
	accounts map[string]*account
}

func newStore(now func() time.Time) *store {
	return &store{now: now, accounts: make(map[string]*account)}
}

func (s *store) stamp() time.Time { return s.now().UTC().Truncate(time.Second) }

func (s *store) addUser(user, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user] = &account{
		password: password,
		posts:    make(map[string]*post),
		bundles:  make(map[string][]string),
		updated:  s.stamp(),
	}
}

func (s *store) authenticate(user, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[user]
	return ok && a.password == password
}

// account must be called with mu held; the caller has authenticated user.
func (s *store) account(user string) *account { return s.accounts[user] }

func (s *store) touch(a *account) { a.updated = s.stamp() }

func (s *store) lastUpdate(user string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account(user).updated
}

// listPosts returns matching posts newest first, paged by Start/Count, and
// the number of matches before paging.
func (s *store) listPosts(user string, f postFilter) ([]post, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []post
	for _, p := range s.account(user).posts {
		if f.Tag != "" && !hasTag(p.Tags, f.Tag) {
			continue
		}
		if !f.From.IsZero() && p.Time.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && p.Time.After(f.To) {
			continue
		}
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.After(out[j].Time)
		}
		return out[i].URL < out[j].URL
	})

	total := len(out)
	if f.Start >= len(out) {
		return nil, total
	}
	out = out[f.Start:]
	if f.Count > 0 && f.Count < len(out) {
		out = out[:f.Count]
	}
	return out, total
}

func (s *store) getPost(user, url string) (post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.account(user).posts[url]
	if !ok {
		return post{}, false
	}
	return clonePost(p), true
}

func (s *store) addPost(user string, p post, replace bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(user)
	if _, exists := a.posts[p.URL]; exists && !replace {
		return resultAlreadyExists
	}
	p.Time = s.stamp()
	a.posts[p.URL] = &p
	s.touch(a)
	return resultDone
}

func (s *store) deletePost(user, url string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(user)
	if _, ok := a.posts[url]; !ok {
		return resultNotFound
	}
	delete(a.posts, url)
	s.touch(a)
	return resultDone
}

func (s *store) tagCounts(user string) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, p := range s.account(user).posts {
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	return counts
}

func (s *store) deleteTag(user, tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(user)
	for _, p := range a.posts {
		p.Tags = removeTag(p.Tags, tag)
	}
	s.touch(a)
}

func (s *store) renameTag(user, oldTag, newTag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(user)
	for _, p := range a.posts {
		if !hasTag(p.Tags, oldTag) {
			continue
		}
		p.Tags = removeTag(p.Tags, oldTag)
		if !hasTag(p.Tags, newTag) {
			p.Tags = append(p.Tags, newTag)
		}
	}
	s.touch(a)
}

func (s *store) bundles(user string) map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string)
	for name, tags := range s.account(user).bundles {
		out[name] = append([]string(nil), tags...)
	}
	return out
}

func (s *store) setBundle(user, name string, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(user)
	a.bundles[name] = append([]string(nil), tags...)
	s.touch(a)
}

func (s *store) deleteBundle(user, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(user)
	if _, ok := a.bundles[name]; !ok {
		return resultNotFound
	}
	delete(a.bundles, name)
	s.touch(a)
	return resultDone
}

func clonePost(p *post) post {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	return c
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func removeTag(tags []string, tag string) []string {
	out := tags[:0]
	for _, t := range tags {
		if !strings.EqualFold(t, tag) {
			out = append(out, t)
		}
	}
	return out
}
