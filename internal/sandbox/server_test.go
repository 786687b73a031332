package sandbox

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	t     *testing.T
	srv   *httptest.Server
	sb    *Server
	clock *clock
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{t: t, clock: &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}}
	cfg.Now = f.clock.Now
	f.sb = New(cfg)
	f.sb.AddUser("alice", "secret")
	f.srv = httptest.NewServer(f.sb)
	t.Cleanup(f.srv.Close)
	return f
}

// get issues an authenticated request and decodes the JSON reply into out.
func (f *fixture) get(path string, params url.Values, out any) int {
	f.t.Helper()
	return f.getAs("alice", "secret", path, params, out)
}

func (f *fixture) getAs(user, pass, path string, params url.Values, out any) int {
	f.t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/v1/"+path+"?"+params.Encode(), nil)
	require.NoError(f.t, err)
	req.SetBasicAuth(user, pass)
	resp, err := f.srv.Client().Do(req)
	require.NoError(f.t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.ContentLength != 0 {
		require.NoError(f.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) result(path string, params url.Values) string {
	f.t.Helper()
	var r struct {
		ResultCode string `json:"result_code"`
	}
	require.Equal(f.t, http.StatusOK, f.get(path, params, &r))
	return r.ResultCode
}

func TestAuth_RejectsBadCredentials(t *testing.T) {
	f := newFixture(t, Config{})
	assert.Equal(t, http.StatusUnauthorized, f.getAs("alice", "wrong", "posts/update", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, f.getAs("bob", "secret", "posts/update", nil, nil))
	assert.Equal(t, 2, f.sb.Requests())
}

func TestPosts_AddListGetDelete(t *testing.T) {
	f := newFixture(t, Config{})

	assert.Equal(t, "done", f.result("posts/add", url.Values{
		"url": {"https://go.dev/"}, "description": {"Go"}, "extended": {"home"},
		"tags": {"go,lang"}, "shared": {"no"}, "toread": {"yes"},
	}))
	assert.Equal(t, "item already exists", f.result("posts/add", url.Values{"url": {"https://go.dev/"}, "description": {"Go"}}))
	assert.Equal(t, "done", f.result("posts/add", url.Values{"url": {"https://go.dev/"}, "description": {"Go!"}, "tags": {"go"}, "replace": {"yes"}}))

	f.clock.advance(time.Hour)
	assert.Equal(t, "done", f.result("posts/add", url.Values{"url": {"https://example.com/"}, "description": {"Example"}, "tags": {"web"}}))
	assert.Equal(t, "missing description", f.result("posts/add", url.Values{"url": {"https://x.org/"}}))

	var all postsReply
	require.Equal(t, http.StatusOK, f.get("posts/all", url.Values{"meta": {"yes"}}, &all))
	require.Len(t, all.Posts, 2)
	assert.Equal(t, "https://example.com/", all.Posts[0].Href, "newest first")
	assert.Equal(t, "Go!", all.Posts[1].Description)
	assert.Equal(t, "yes", all.Posts[1].Shared, "replace resets omitted flags")
	assert.NotEmpty(t, all.Posts[0].Meta)
	assert.Equal(t, "2024-05-01T13:00:00Z", all.Posts[0].Time)

	var byTag postsReply
	f.get("posts/all", url.Values{"tag": {"go"}}, &byTag)
	require.Len(t, byTag.Posts, 1)
	assert.Equal(t, "https://go.dev/", byTag.Posts[0].Href)

	var paged postsReply
	f.get("posts/all", url.Values{"start": {"1"}, "results": {"1"}}, &paged)
	require.Len(t, paged.Posts, 1)
	assert.Equal(t, 2, paged.Total)

	var ranged postsReply
	f.get("posts/all", url.Values{"fromdt": {"2024-05-01T12:30:00Z"}}, &ranged)
	require.Len(t, ranged.Posts, 1)

	var one postsReply
	f.get("posts/get", url.Values{"url": {"https://go.dev/"}}, &one)
	require.Len(t, one.Posts, 1)
	assert.Equal(t, "go", one.Posts[0].Tags)

	assert.Equal(t, "done", f.result("posts/delete", url.Values{"url": {"https://go.dev/"}}))
	assert.Equal(t, "item not found", f.result("posts/delete", url.Values{"url": {"https://go.dev/"}}))

	var none postsReply
	f.get("posts/get", url.Values{"url": {"https://go.dev/"}}, &none)
	assert.Empty(t, none.Posts)

	assert.Equal(t, http.StatusBadRequest, f.get("posts/all", url.Values{"start": {"x"}}, nil))
}

func TestUpdate_TracksLastChange(t *testing.T) {
	f := newFixture(t, Config{})
	f.clock.advance(2 * time.Minute)
	f.result("posts/add", url.Values{"url": {"https://go.dev/"}, "description": {"Go"}})

	var reply map[string]string
	require.Equal(t, http.StatusOK, f.get("posts/update", nil, &reply))
	assert.Equal(t, "2024-05-01T12:02:00Z", reply["update_time"])
}

func TestTags_CountRenameDelete(t *testing.T) {
	f := newFixture(t, Config{})
	f.result("posts/add", url.Values{"url": {"https://a/"}, "description": {"a"}, "tags": {"go web"}})
	f.result("posts/add", url.Values{"url": {"https://b/"}, "description": {"b"}, "tags": {"go"}})

	var counts map[string]int
	f.get("tags/get", nil, &counts)
	assert.Equal(t, map[string]int{"go": 2, "web": 1}, counts)

	assert.Equal(t, "done", f.result("tags/rename", url.Values{"old": {"go"}, "new": {"golang"}}))
	assert.Equal(t, "done", f.result("tags/delete", url.Values{"tag": {"web"}}))
	assert.Equal(t, "missing tag", f.result("tags/delete", nil))

	counts = nil
	f.get("tags/get", nil, &counts)
	assert.Equal(t, map[string]int{"golang": 2}, counts)
}

func TestBundles(t *testing.T) {
	f := newFixture(t, Config{})
	assert.Equal(t, "done", f.result("tags/bundles/set", url.Values{"bundle": {"lang"}, "tags": {"go rust"}}))
	assert.Equal(t, "missing bundle or tags", f.result("tags/bundles/set", url.Values{"bundle": {"empty"}}))

	var reply map[string]map[string]string
	f.get("tags/bundles/all", nil, &reply)
	assert.Equal(t, map[string]string{"lang": "go rust"}, reply["bundles"])

	assert.Equal(t, "done", f.result("tags/bundles/delete", url.Values{"bundle": {"lang"}}))
	assert.Equal(t, "item not found", f.result("tags/bundles/delete", url.Values{"bundle": {"lang"}}))
}

func TestThrottleSimulation(t *testing.T) {
	f := newFixture(t, Config{MinInterval: time.Second})
	assert.Equal(t, http.StatusOK, f.get("posts/update", nil, nil))
	assert.Equal(t, 999, f.get("posts/update", nil, nil))

	f.clock.advance(2 * time.Second)
	assert.Equal(t, http.StatusOK, f.get("posts/update", nil, nil))
}

func TestFailNext(t *testing.T) {
	f := newFixture(t, Config{})
	f.sb.FailNext("posts/all", http.StatusServiceUnavailable)
	f.sb.FailNext("posts/all", http.StatusOK)

	assert.Equal(t, http.StatusServiceUnavailable, f.get("posts/all", nil, nil))
	assert.Equal(t, http.StatusOK, f.get("posts/all", nil, nil))
	var reply postsReply
	assert.Equal(t, http.StatusOK, f.get("posts/all", nil, &reply))
	assert.Equal(t, "alice", reply.User)
}

func TestUnknownEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	assert.Equal(t, http.StatusNotFound, f.get("posts/recent", nil, nil))
}
