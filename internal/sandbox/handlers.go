package sandbox

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/delicious-go/delicious/internal/sandbox/respond"
)

const dateLayout = "2006-01-02T15:04:05Z"

// wirePost is a bookmark as the service encodes it.
type wirePost struct {
	Href        string `json:"href"`
	Description string `json:"description"`
	Extended    string `json:"extended"`
	Tags        string `json:"tags"`
	Time        string `json:"time"`
	Shared      string `json:"shared"`
	ToRead      string `json:"toread"`
	Hash        string `json:"hash"`
	Meta        string `json:"meta,omitempty"`
}

type postsReply struct {
	User  string     `json:"user"`
	Tag   string     `json:"tag,omitempty"`
	Date  string     `json:"dt,omitempty"`
	Total int        `json:"total"`
	Posts []wirePost `json:"posts"`
}

func toWire(p post, withMeta bool) wirePost {
	w := wirePost{
		Href:        p.URL,
		Description: p.Title,
		Extended:    p.Notes,
		Tags:        strings.Join(p.Tags, " "),
		Time:        p.Time.UTC().Format(dateLayout),
		Shared:      yesNo(p.Shared),
		ToRead:      yesNo(p.ToRead),
		Hash:        md5Hex(p.URL),
	}
	if withMeta {
		w.Meta = md5Hex(p.Title + "\x00" + p.Notes + "\x00" + w.Tags + "\x00" + w.Shared + w.ToRead)
	}
	return w
}

// ------------------------- posts -------------------------

func (s *Server) postsUpdate(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"update_time": s.store.lastUpdate(userFrom(r)).Format(dateLayout),
	})
}

func (s *Server) postsAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := postFilter{Tag: q.Get("tag")}
	var err error
	if f.Start, err = intParam(q.Get("start")); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	if f.Count, err = intParam(q.Get("results")); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "results: "+err.Error())
		return
	}
	if f.From, err = dateParam(q.Get("fromdt")); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "fromdt: "+err.Error())
		return
	}
	if f.To, err = dateParam(q.Get("todt")); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "todt: "+err.Error())
		return
	}
	withMeta := q.Get("meta") == "yes"

	user := userFrom(r)
	posts, total := s.store.listPosts(user, f)
	reply := postsReply{User: user, Tag: f.Tag, Total: total, Posts: make([]wirePost, 0, len(posts))}
	for _, p := range posts {
		reply.Posts = append(reply.Posts, toWire(p, withMeta))
	}
	respond.WriteJSON(w, http.StatusOK, reply)
}

func (s *Server) postsGet(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	user := userFrom(r)
	reply := postsReply{User: user, Date: s.cfg.Now().UTC().Format(dateLayout), Posts: []wirePost{}}
	if p, ok := s.store.getPost(user, url); ok {
		reply.Posts = append(reply.Posts, toWire(p, r.URL.Query().Get("meta") == "yes"))
		reply.Total = 1
	}
	respond.WriteJSON(w, http.StatusOK, reply)
}

func (s *Server) postsAdd(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := post{
		URL:    q.Get("url"),
		Title:  q.Get("description"),
		Notes:  q.Get("extended"),
		Tags:   splitTags(q.Get("tags")),
		Shared: q.Get("shared") != "no",
		ToRead: q.Get("toread") == "yes",
	}
	switch {
	case p.URL == "":
		respond.WriteResult(w, "missing url")
	case p.Title == "":
		respond.WriteResult(w, "missing description")
	default:
		respond.WriteResult(w, s.store.addPost(userFrom(r), p, q.Get("replace") == "yes"))
	}
}

func (s *Server) postsDelete(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		respond.WriteResult(w, "missing url")
		return
	}
	respond.WriteResult(w, s.store.deletePost(userFrom(r), url))
}

// ------------------------- tags -------------------------

func (s *Server) tagsGet(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, s.store.tagCounts(userFrom(r)))
}

func (s *Server) tagsDelete(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		respond.WriteResult(w, "missing tag")
		return
	}
	s.store.deleteTag(userFrom(r), tag)
	respond.WriteDone(w)
}

func (s *Server) tagsRename(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	oldTag, newTag := q.Get("old"), q.Get("new")
	if oldTag == "" || newTag == "" {
		respond.WriteResult(w, "missing old or new tag")
		return
	}
	s.store.renameTag(userFrom(r), oldTag, newTag)
	respond.WriteDone(w)
}

// ------------------------- bundles -------------------------

func (s *Server) bundlesAll(w http.ResponseWriter, r *http.Request) {
	raw := s.store.bundles(userFrom(r))
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make(map[string]string, len(raw))
	for _, name := range names {
		out[name] = strings.Join(raw[name], " ")
	}
	respond.WriteJSON(w, http.StatusOK, map[string]map[string]string{"bundles": out})
}

func (s *Server) bundlesSet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name, tags := q.Get("bundle"), splitTags(q.Get("tags"))
	if name == "" || len(tags) == 0 {
		respond.WriteResult(w, "missing bundle or tags")
		return
	}
	s.store.setBundle(userFrom(r), name, tags)
	respond.WriteDone(w)
}

func (s *Server) bundlesDelete(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("bundle")
	if name == "" {
		respond.WriteResult(w, "missing bundle")
		return
	}
	respond.WriteResult(w, s.store.deleteBundle(userFrom(r), name))
}

// ------------------------- helpers -------------------------

func splitTags(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func dateParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
