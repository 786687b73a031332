// Package sandbox is an in-memory stand-in for the bookmark service. It
// speaks the same JSON over the same GET endpoints, checks HTTP Basic
// credentials and can simulate rate limiting, so clients can be exercised
// without network access or a real account.
package sandbox

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/internal/sandbox/recovery"
	"github.com/delicious-go/delicious/internal/sandbox/respond"
)

// DefaultPrefix is the path prefix the API is mounted under.
const DefaultPrefix = "/v1"

// StatusThrottled is the non-standard status sent to rate-limited clients.
const StatusThrottled = respond.StatusThrottled

// Config configures a Server.
type Config struct {
	// Prefix is the mount point, DefaultPrefix when empty.
	Prefix string
	// MinInterval, when positive, answers requests arriving sooner than this
	// after the same user's previous request with HTTP 999.
	MinInterval time.Duration
	// Now replaces time.Now for deterministic timestamps.
	Now func() time.Time
}

// Server implements http.Handler.
type Server struct {
	cfg    Config
	store  *store
	router *mux.Router

	mu       sync.Mutex
	lastSeen map[string]time.Time
	failures map[string][]int
	requests int
}

// New builds a Server with no accounts.
func New(cfg Config) *Server {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	cfg.Prefix = "/" + strings.Trim(cfg.Prefix, "/")
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Server{
		cfg:      cfg,
		store:    newStore(cfg.Now),
		lastSeen: make(map[string]time.Time),
		failures: make(map[string][]int),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.WriteError(w, http.StatusNotFound, "no such endpoint: "+r.URL.Path)
	})

	api := router.PathPrefix(s.cfg.Prefix).Subrouter()
	api.Use(s.countRequests, s.authenticate, s.throttle, s.injectFailures)

	api.HandleFunc("/posts/update", s.postsUpdate).Methods(http.MethodGet)
	api.HandleFunc("/posts/all", s.postsAll).Methods(http.MethodGet)
	api.HandleFunc("/posts/get", s.postsGet).Methods(http.MethodGet)
	api.HandleFunc("/posts/add", s.postsAdd).Methods(http.MethodGet)
	api.HandleFunc("/posts/delete", s.postsDelete).Methods(http.MethodGet)

	api.HandleFunc("/tags/get", s.tagsGet).Methods(http.MethodGet)
	api.HandleFunc("/tags/delete", s.tagsDelete).Methods(http.MethodGet)
	api.HandleFunc("/tags/rename", s.tagsRename).Methods(http.MethodGet)

	api.HandleFunc("/tags/bundles/all", s.bundlesAll).Methods(http.MethodGet)
	api.HandleFunc("/tags/bundles/set", s.bundlesSet).Methods(http.MethodGet)
	api.HandleFunc("/tags/bundles/delete", s.bundlesDelete).Methods(http.MethodGet)
	return router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Prefix returns the mount point, e.g. "/v1".
func (s *Server) Prefix() string { return s.cfg.Prefix }

// AddUser creates an empty account, replacing any account of that name.
func (s *Server) AddUser(username, password string) {
	s.store.addUser(username, password)
}

// FailNext makes the next request to endpoint (e.g. "posts/all") answer
// with status instead of being served. A 2xx status is sent with an empty
// body. Calls queue up in order.
func (s *Server) FailNext(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.Trim(endpoint, "/")
	s.failures[key] = append(s.failures[key], status)
}

// Requests returns the number of API requests received, including rejected ones.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// ------------------------- middleware -------------------------

type ctxKey struct{}

func withUser(r *http.Request, user string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, user)
}

func userFrom(r *http.Request) string {
	u, _ := r.Context().Value(ctxKey{}).(string)
	return u
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		log.Debug().Str("path", r.URL.Path).Str("query", r.URL.RawQuery).Msg("sandbox: request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.store.authenticate(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="del.icio.us API"`)
			respond.WriteError(w, http.StatusUnauthorized, "access denied")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, user)))
	})
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.MinInterval > 0 {
			user := userFrom(r)
			now := s.cfg.Now()
			s.mu.Lock()
			last, seen := s.lastSeen[user]
			s.lastSeen[user] = now
			s.mu.Unlock()
			if seen && now.Sub(last) < s.cfg.MinInterval {
				respond.WriteError(w, StatusThrottled, "too many requests")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, s.cfg.Prefix), "/")
		s.mu.Lock()
		queue := s.failures[key]
		var status int
		if len(queue) > 0 {
			status, s.failures[key] = queue[0], queue[1:]
		}
		s.mu.Unlock()
		switch {
		case status == 0:
		case status < 300:
			// A success status with no body simulates an empty reply.
			w.WriteHeader(status)
			return
		default:
			respond.WriteError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}
