// Package httpapi exposes the HTTP endpoints: account and token handling,
// user listing, conversation history and the chat websocket.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/logging"
	"github.com/dmitrijs2005/chatbook/internal/server/registry"
	"github.com/dmitrijs2005/chatbook/internal/server/router"
	"github.com/dmitrijs2005/chatbook/internal/server/services"
	"github.com/gorilla/websocket"
)

type Options struct {
	WriteTimeout   time.Duration
	MaxFrameBytes  int64
	AllowedOrigins string
}

type Server struct {
	users    *services.UserService
	messages *services.MessageService
	router   *router.Router
	registry registry.Registry
	logger   logging.Logger
	opts     Options
	origins  []string
	upgrader websocket.Upgrader
}

func NewServer(us *services.UserService, ms *services.MessageService, rt *router.Router,
	reg registry.Registry, logger logging.Logger, opts Options) *Server {
	s := &Server{
		users:    us,
		messages: ms,
		router:   rt,
		registry: reg,
		logger:   logger.With("module", "http"),
		opts:     opts,
		origins:  splitOrigins(opts.AllowedOrigins),
	}
	s.upgrader = websocket.Upgrader{
		Subprotocols: []string{bearerSubprotocol},
		CheckOrigin:  s.checkOrigin,
	}
	return s
}

// Handler returns the routed handler wrapped in CORS and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLoginForm)
	mux.HandleFunc("POST /login-json", s.handleLoginJSON)
	mux.HandleFunc("POST /refresh-token", s.handleRefresh)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /users", s.handleUsers)
	mux.HandleFunc("GET /messages", s.handleMessages)
	mux.HandleFunc("GET /ws/chat/{username}", s.handleChat)

	return s.withRequestLog(s.withCORS(mux))
}

func splitOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.originAllowed(origin)
}
