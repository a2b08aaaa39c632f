// Package gateway exposes the agent core over HTTP and WebSocket: one
// endpoint per module plus a chat socket that drives the full
// conversation loop.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/knowbase/knowbase/internal/agent"
	"github.com/knowbase/knowbase/internal/config"
	"github.com/knowbase/knowbase/internal/logging"
	"github.com/knowbase/knowbase/internal/session"
)

// Deps are the collaborators the gateway serves.
type Deps struct {
	Router    *agent.Router
	Intake    *agent.Intake
	Lifecycle *agent.Lifecycle
	Chat      *agent.Conversation
	Sessions  session.Store
}

// Server is the knowbase gateway HTTP + WebSocket server.
type Server struct {
	cfg  config.Config
	log  *logging.Logger
	deps Deps

	token      string
	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a gateway server. The bearer token resolves from config
// first, then the KNOWBASE_GATEWAY_TOKEN environment variable; when
// both are empty the gateway runs unauthenticated.
func New(cfg config.Config, log *logging.Logger, deps Deps) *Server {
	return &Server{
		cfg:       cfg,
		log:       log.Sub("gateway"),
		deps:      deps,
		token:     ResolveToken(cfg.Gateway.Auth),
		startedAt: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The chat socket serves non-browser clients; browsers
			// are expected to go through the HTTP endpoints.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the chi router for the gateway.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/v1/turn", s.handleTurn)
		r.Post("/v1/intake", s.handleIntake)
		r.Post("/v1/lifecycle", s.handleLifecycle)
		r.Get("/v1/chat", s.handleChat)
	})

	return r
}

// logRequests logs each HTTP request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("http request")
	})
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.token == "" && s.cfg.Gateway.Bind != "loopback" {
		s.log.Warn().Msg("no gateway token configured on a non-loopback bind")
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Bool("auth", s.token != "").
		Msg("gateway server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
