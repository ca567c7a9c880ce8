// Package api serves the extracted writings as a JSON API, with keyword
// search over HTTP and websockets and background snapshot updates.
package api

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/FocuswithJustin/writings/core/corpus"
	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/search"
	"github.com/FocuswithJustin/writings/core/snapshot"
	"github.com/FocuswithJustin/writings/core/visitors"
	"github.com/FocuswithJustin/writings/internal/logging"
	"github.com/FocuswithJustin/writings/internal/server"
	"github.com/FocuswithJustin/writings/internal/update"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	shutdownTimeout = 10 * time.Second
	slowRequest     = 500 * time.Millisecond
)

// Server serves one immutable corpus.
type Server struct {
	cfg     Config
	corpus  *corpus.Corpus
	engine  *search.Engine
	jobs    *JobStore
	hub     *Hub
	limiter *RateLimiter
	update  UpdateFunc
	handler http.Handler
	started time.Time

	ctx  context.Context
	stop context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithUpdater runs update jobs through fn.
func WithUpdater(fn UpdateFunc) Option {
	return func(s *Server) {
		s.update = fn
	}
}

// WithFetcher enables update jobs that fetch documents with f and write
// snapshots to the configured directory.
func WithFetcher(f update.Fetcher) Option {
	return func(s *Server) {
		s.update = func(ctx context.Context, work visitors.Work, dryRun bool) (*update.Report, error) {
			opts := update.Options{Compress: s.cfg.Compress, DryRun: dryRun}
			if s.cfg.ArchiveDir != "" {
				archive, err := snapshot.NewArchive(s.cfg.ArchiveDir)
				if err != nil {
					return nil, err
				}
				opts.Archive = archive
			}
			return update.Run(ctx, work, f, s.cfg.SnapshotDir, opts)
		}
	}
}

// New creates a server over c. A nil engine searches c without an index.
// The server's background work runs until Close.
func New(cfg Config, c *corpus.Corpus, engine *search.Engine, opts ...Option) (*Server, error) {
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return nil, errors.Wrap(err, "invalid auth config")
	}
	if engine == nil {
		engine = search.New(c)
	}
	defaults := DefaultWebSocketConfig()
	if cfg.WebSocket.MaxMessageRate <= 0 {
		cfg.WebSocket.MaxMessageRate = defaults.MaxMessageRate
	}
	if cfg.WebSocket.MaxMessageSize <= 0 {
		cfg.WebSocket.MaxMessageSize = defaults.MaxMessageSize
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		corpus:  c,
		engine:  engine,
		jobs:    NewJobStore(),
		hub:     NewHub(),
		started: time.Now(),
		ctx:     ctx,
		stop:    stop,
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.hub.Run(ctx)
	if cfg.RateLimit.RequestsPerMinute > 0 {
		s.limiter = NewRateLimiter(ctx, cfg.RateLimit)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the websocket hub that carries update progress.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close cancels running jobs and disconnects websocket clients.
func (s *Server) Close() {
	s.jobs.CancelAll()
	s.stop()
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.ServerStartup("rest_api", "http", port(s.cfg.Addr),
		"addr", s.cfg.Addr,
		"records", s.corpus.Len(),
		"auth", s.cfg.Auth.Enabled,
		"rate_limit", s.cfg.RateLimit.RequestsPerMinute)
	if !s.cfg.Auth.Enabled {
		logging.Warn("authentication disabled", "hint", APIKeyHint())
	}

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down", "timeout", shutdownTimeout.String())
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func port(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(p)
	return n
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(logging.CombinedMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(server.SlowRequests(slowRequest))
	r.Use(server.SecurityHeaders(server.APICSPConfig()))
	r.Use(server.CORS(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}))
	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}
	r.Use(AuthMiddleware(s.cfg.Auth))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/hidden-words", func(r chi.Router) {
		r.Get("/", s.handleHiddenWords)
		r.Get("/{kind}", s.handleHiddenWordsByKind)
		r.Get("/{kind}/{number}", s.handleHiddenWord)
	})
	r.Route("/prayers", func(r chi.Router) {
		r.Get("/", s.handlePrayers)
		r.Get("/{kind}", s.handlePrayersByKind)
		r.Get("/{kind}/*", s.handlePrayerSection)
	})
	r.Route("/gleanings", func(r chi.Router) {
		r.Get("/", s.handleGleanings)
		r.Get("/{number}", s.handleGleaningSelection)
		r.Get("/{number}/{paragraph}", s.handleGleaning)
	})
	r.Route("/meditations", func(r chi.Router) {
		r.Get("/", s.handleMeditations)
		r.Get("/{number}", s.handleMeditationSelection)
		r.Get("/{number}/{paragraph}", s.handleMeditation)
	})
	r.Route("/cdb", func(r chi.Router) {
		r.Get("/", s.handleCDB)
		r.Get("/works", s.handleCDBWorks)
		r.Get("/{work}", s.handleCDBWork)
	})
	r.Get("/ref/{refID}", s.handleRef)
	r.Get("/lookup/{reference}", s.handleLookup)
	r.Get("/search", s.handleSearch)
	r.Get("/ws/search", s.handleSearchSocket)

	r.Route("/updates", func(r chi.Router) {
		r.Get("/", s.handleListUpdates)
		r.Post("/", s.handleCreateUpdate)
		r.Get("/{id}", s.handleGetUpdate)
		r.Delete("/{id}", s.handleCancelUpdate)
	})
	return r
}

// pathParam returns a decoded URL parameter.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
