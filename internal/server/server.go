package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jpalmerr/healthboard/internal/panels"
	"github.com/jpalmerr/healthboard/internal/poller"
	"github.com/jpalmerr/healthboard/internal/proxy"
	"github.com/jpalmerr/healthboard/internal/store"
)

const (
	// streamWriteTimeout bounds a single SSE or WebSocket write.
	// Must be <= shutdownTimeout so streaming handlers exit during shutdown.
	streamWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Service Health Dashboard"

	// titlePlaceholder is the marker in index.html replaced with the title.
	titlePlaceholder = "{{.Title}}"

	indexFile = "index.html"
)

// Controller is the scheduler surface exposed over HTTP.
type Controller interface {
	TriggerNow(ctx context.Context) (poller.Report, error)
	Pause() error
	Resume() error
	State() poller.State
}

// Config wires the collaborators of a [Server]. Proxy, Controller and Panels
// are optional; their routes are only mounted when set.
type Config struct {
	Store      store.Store
	Controller Controller
	Proxy      http.Handler
	Panels     *panels.Catalog

	// Port is the TCP port to listen on. Zero picks a free port.
	Port int

	// Static is the root of the dashboard files. It must contain index.html
	// for "/" to render.
	Static fs.FS
	Title  string
}

// Server serves the dashboard, the health proxy and the board API.
type Server struct {
	store      store.Store
	controller Controller
	proxy      http.Handler
	panels     *panels.Catalog
	port       int
	static     fs.FS
	title      string
	logger     *slog.Logger
	viewers    *viewerSet

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	now        func() time.Time
}

// NewServer creates a new HTTP [Server].
//
// The server is not listening until [Server.Listen] or [Server.Start] is called.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	return &Server{
		store:      cfg.Store,
		controller: cfg.Controller,
		proxy:      cfg.Proxy,
		panels:     cfg.Panels,
		port:       cfg.Port,
		static:     cfg.Static,
		title:      cfg.Title,
		logger:     logger,
		viewers:    newViewerSet(cfg.Controller, logger),
		now:        time.Now,
	}
}

// Routes builds the router:
//
//	GET  /                         dashboard page
//	GET  /api/{endpointID}         health proxy
//	GET  /board/status             latest snapshot
//	GET  /board/events             Server-Sent Events stream of snapshots
//	GET  /board/ws                 WebSocket stream of snapshots
//	POST /board/refresh            run a cycle now
//	POST /board/pause              pause polling
//	POST /board/resume             resume polling
//	POST /board/visibility         report a dashboard page shown or hidden
//	GET  /board/panels/jobs        scheduled-jobs panel
//	GET  /board/panels/replication replication panel
//	GET  /*                        static files
//
// Cross-origin requests get permissive CORS headers, proxied responses always
// carry them, and any OPTIONS request is answered 200 with no body.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(answerOptions)

	if s.proxy != nil {
		r.Get("/api/{"+proxy.URLParam+"}", s.proxy.ServeHTTP)
	}

	r.Route("/board", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleSSE)
		r.Get("/ws", s.handleWebSocket)

		if s.controller != nil {
			r.Post("/refresh", s.handleRefresh)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/visibility", s.handleVisibility)
		}

		if s.panels != nil {
			r.Get("/panels/jobs", s.handleJobsPanel)
			r.Get("/panels/replication", s.handleReplicationPanel)
		}
	})

	r.Get("/", s.handleDashboard)
	r.Get("/"+indexFile, s.handleDashboard)
	r.Get("/*", s.handleStatic)

	return r
}

// answerOptions replies 200 to OPTIONS requests that are not CORS preflights.
// Preflights are answered by the cors middleware before reaching here.
func answerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			proxy.SetCORSHeaders(w.Header())
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Listen binds the configured port. It is separate from [Server.Serve] so
// that a port conflict is reported before anything else starts.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before [Server.Listen].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve serves on the bound listener until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	if ln == nil {
		s.mu.Unlock()
		return errors.New("server is not listening")
	}
	s.httpServer = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so streaming handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Start binds the port and serves in a background goroutine until ctx is
// cancelled. It returns an error only if the port cannot be bound.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	go func() {
		if err := s.Serve(ctx); err != nil {
			s.logger.Error("http server error", "error", err)
		}
	}()
	return nil
}

// handleDashboard serves index.html with the title substituted.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.static == nil {
		http.Error(w, "Dashboard not found", http.StatusNotFound)
		return
	}

	content, err := fs.ReadFile(s.static, indexFile)
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusNotFound)
		return
	}

	// escape to keep a configured title from injecting markup
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleStatic serves files below the static root. Directories are never
// listed.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.static == nil {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/")
	if name == "" || !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}

	info, err := fs.Stat(s.static, name)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	http.ServeFileFS(w, r, s.static, name)
}

// handleStatus returns the latest snapshot, or 204 before the first cycle.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.controller != nil {
		w.Header().Set("X-Scheduler-State", string(s.controller.State()))
	}

	snapshot, ok := s.store.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	report, err := s.controller.TriggerNow(r.Context())
	if err != nil {
		s.writeControlError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, store.FromReport(report))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Pause(); err != nil {
		s.writeControlError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stateBody{State: s.controller.State()})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Resume(); err != nil {
		s.writeControlError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stateBody{State: s.controller.State()})
}

type visibilityRequest struct {
	Viewer  string `json:"viewer"`
	Visible bool   `json:"visible"`
}

func (r visibilityRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Viewer, validation.Required.Error("viewer is required")),
	)
}

type visibilityBody struct {
	State   poller.State `json:"state"`
	Viewers int          `json:"viewers"`
	Visible int          `json:"visible"`
	Error   string       `json:"error,omitempty"`
}

// handleVisibility records whether a dashboard page is shown. Polling pauses
// only while every attached page is hidden.
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, visibilityBody{State: s.controller.State(), Error: "invalid JSON body"})
		return
	}
	if err := req.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, visibilityBody{State: s.controller.State(), Error: err.Error()})
		return
	}

	status := http.StatusOK
	body := visibilityBody{}
	if err := s.viewers.setVisible(req.Viewer, req.Visible); err != nil {
		status, body.Error = http.StatusNotFound, err.Error()
	}
	body.State = s.controller.State()
	body.Viewers, body.Visible = s.viewers.counts()
	s.writeJSON(w, status, body)
}

func (s *Server) handleJobsPanel(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.panels.Jobs(s.now()))
}

func (s *Server) handleReplicationPanel(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.panels.Replication(s.now()))
}

type stateBody struct {
	State poller.State `json:"state"`
	Error string       `json:"error,omitempty"`
}

// writeControlError maps scheduler errors to HTTP statuses. Lifecycle
// conflicts answer 409; a refresh abandoned by the client answers 503.
func (s *Server) writeControlError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, poller.ErrNotRunning),
		errors.Is(err, poller.ErrStopped),
		errors.Is(err, poller.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, stateBody{State: s.controller.State(), Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
