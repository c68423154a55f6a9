// Package mock serves fake health endpoints whose state changes over time,
// for trying out the dashboard locally.
package mock

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// phase is one state a mock service can be in.
type phase struct {
	name        string
	status      int
	contentType string
	body        string
	delay       time.Duration
}

// phases cycle in order. "text" is healthy through the plain-text wrapping,
// "hanging" outlasts the default probe timeout.
var phases = []phase{
	{name: "healthy", status: http.StatusOK, contentType: "application/json", body: `{"status":"PASS"}`},
	{name: "failing", status: http.StatusServiceUnavailable, contentType: "application/json", body: `{"status":"FAIL"}`},
	{name: "text", status: http.StatusOK, contentType: "text/plain", body: "ON"},
	{name: "hanging", status: http.StatusOK, contentType: "application/json", body: `{"status":"PASS"}`, delay: 15 * time.Second},
}

type serviceState struct {
	phase        int
	nextChangeAt time.Time
}

// Server tracks the phase of every service seen so far.
type Server struct {
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]*serviceState

	now      func() time.Time
	nextFlip func() time.Duration
}

// NewServer returns a Server whose services change phase every 20-60 seconds.
func NewServer(logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		states: make(map[string]*serviceState),
		now:    time.Now,
		nextFlip: func() time.Duration {
			return time.Duration(20+rand.Intn(41)) * time.Second
		},
	}
}

// Handler serves GET /health/{svc}.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health/{svc}", s.handleHealth)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	svc := chi.URLParam(r, "svc")
	p := s.advance(svc)

	// simulate small latency variance
	delay := p.delay + time.Duration(50+rand.Intn(150))*time.Millisecond
	select {
	case <-time.After(delay):
	case <-r.Context().Done():
		return
	}

	w.Header().Set("Content-Type", p.contentType)
	w.WriteHeader(p.status)
	_, _ = w.Write([]byte(p.body))
}

// advance returns the service's current phase, moving it on when due.
func (s *Server) advance(svc string) phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.states[svc]
	if !ok {
		st = &serviceState{nextChangeAt: now.Add(s.nextFlip())}
		s.states[svc] = st
		return phases[st.phase]
	}

	if !now.Before(st.nextChangeAt) {
		from := phases[st.phase].name
		st.phase = (st.phase + 1) % len(phases)
		st.nextChangeAt = now.Add(s.nextFlip())
		s.logger.Info("status change", "service", svc, "from", from, "to", phases[st.phase].name)
	}
	return phases[st.phase]
}
