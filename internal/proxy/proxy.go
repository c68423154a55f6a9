// Package proxy forwards dashboard requests to configured health endpoints so
// that browsers never make cross-origin calls themselves.
//
// Only registered endpoints can be reached: the path carries an endpoint id,
// never a URL, so the proxy cannot be used to fetch arbitrary addresses.
package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jpalmerr/healthboard/internal/poller"
	"github.com/jpalmerr/healthboard/internal/registry"
)

// URLParam is the chi route parameter holding the endpoint id.
const URLParam = "endpointID"

// CORS values applied to every proxied response and to preflight replies.
const (
	AllowOrigin  = "*"
	AllowMethods = "GET, OPTIONS"
	AllowHeaders = "Content-Type"
)

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// headers never copied from the upstream response
var hopByHop = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Content-Length":      {},
}

// Handler serves GET /api/{endpointID}.
type Handler struct {
	registry *registry.Registry
	client   *poller.Client
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler returns a [Handler] resolving ids against reg.
func NewHandler(reg *registry.Registry, client *poller.Client, logger *slog.Logger) *Handler {
	return &Handler{
		registry: reg,
		client:   client,
		logger:   logger,
		now:      time.Now,
	}
}

// SetCORSHeaders writes the permissive CORS headers to h.
func SetCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", AllowOrigin)
	h.Set("Access-Control-Allow-Methods", AllowMethods)
	h.Set("Access-Control-Allow-Headers", AllowHeaders)
}

// ServeHTTP forwards the request to the endpoint's configured URL.
//
// Status, body and headers are relayed unmodified except that upstream
// Access-Control-* and hop-by-hop headers are replaced. Transport failures
// answer 503 and timeouts 504, both with a JSON error body.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, URLParam)

	ep, ok := h.registry.Lookup(id)
	if !ok {
		SetCORSHeaders(w.Header())
		h.writeError(w, http.StatusNotFound, "Endpoint not found", fmt.Sprintf("no endpoint with id %q", id), "")
		return
	}

	resp := h.client.Fetch(r.Context(), ep.URL, ep.Timeout)

	if resp.Error != nil {
		SetCORSHeaders(w.Header())
		w.Header().Set("X-Response-Time", responseTime(resp.Latency))

		requestID := uuid.NewString()
		if resp.TimedOut {
			h.logger.Warn("proxy timeout",
				"endpoint", ep.ID,
				"request_id", requestID,
				"timeout", ep.Timeout.String(),
			)
			h.writeError(w, http.StatusGatewayTimeout, "Gateway Timeout", "Request timeout", requestID)
			return
		}

		h.logger.Warn("proxy upstream unavailable",
			"endpoint", ep.ID,
			"request_id", requestID,
			"error", resp.Error,
		)
		h.writeError(w, http.StatusServiceUnavailable, "Service Unavailable", resp.Error.Error(), requestID)
		return
	}

	copyHeaders(w.Header(), resp.Header)
	SetCORSHeaders(w.Header())
	w.Header().Set("X-Response-Time", responseTime(resp.Latency))

	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		h.logger.Debug("proxy write failed", "endpoint", ep.ID, "error", err)
	}

	h.logger.Debug("proxied",
		"endpoint", ep.ID,
		"status", resp.StatusCode,
		"latency_ms", resp.Latency.Milliseconds(),
	)
}

// copyHeaders copies upstream headers except CORS and hop-by-hop ones.
func copyHeaders(dst, src http.Header) {
	for k, values := range src {
		if _, skip := hopByHop[k]; skip {
			continue
		}
		if strings.HasPrefix(k, "Access-Control-") {
			continue
		}
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

func responseTime(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, title, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error:     title,
		Message:   message,
		Timestamp: h.now().UTC().Format(timestampLayout),
		RequestID: requestID,
	})
}
