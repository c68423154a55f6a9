package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/healthboard/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		return host == strings.ToLower(strings.TrimSpace(u.Host))
	},
}

// handleSSE streams snapshots via Server-Sent Events, starting with the
// latest one.
//
// Writes carry a deadline so a stalled client cannot pin the handler: without
// one a blocked write would never observe shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// some ResponseWriters (e.g. httptest.ResponseRecorder) have no deadlines
	deadlinesSupported := true

	writeAndFlush := func(snapshot store.Snapshot) error {
		data, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	viewerID := s.viewers.join(viewerParams(r))
	defer s.viewers.leave(viewerID)

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	if snapshot, ok := s.store.Latest(); ok {
		if err := writeAndFlush(snapshot); err != nil {
			return
		}
	} else if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			if err := writeAndFlush(snapshot); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and, via BaseContext, on shutdown
			return
		}
	}
}

// handleWebSocket streams snapshots as JSON text messages, starting with the
// latest one. Client messages are read and discarded so that a close from the
// peer is noticed.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	viewerID := s.viewers.join(viewerParams(r))
	defer s.viewers.leave(viewerID)

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	if snapshot, ok := s.store.Latest(); ok {
		if err := writeSnapshot(conn, snapshot); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, snapshot); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// viewerParams reads the page id and initial visibility from the stream URL,
// e.g. /board/events?viewer=abc&visible=false. Visibility defaults to true.
func viewerParams(r *http.Request) (string, bool) {
	q := r.URL.Query()
	visible, err := strconv.ParseBool(q.Get("visible"))
	if err != nil {
		visible = true
	}
	return q.Get("viewer"), visible
}

func writeSnapshot(conn *websocket.Conn, snapshot store.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(snapshot)
}
