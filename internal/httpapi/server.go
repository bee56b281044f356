// Package httpapi implements the read-only metrics/logs HTTP surface,
// routed the same way _examples/matgreaves-rig/server/server.go routes its
// own API: a single http.ServeMux with Go 1.22 pattern methods, and
// writeJSON/writeError helpers of the same shape.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tqwewe/channels-console/internal/collector"
)

// Server serves GET /metrics and GET /logs/{id} from a Collector's current
// state. It holds no state of its own beyond the collector reference.
type Server struct {
	mux *http.ServeMux
	col *collector.Collector
}

// New creates a Server backed by col and registers its routes.
func New(col *collector.Collector) *Server {
	s := &Server{
		mux: http.NewServeMux(),
		col: col,
	}
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)
	s.mux.HandleFunc("GET /logs/{id}", s.handleLogs)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleMetrics handles GET /metrics: a sorted snapshot of every
// instrumented channel's stats.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.col.Snapshot())
}

// handleLogs handles GET /logs/{id}: the sent/received log rings for one
// channel. Missing id -> 404; non-numeric id -> 400.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id: "+raw)
		return
	}

	logs, ok := s.col.Logs(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no such channel")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
