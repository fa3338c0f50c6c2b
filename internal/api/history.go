package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/tanknav/internal/db"
	"github.com/banshee-data/tanknav/internal/httputil"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// HistoryStore serves the persisted telemetry of the current run.
type HistoryStore interface {
	RecentCommands(limit int) ([]db.CommandRow, error)
	Positions(start, end time.Time) ([]db.PositionRow, error)
}

// SetHistory enables the /api/history routes. Without a store they
// answer 404.
func (s *Server) SetHistory(h HistoryStore) { s.history = h }

func (s *Server) handleCommandHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "telemetry persistence is disabled")
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	rows, err := s.history.RecentCommands(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if rows == nil {
		rows = []db.CommandRow{}
	}
	httputil.WriteStatusOK(w, map[string]interface{}{"commands": rows})
}

// handlePositionHistory returns positions between since and until, both
// unix seconds. since defaults to the epoch and until to now.
func (s *Server) handlePositionHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.history == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "telemetry persistence is disabled")
		return
	}
	start, err := unixParam(r, "since", time.Unix(0, 0))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	end, err := unixParam(r, "until", s.clock.Now())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	rows, err := s.history.Positions(start, end)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if rows == nil {
		rows = []db.PositionRow{}
	}
	httputil.WriteStatusOK(w, map[string]interface{}{"positions": rows})
}

func unixParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be unix seconds: %w", name, err)
	}
	return time.Unix(0, int64(secs*1e9)).UTC(), nil
}
