package api

import (
	"fmt"
	"net/http"

	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/httputil"
	"github.com/banshee-data/tanknav/internal/monitoring"
)

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.nav.Shared().Snapshot(s.clock.Now()))
}

// handleConfig reads the current tuning on GET and applies a partial
// tuning on POST. Out-of-range values are clamped, not rejected.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.nav.Shared().Config())
	case http.MethodPost:
		t := config.EmptyTuningConfig()
		if err := decodeBody(w, r, t); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		shared := s.nav.Shared()
		shared.ApplyTuning(t)
		cfg := shared.Config()
		if s.tuning != nil {
			if _, err := s.tuning.SaveTuningSnapshot(s.clock.Now(), cfg); err != nil {
				monitoring.Logf("[api] failed to save tuning snapshot: %v", err)
			}
		}
		httputil.WriteJSONOK(w, cfg)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req struct {
		Paused *bool `json:"paused"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Paused == nil {
		httputil.BadRequest(w, "missing paused")
		return
	}
	s.nav.SetPaused(*req.Paused)
	httputil.WriteStatusOK(w, map[string]interface{}{"paused": *req.Paused})
}

func (s *Server) handleObstacleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.nav.ObstacleStats())
}

func (s *Server) handleDetour(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	path, err := s.nav.PlanDetour()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteStatusOK(w, map[string]interface{}{"path": path})
}

func (s *Server) handleTactical(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	wp, err := s.nav.TacticalWaypoint()
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("tactical waypoint: %v", err))
		return
	}
	httputil.WriteStatusOK(w, map[string]interface{}{"waypoint": wp})
}
