package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/banshee-data/tanknav/internal/httputil"
	"github.com/banshee-data/tanknav/internal/nav"
)

var errMissingBody = errors.New("request body is required")

// decodeBody decodes a bounded JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errMissingBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// coordinate accepts either "x,y,z" or {"x":..,"y":..,"z":..}.
type coordinate struct {
	X, Y, Z float64
}

func (c *coordinate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		x, y, z, err := nav.ParseTriple(s)
		if err != nil {
			return err
		}
		*c = coordinate{x, y, z}
		return nil
	}
	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("%w: coordinate must be \"x,y,z\" or an object", nav.ErrValidation)
	}
	if obj.X == nil || obj.Y == nil || obj.Z == nil {
		return fmt.Errorf("%w: coordinate requires x, y and z", nav.ErrValidation)
	}
	*c = coordinate{*obj.X, *obj.Y, *obj.Z}
	return nil
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	s.nav.Init()
	httputil.WriteStatusOK(w, map[string]interface{}{"message": "Simulation initialized"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var p nav.SensorPayload
	if err := decodeBody(w, r, &p); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	res, err := s.nav.IngestSensors(p)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Failed to update info: %v", err))
		return
	}
	fields := map[string]interface{}{}
	if res.Position != nil {
		fields["position"] = res.Position
	}
	if res.Tactical != nil {
		fields["tactical"] = res.Tactical
	}
	httputil.WriteStatusOK(w, fields)
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req struct {
		Position *coordinate `json:"position"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Position == nil {
		httputil.BadRequest(w, "missing position")
		return
	}
	u, err := s.nav.UpdatePosition(req.Position.X, req.Position.Y, req.Position.Z)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, u)
}

func (s *Server) handleSetDestination(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req struct {
		Destination *coordinate `json:"destination"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Destination == nil {
		httputil.BadRequest(w, "missing destination")
		return
	}
	res, err := s.nav.SetDestination(req.Destination.X, req.Destination.Y, req.Destination.Z)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteStatusOK(w, map[string]interface{}{
		"destination":      res.Destination,
		"initial_distance": res.InitialDistance,
	})
}

func (s *Server) handleGetMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.nav.GetMove())
}

func (s *Server) handleUpdateObstacle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var payload interface{}
	if err := decodeBody(w, r, &payload); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	obj, ok := payload.(map[string]interface{})
	if !ok {
		httputil.BadRequest(w, fmt.Sprintf("%v: obstacle data must be an object", nav.ErrType))
		return
	}
	if _, hasPoints := obj["lidarPoints"]; !hasPoints {
		if _, hasObstacles := obj["obstacles"]; !hasObstacles {
			httputil.BadRequest(w, "missing obstacle data")
			return
		}
	}
	res, err := s.nav.IngestObstacles(obj)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteStatusOK(w, map[string]interface{}{
		"message":  "Obstacle data updated",
		"points":   res.Points,
		"clusters": res.Clusters,
	})
}
