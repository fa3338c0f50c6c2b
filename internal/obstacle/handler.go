package obstacle

import (
	"fmt"
	"sync"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/monitoring"
	"github.com/banshee-data/tanknav/internal/state"
)

// UpdateResult reports what one obstacle update produced.
type UpdateResult struct {
	Points   int `json:"points"`
	Clusters int `json:"clusters"`
}

// Handler wires the obstacle pipeline to the shared context. Filtered
// points and clusters live in the shared block; the handler keeps the
// avoidance lock and the cluster identities.
type Handler struct {
	shared *state.Shared

	mu        sync.Mutex
	clusterer *Clusterer
	tracker   *ClusterTracker
	commander *AvoidanceCommander
	planner   PathPlanner
}

// NewHandler creates a handler over shared.
func NewHandler(shared *state.Shared) *Handler {
	cfg := shared.Config()
	return &Handler{
		shared:    shared,
		clusterer: NewClusterer(cfg.DBSCANEps, cfg.DBSCANMinSamples),
		tracker:   NewClusterTracker(),
		commander: NewAvoidanceCommander(),
	}
}

// UpdateObstacle filters and clusters the payload's lidarPoints and
// replaces the shared obstacle state. payload must be a decoded JSON
// object.
func (h *Handler) UpdateObstacle(payload any) (UpdateResult, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return UpdateResult{}, fmt.Errorf("%w: obstacle payload must be an object, got %T", ErrType, payload)
	}
	var raw []any
	switch v := obj["lidarPoints"].(type) {
	case nil:
	case []any:
		raw = v
	default:
		return UpdateResult{}, fmt.Errorf("%w: lidarPoints must be a list, got %T", ErrType, v)
	}

	filtered := FilterPoints(raw)
	ground := make([]geom.Vec2, len(filtered))
	for i, p := range filtered {
		ground[i] = p.Ground()
	}

	cfg := h.shared.Config()
	h.mu.Lock()
	h.clusterer.SetParams(DBSCANParams{Eps: cfg.DBSCANEps, MinSamples: cfg.DBSCANMinSamples})
	groups := h.clusterer.ClusterObstacles(ground)
	clusters := h.tracker.Assign(groups, cfg.ObstacleRadius*LockRetainFactor)
	// Publish under h.mu so the shared clusters always match tracker.prev.
	h.shared.SetObstacles(filtered, clusters)
	h.mu.Unlock()

	monitoring.Debugf("[ObstacleHandler] filtered %d/%d points, %d clusters", len(filtered), len(raw), len(clusters))
	return UpdateResult{Points: len(filtered), Clusters: len(clusters)}, nil
}

// GetAvoidanceCommand checks the shared clusters against the vehicle pose.
func (h *Handler) GetAvoidanceCommand(position geom.Vec2, known bool, heading float64) *state.Command {
	clusters := h.shared.Clusters()
	radius := h.shared.Config().ObstacleRadius
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.commander.GetAvoidanceCommand(position, known, heading, clusters, radius)
}

// CurrentLock returns the avoidance lock, if any.
func (h *Handler) CurrentLock() (Lock, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.commander.CurrentLock()
}

// IsObstacleInPath tests the segment from→to against the shared clusters.
func (h *Handler) IsObstacleInPath(from, to geom.Vec2) bool {
	return h.planner.IsObstacleInPath(from, to, h.shared.Clusters(), h.shared.Config().ObstacleRadius)
}

// FindAlternativePath synthesizes a detour from start to goal.
func (h *Handler) FindAlternativePath(start, goal geom.Vec2) []geom.Vec2 {
	return h.planner.FindAlternativePath(start, goal, h.shared.Clusters(), h.shared.Config().ObstacleRadius)
}

// ObstacleStats summarises the shared clusters relative to the latest
// vehicle position, or the origin when none is known.
func (h *Handler) ObstacleStats() Stats {
	ref, _ := h.shared.LatestPosition()
	return ComputeStats(h.shared.Clusters(), ref)
}

// Reset drops the lock, forgets cluster identities and clears the shared
// obstacle state.
func (h *Handler) Reset() {
	h.mu.Lock()
	h.commander.Reset()
	h.tracker.Reset()
	h.shared.SetObstacles(nil, nil)
	h.mu.Unlock()
}
