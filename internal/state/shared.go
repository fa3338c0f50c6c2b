package state

import (
	"sync"
	"time"

	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/geom"
)

// Shared is the context shared by the ingestion, move-query and telemetry
// paths. Every method takes the lock for exactly one read or write; no
// method holds it while calling out. A reader may therefore observe one
// config field updated and a sibling not yet updated.
type Shared struct {
	mu sync.Mutex

	cfg      config.ControlConfig
	paused   bool
	vehicle  Vehicle
	pid      PIDTelemetry
	command  *Command
	tactical *TacticalWaypoint

	positions     *History[geom.Vec2]
	speeds        *History[float64]
	deltaX        *History[float64]
	deltaZ        *History[float64]
	clusterCounts *History[int]

	points   []LidarPoint
	clusters []Cluster
}

// NewShared returns a context seeded with cfg (clamped).
func NewShared(cfg config.ControlConfig) *Shared {
	return &Shared{
		cfg:           cfg.Clamp(),
		positions:     NewHistory[geom.Vec2](HistoryCap),
		speeds:        NewHistory[float64](HistoryCap),
		deltaX:        NewHistory[float64](HistoryCap),
		deltaZ:        NewHistory[float64](HistoryCap),
		clusterCounts: NewHistory[int](HistoryCap),
	}
}

// Config returns a copy of the current control configuration.
func (s *Shared) Config() config.ControlConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig replaces the whole configuration after clamping it.
func (s *Shared) SetConfig(cfg config.ControlConfig) {
	cfg = cfg.Clamp()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// ApplyTuning writes every field set in t, each under its own lock
// acquisition.
func (s *Shared) ApplyTuning(t *config.TuningConfig) {
	for _, set := range t.Setters() {
		s.mu.Lock()
		set(&s.cfg)
		s.mu.Unlock()
	}
}

// SetPaused toggles pause mode.
func (s *Shared) SetPaused(p bool) {
	s.mu.Lock()
	s.paused = p
	s.mu.Unlock()
}

// Paused reports whether pause mode is on.
func (s *Shared) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// AppendPosition records a vehicle position.
func (s *Shared) AppendPosition(p geom.Vec2) {
	s.mu.Lock()
	s.positions.Push(p)
	s.mu.Unlock()
}

// AppendDelta records a per-update displacement.
func (s *Shared) AppendDelta(dx, dz float64) {
	s.mu.Lock()
	s.deltaX.Push(dx)
	s.deltaZ.Push(dz)
	s.mu.Unlock()
}

// AppendSpeed records a speed estimate in km/h.
func (s *Shared) AppendSpeed(kmh float64) {
	s.mu.Lock()
	s.speeds.Push(kmh)
	s.mu.Unlock()
}

// LatestPosition returns the newest recorded position.
func (s *Shared) LatestPosition() (geom.Vec2, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions.Last()
}

// SetVehicle publishes the estimator's current state.
func (s *Shared) SetVehicle(v Vehicle) {
	s.mu.Lock()
	s.vehicle = v
	s.mu.Unlock()
}

// SetPID publishes the speed regulator state.
func (s *Shared) SetPID(p PIDTelemetry) {
	s.mu.Lock()
	s.pid = p
	s.mu.Unlock()
}

// SetObstacles replaces the filtered points and cluster list.
func (s *Shared) SetObstacles(points []LidarPoint, clusters []Cluster) {
	s.mu.Lock()
	s.points = points
	s.clusters = clusters
	s.clusterCounts.Push(len(clusters))
	s.mu.Unlock()
}

// Clusters returns the current cluster list. The slice is shared with
// other readers and must not be modified.
func (s *Shared) Clusters() []Cluster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clusters
}

// Points returns the current filtered points. The slice must not be
// modified.
func (s *Shared) Points() []LidarPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points
}

// SetLastCommand records the most recent move result.
func (s *Shared) SetLastCommand(c Command) {
	s.mu.Lock()
	s.command = &c
	s.mu.Unlock()
}

// SetTactical records the most recent tactical waypoint.
func (s *Shared) SetTactical(w TacticalWaypoint) {
	s.mu.Lock()
	s.tactical = &w
	s.mu.Unlock()
}

// Tactical returns the most recent tactical waypoint, if any.
func (s *Shared) Tactical() (TacticalWaypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tactical == nil {
		return TacticalWaypoint{}, false
	}
	return *s.tactical, true
}

// Reset clears every history and derived output. Configuration is kept.
func (s *Shared) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.vehicle = Vehicle{}
	s.pid = PIDTelemetry{}
	s.command = nil
	s.tactical = nil
	s.positions.Clear()
	s.speeds.Clear()
	s.deltaX.Clear()
	s.deltaZ.Clear()
	s.clusterCounts.Clear()
	s.points = nil
	s.clusters = nil
}

// Telemetry is a point-in-time copy of the shared block for renderers.
type Telemetry struct {
	Time          time.Time            `json:"time"`
	Paused        bool                 `json:"paused"`
	Vehicle       Vehicle              `json:"vehicle"`
	Positions     []geom.Vec2          `json:"positions"`
	Speeds        []float64            `json:"speeds"`
	DeltaX        []float64            `json:"delta_x"`
	DeltaZ        []float64            `json:"delta_z"`
	ClusterCounts []int                `json:"cluster_counts"`
	Clusters      []Cluster            `json:"clusters"`
	PointCount    int                  `json:"point_count"`
	Config        config.ControlConfig `json:"config"`
	PID           PIDTelemetry         `json:"pid"`
	LastCommand   *Command             `json:"last_command,omitempty"`
	Tactical      *TacticalWaypoint    `json:"tactical,omitempty"`
}

// Snapshot copies the shared block at time now.
func (s *Shared) Snapshot(now time.Time) Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := Telemetry{
		Time:          now,
		Paused:        s.paused,
		Vehicle:       s.vehicle,
		Positions:     s.positions.Values(),
		Speeds:        s.speeds.Values(),
		DeltaX:        s.deltaX.Values(),
		DeltaZ:        s.deltaZ.Values(),
		ClusterCounts: s.clusterCounts.Values(),
		Clusters:      s.clusters,
		PointCount:    len(s.points),
		Config:        s.cfg,
		PID:           s.pid,
	}
	if s.command != nil {
		c := *s.command
		t.LastCommand = &c
	}
	if s.tactical != nil {
		w := *s.tactical
		t.Tactical = &w
	}
	return t
}
