package obstacle

import (
	"math"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/monitoring"
	"github.com/banshee-data/tanknav/internal/state"
)

// Multiples of the obstacle radius that shape the avoidance response.
const (
	LockRetainFactor = 2.0
	SlowDownFactor   = 1.5
	TurnWeightFactor = 3.0
)

// Lock is the obstacle currently being avoided.
type Lock struct {
	Centroid  geom.Vec2
	Index     int
	ClusterID string
}

// AvoidanceCommander picks the obstacle to avoid and emits a directive.
// A lock on the previous target is kept while that obstacle stays close,
// even if another one becomes nearer, to stop the target flickering.
type AvoidanceCommander struct {
	lock *Lock
}

// NewAvoidanceCommander creates a commander with no lock.
func NewAvoidanceCommander() *AvoidanceCommander {
	return &AvoidanceCommander{}
}

// CurrentLock returns the active lock, if any.
func (a *AvoidanceCommander) CurrentLock() (Lock, bool) {
	if a.lock == nil {
		return Lock{}, false
	}
	return *a.lock, true
}

// Reset drops the lock.
func (a *AvoidanceCommander) Reset() { a.lock = nil }

// GetAvoidanceCommand returns nil and drops the lock when the position is
// unknown or there are no clusters. heading is in radians.
func (a *AvoidanceCommander) GetAvoidanceCommand(position geom.Vec2, known bool, heading float64,
	clusters []state.Cluster, radius float64) *state.Command {

	if !known || !position.IsFinite() || math.IsNaN(heading) || math.IsInf(heading, 0) {
		monitoring.Debugf("[Avoidance] invalid position")
		a.lock = nil
		return nil
	}
	if len(clusters) == 0 {
		a.lock = nil
		return nil
	}

	target := Lock{}
	minDist := math.Inf(1)
	for i, c := range clusters {
		if d := c.Centroid.Dist(position); d < minDist {
			minDist = d
			target = Lock{Centroid: c.Centroid, Index: i, ClusterID: c.ID}
		}
	}

	if held, ok := a.retained(clusters); ok {
		if d := held.Centroid.Dist(position); d < radius*LockRetainFactor {
			target = held
			minDist = d
		}
	}
	a.lock = &target

	switch {
	case minDist < radius:
		return &state.Command{Move: state.MoveStop, Weight: 1}
	case minDist < radius*SlowDownFactor:
		return &state.Command{Move: state.MoveSlowDown, Weight: minDist / (radius * SlowDownFactor)}
	}

	bearing := geom.NormalizeAngle(geom.Bearing(target.Centroid.Sub(position)) - heading)
	move := state.MoveTurnRight
	if bearing >= 0 && bearing < math.Pi {
		move = state.MoveTurnLeft
	}
	weight := math.Min(1, minDist/(radius*TurnWeightFactor))
	monitoring.Debugf("[Avoidance] move=%s weight=%.2f distance=%.2f", move, weight, minDist)
	return &state.Command{Move: move, Weight: weight}
}

// retained resolves the held lock against the current cluster list. A
// lock with an ID follows that cluster; one without falls back to its
// list index and stored centroid.
func (a *AvoidanceCommander) retained(clusters []state.Cluster) (Lock, bool) {
	if a.lock == nil {
		return Lock{}, false
	}
	if a.lock.ClusterID != "" {
		for i, c := range clusters {
			if c.ID == a.lock.ClusterID {
				return Lock{Centroid: c.Centroid, Index: i, ClusterID: c.ID}, true
			}
		}
		return Lock{}, false
	}
	if a.lock.Index < len(clusters) {
		return *a.lock, true
	}
	return Lock{}, false
}
