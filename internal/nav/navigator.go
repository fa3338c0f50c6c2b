package nav

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/monitoring"
	"github.com/banshee-data/tanknav/internal/obstacle"
	"github.com/banshee-data/tanknav/internal/state"
	"github.com/banshee-data/tanknav/internal/timeutil"
)

// Recorder persists navigation events. Implementations must be safe for
// concurrent use; errors are logged and otherwise ignored.
type Recorder interface {
	RecordPosition(at time.Time, v state.Vehicle) error
	RecordCommand(at time.Time, c state.Command) error
	RecordTactical(w state.TacticalWaypoint) error
}

// NavigatorConfig holds the Navigator's collaborators. Zero fields get
// defaults: the real clock, a time-seeded random source and no recorder.
type NavigatorConfig struct {
	Clock    timeutil.Clock
	Rand     *rand.Rand
	Recorder Recorder
}

// Vec3 is a simulator coordinate.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SensorPayload is one telemetry batch from the simulator. Every field is
// optional.
type SensorPayload struct {
	PlayerPos    *Vec3    `json:"playerPos,omitempty"`
	EnemyPos     *Vec3    `json:"enemyPos,omitempty"`
	EnemyTurretX *float64 `json:"enemyTurretX,omitempty"`
}

// IngestResult reports what a sensor batch changed.
type IngestResult struct {
	Position *PositionUpdate         `json:"position,omitempty"`
	Tactical *state.TacticalWaypoint `json:"tactical,omitempty"`
}

// DestinationResult echoes a new destination.
type DestinationResult struct {
	Destination     Vec3     `json:"destination"`
	InitialDistance *float64 `json:"initial_distance"`
}

// Navigator owns one instance of each navigation component and serialises
// the operations that drive them.
type Navigator struct {
	shared   *state.Shared
	clock    timeutil.Clock
	recorder Recorder

	mu          sync.Mutex
	rng         *rand.Rand
	estimator   *StateEstimator
	pid         *PIDController
	pursuit     *PurePursuit
	obstacles   *obstacle.Handler
	destination *geom.Vec2
	enemy       *geom.Vec2
	enemyTurret *float64
}

// NewNavigator creates a Navigator over shared.
func NewNavigator(shared *state.Shared, cfg NavigatorConfig) *Navigator {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(cfg.Clock.Now().UnixNano()))
	}
	n := &Navigator{
		shared:    shared,
		clock:     cfg.Clock,
		recorder:  cfg.Recorder,
		rng:       cfg.Rand,
		obstacles: obstacle.NewHandler(shared),
	}
	n.resetLocked()
	return n
}

func (n *Navigator) resetLocked() {
	n.estimator = NewStateEstimator(n.shared, n.clock)
	n.pid = NewPIDController(n.shared, n.clock)
	n.pursuit = NewPurePursuit(n.rng)
	n.destination = nil
	n.enemy = nil
	n.enemyTurret = nil
}

// Shared returns the shared context.
func (n *Navigator) Shared() *state.Shared { return n.shared }

// Init resets every component and the shared histories. Configuration is
// kept.
func (n *Navigator) Init() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetLocked()
	n.obstacles.Reset()
	n.shared.Reset()
	monitoring.Logf("[Navigator] simulation initialized")
}

// SetPaused turns pause mode on or off. While paused every move query
// returns STOP.
func (n *Navigator) SetPaused(p bool) { n.shared.SetPaused(p) }

// Paused reports whether pause mode is on.
func (n *Navigator) Paused() bool { return n.shared.Paused() }

// SetDestination stores the goal, resets the PID integral and captures
// the initial distance when the position is known.
func (n *Navigator) SetDestination(x, y, z float64) (DestinationResult, error) {
	if err := checkFinite(x, y, z); err != nil {
		return DestinationResult{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	dest := geom.Vec2{X: x, Z: z}
	n.destination = &dest
	n.pid.ResetIntegral()
	n.pursuit.SetInitialDistance(nil)

	if pos, ok := n.estimator.Position(); ok {
		d := dest.Dist(pos)
		n.pursuit.SetInitialDistance(&d)
	}
	res := DestinationResult{Destination: Vec3{X: x, Y: y, Z: z}}
	if d, ok := n.pursuit.InitialDistance(); ok {
		res.InitialDistance = &d
	}
	monitoring.Logf("[Navigator] destination set to (%.2f, %.2f)", x, z)
	return res, nil
}

// Destination returns the current goal, if any.
func (n *Navigator) Destination() (geom.Vec2, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.destination == nil {
		return geom.Vec2{}, false
	}
	return *n.destination, true
}

// InitialDistance returns the distance captured when the destination was
// set, if known.
func (n *Navigator) InitialDistance() (float64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pursuit.InitialDistance()
}

// UpdatePosition feeds one raw position sample to the estimator.
func (n *Navigator) UpdatePosition(x, y, z float64) (PositionUpdate, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.updatePositionLocked(x, y, z)
}

func (n *Navigator) updatePositionLocked(x, y, z float64) (PositionUpdate, error) {
	u, err := n.estimator.UpdatePosition(x, y, z)
	if err != nil {
		return u, err
	}
	if n.recorder != nil {
		v := state.Vehicle{Known: true, Position: u.Position, HeadingDeg: u.HeadingDeg, SpeedKmh: u.SpeedKmh}
		if rerr := n.recorder.RecordPosition(n.clock.Now(), v); rerr != nil {
			monitoring.Logf("[Navigator] failed to record position: %v", rerr)
		}
	}
	return u, nil
}

// IngestSensors applies a telemetry batch. When the enemy position and a
// turret bearing (from this batch or an earlier one) are known, the
// tactical waypoint is recomputed with the ingest clearance; its domain
// errors are returned after the position update has been applied.
func (n *Navigator) IngestSensors(p SensorPayload) (IngestResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var res IngestResult
	if p.PlayerPos != nil {
		u, err := n.updatePositionLocked(p.PlayerPos.X, p.PlayerPos.Y, p.PlayerPos.Z)
		if err != nil {
			return res, err
		}
		res.Position = &u
	}
	if p.EnemyPos != nil {
		if err := checkFinite(p.EnemyPos.X, p.EnemyPos.Z); err != nil {
			return res, err
		}
		e := geom.Vec2{X: p.EnemyPos.X, Z: p.EnemyPos.Z}
		n.enemy = &e
	}
	if p.EnemyTurretX != nil {
		if err := checkFinite(*p.EnemyTurretX); err != nil {
			return res, err
		}
		t := *p.EnemyTurretX
		n.enemyTurret = &t
	}

	if p.EnemyPos == nil || n.enemyTurret == nil {
		return res, nil
	}
	own, ok := n.estimator.Position()
	if p.PlayerPos != nil {
		own, ok = geom.Vec2{X: p.PlayerPos.X, Z: p.PlayerPos.Z}, true
	}
	if !ok {
		return res, nil
	}

	w, err := ComputeTacticalWaypoint(*n.enemy, *n.enemyTurret, own, n.shared.Config().TacticalIngestClearance)
	if err != nil {
		return res, fmt.Errorf("tactical waypoint: %w", err)
	}
	w.ComputedAt = n.clock.Now()
	n.shared.SetTactical(w)
	if n.recorder != nil {
		if rerr := n.recorder.RecordTactical(w); rerr != nil {
			monitoring.Logf("[Navigator] failed to record tactical waypoint: %v", rerr)
		}
	}
	res.Tactical = &w
	return res, nil
}

// TacticalWaypoint computes the waypoint on demand from the last known
// enemy observation and own position, using the query clearance.
func (n *Navigator) TacticalWaypoint() (state.TacticalWaypoint, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	own, ok := n.estimator.Position()
	if n.enemy == nil || n.enemyTurret == nil || !ok {
		return state.TacticalWaypoint{}, fmt.Errorf("%w: enemy position, enemy turret and own position are required", ErrValidation)
	}
	w, err := ComputeTacticalWaypoint(*n.enemy, *n.enemyTurret, own, n.shared.Config().TacticalQueryClearance)
	if err != nil {
		return w, err
	}
	w.ComputedAt = n.clock.Now()
	return w, nil
}

// IngestObstacles runs the obstacle pipeline over a decoded JSON object.
func (n *Navigator) IngestObstacles(payload any) (obstacle.UpdateResult, error) {
	return n.obstacles.UpdateObstacle(payload)
}

// GetMove computes the command for this tick: STOP while paused, an
// avoidance directive when obstacles are present, otherwise pure pursuit.
// A dead-reckoned position from pursuit is written back to the estimator.
func (n *Navigator) GetMove() state.Command {
	cmd := n.getMove()
	n.shared.SetLastCommand(cmd)
	if n.recorder != nil {
		if err := n.recorder.RecordCommand(n.clock.Now(), cmd); err != nil {
			monitoring.Logf("[Navigator] failed to record command: %v", err)
		}
	}
	return cmd
}

func (n *Navigator) getMove() state.Command {
	if n.shared.Paused() {
		return state.Stop()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	pos, known := n.estimator.Position()
	heading := n.estimator.Heading()
	if cmd := n.obstacles.GetAvoidanceCommand(pos, known, heading); cmd != nil {
		return *cmd
	}

	in := PursuitInput{
		Position:    pos,
		Known:       known,
		Heading:     heading,
		SpeedKmh:    n.estimator.SpeedKmh(),
		Destination: n.destination,
	}
	cmd := n.pursuit.ComputeMove(in, n.shared.Config(), n.pid, n.obstacles)
	if cmd.Next != nil {
		n.estimator.SetPosition(*cmd.Next)
	}
	return cmd
}

// Position returns the estimated position and heading in radians.
func (n *Navigator) Position() (geom.Vec2, float64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	pos, ok := n.estimator.Position()
	return pos, n.estimator.Heading(), ok
}

// PlanDetour synthesizes a detour from the current position to the
// destination around the current obstacles.
func (n *Navigator) PlanDetour() ([]geom.Vec2, error) {
	n.mu.Lock()
	pos, ok := n.estimator.Position()
	dest := n.destination
	n.mu.Unlock()
	if !ok || dest == nil {
		return nil, fmt.Errorf("%w: position and destination are required", ErrValidation)
	}
	return n.obstacles.FindAlternativePath(pos, *dest), nil
}

// ObstacleStats summarises the current obstacle field.
func (n *Navigator) ObstacleStats() obstacle.Stats { return n.obstacles.ObstacleStats() }
