package nav

import (
	"math"
	"time"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/monitoring"
	"github.com/banshee-data/tanknav/internal/state"
	"github.com/banshee-data/tanknav/internal/timeutil"
	"github.com/banshee-data/tanknav/internal/units"
)

// Displacements at or below this are treated as jitter: heading and speed
// are left unchanged.
const minMovement = 0.01

// speedSmoothing is the weight of the previous speed estimate.
const speedSmoothing = 0.7

// PositionUpdate is the result of one position sample.
type PositionUpdate struct {
	Status     string    `json:"status"`
	Position   geom.Vec2 `json:"current_position"`
	HeadingDeg float64   `json:"heading"`
	SpeedKmh   float64   `json:"speed_kh"`
}

// StateEstimator derives heading and speed from raw position samples.
type StateEstimator struct {
	shared *state.Shared
	clock  timeutil.Clock

	position   geom.Vec2
	known      bool
	heading    float64 // radians, (-π, π]
	speedKmh   float64
	lastUpdate time.Time
}

// NewStateEstimator creates an estimator with no known position.
func NewStateEstimator(shared *state.Shared, clock timeutil.Clock) *StateEstimator {
	return &StateEstimator{shared: shared, clock: clock, lastUpdate: clock.Now()}
}

// Position returns the current position and whether one is known.
func (e *StateEstimator) Position() (geom.Vec2, bool) { return e.position, e.known }

// Heading returns the heading in radians.
func (e *StateEstimator) Heading() float64 { return e.heading }

// SpeedKmh returns the smoothed speed estimate.
func (e *StateEstimator) SpeedKmh() float64 { return e.speedKmh }

// UpdatePosition folds a new sample into the estimate.
func (e *StateEstimator) UpdatePosition(x, y, z float64) (PositionUpdate, error) {
	if err := checkFinite(x, y, z); err != nil {
		return PositionUpdate{Status: "ERROR"}, err
	}

	now := e.clock.Now()
	dt := timeutil.TickSeconds(e.lastUpdate, now)
	e.lastUpdate = now

	cfg := e.shared.Config()
	next := geom.Vec2{X: x, Z: z}

	if e.known {
		delta := next.Sub(e.position)
		e.shared.AppendDelta(delta.X, delta.Z)

		moved := delta.Norm()
		if moved > minMovement {
			raw := geom.Bearing(delta)
			s := cfg.HeadingSmoothing
			e.heading = geom.NormalizeAngle(s*e.heading + (1-s)*raw)

			target := cfg.TargetSpeedKmh
			moved = math.Min(moved, units.KmhToMps(math.Abs(target))*dt)
			rawKmh := math.Min(units.MpsToKmh(moved/dt), math.Abs(target))
			if target < 0 {
				rawKmh = -rawKmh
			}
			e.speedKmh = units.ClampKmh(speedSmoothing*e.speedKmh + (1-speedSmoothing)*rawKmh)
			e.shared.AppendSpeed(e.speedKmh)
		}
	}

	e.shared.AppendPosition(next)
	e.position = next
	e.known = true
	e.publish(now)

	monitoring.Debugf("[StateEstimator] position=(%.2f, %.2f) heading=%.1f° speed=%.1f km/h",
		x, z, e.headingDeg(), e.speedKmh)

	return PositionUpdate{
		Status:     "OK",
		Position:   next,
		HeadingDeg: e.headingDeg(),
		SpeedKmh:   e.speedKmh,
	}, nil
}

// SetPosition overwrites the position with a dead-reckoned estimate.
// Heading, speed and histories are untouched.
func (e *StateEstimator) SetPosition(p geom.Vec2) {
	if !p.IsFinite() {
		return
	}
	e.position = p
	e.known = true
	e.publish(e.clock.Now())
}

func (e *StateEstimator) headingDeg() float64 { return e.heading * 180 / math.Pi }

func (e *StateEstimator) publish(at time.Time) {
	e.shared.SetVehicle(state.Vehicle{
		Known:      e.known,
		Position:   e.position,
		HeadingDeg: e.headingDeg(),
		SpeedKmh:   e.speedKmh,
		UpdatedAt:  at,
	})
}
