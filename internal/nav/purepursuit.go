package nav

import (
	"math"
	"math/rand"

	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/monitoring"
	"github.com/banshee-data/tanknav/internal/state"
	"github.com/banshee-data/tanknav/internal/units"
)

const (
	lookaheadScale    = 0.5
	turnAmplifier     = 0.01
	progressAmplifier = 0.5
)

// MsgObstacleInPath is attached to the STOP issued for a blocked lookahead.
const MsgObstacleInPath = "Obstacle detected in path"

// SpeedRegulator produces a commanded speed in m/s.
type SpeedRegulator interface {
	ComputeSpeed(currentKmh float64) float64
	ResetIntegral()
}

// PathChecker reports whether a straight segment is blocked.
type PathChecker interface {
	IsObstacleInPath(from, to geom.Vec2) bool
}

// PursuitInput is the vehicle and goal state for one tick.
type PursuitInput struct {
	Position    geom.Vec2
	Known       bool
	Heading     float64 // radians
	SpeedKmh    float64
	Destination *geom.Vec2
}

// candidate is one weighted discrete command.
type candidate struct {
	move   state.Move
	weight float64
}

// PurePursuit steers toward a lookahead point on the goal direction and
// samples a discrete command from weighted candidates.
type PurePursuit struct {
	rng             *rand.Rand
	lastSteering    float64
	initialDistance *float64
}

// NewPurePursuit creates a pursuit stage drawing from rng.
func NewPurePursuit(rng *rand.Rand) *PurePursuit {
	return &PurePursuit{rng: rng}
}

// InitialDistance returns the distance to the goal captured when it was set.
func (p *PurePursuit) InitialDistance() (float64, bool) {
	if p.initialDistance == nil {
		return 0, false
	}
	return *p.initialDistance, true
}

// SetInitialDistance sets or clears (nil) the captured distance.
func (p *PurePursuit) SetInitialDistance(d *float64) { p.initialDistance = d }

// ComputeMove runs one pursuit tick.
func (p *PurePursuit) ComputeMove(in PursuitInput, cfg config.ControlConfig,
	speed SpeedRegulator, paths PathChecker) state.Command {

	if !in.Known || in.Destination == nil {
		return state.Stop()
	}

	pos := in.Position
	dest := *in.Destination
	distance := dest.Dist(pos)
	if distance < cfg.Tolerance {
		p.initialDistance = nil
		speed.ResetIntegral()
		monitoring.Debugf("[PurePursuit] destination reached")
		return state.Stop()
	}

	lookahead := math.Min(cfg.LookaheadMax, math.Max(cfg.LookaheadMin, distance*lookaheadScale))

	goal := dest.Sub(pos).Unit()
	aim := goal.Scale(cfg.GoalWeight)
	if aim.Norm() > 0 {
		aim = aim.Unit()
	} else {
		aim = goal
	}
	target := pos.Add(aim.Scale(lookahead))

	if paths.IsObstacleInPath(pos, target) {
		monitoring.Debugf("[PurePursuit] lookahead blocked, stopping")
		return state.Command{Move: state.MoveStop, Weight: 1, Message: MsgObstacleInPath, Obstacle: true}
	}

	targetDeg := geom.Bearing(target.Sub(pos)) * 180 / math.Pi
	steering := geom.WrapDegrees(targetDeg - in.Heading*180/math.Pi)
	steering = cfg.SteeringSmoothing*p.lastSteering + (1-cfg.SteeringSmoothing)*steering
	p.lastSteering = steering

	mps := speed.ComputeSpeed(in.SpeedKmh)
	mps = units.ClampMps(mps * (1 - math.Abs(steering)/180*cfg.SpeedFactor))

	progress := 0.0
	if p.initialDistance != nil && *p.initialDistance > 0 {
		initial := *p.initialDistance
		progress = math.Max(0, 1-distance/initial)
	}

	candidates := weighCandidates(steering, mps, progress, cfg.Weights)
	chosen, ok := p.choose(candidates)
	if !ok {
		return state.Stop()
	}

	next := deadReckon(pos, in.Heading, chosen.move, cfg.MoveStep*math.Abs(mps), mps)
	monitoring.Debugf("[PurePursuit] steering=%.1f° speed=%.2f m/s move=%s weight=%.2f",
		steering, mps, chosen.move, chosen.weight)
	return state.Command{Move: chosen.move, Weight: chosen.weight, Next: &next}
}

// weighCandidates builds the active candidates in a fixed order: right,
// left, forward, back.
func weighCandidates(steering, mps, progress float64, w config.WeightFactors) []candidate {
	turn := 1 + math.Abs(steering)*turnAmplifier
	drive := 1 + math.Abs(mps)

	all := []candidate{
		{state.MoveRight, 0},
		{state.MoveLeft, 0},
		{state.MoveForward, 0},
		{state.MoveBack, 0},
	}
	if steering > 0 {
		all[0].weight = w.Right * turn
	}
	if steering < 0 {
		all[1].weight = w.Left * turn
	}
	if mps > 0 {
		all[2].weight = w.Forward * drive
	}
	if mps < 0 {
		all[3].weight = w.Back * drive
	}

	active := all[:0]
	for _, c := range all {
		if c.weight > 0 {
			c.weight *= 1 + progress*progressAmplifier
			active = append(active, c)
		}
	}
	return active
}

// choose draws one candidate with probability proportional to its weight.
func (p *PurePursuit) choose(cs []candidate) (candidate, bool) {
	if len(cs) == 0 {
		return candidate{}, false
	}
	var total float64
	for _, c := range cs {
		total += c.weight
	}
	r := p.rng.Float64() * total
	for _, c := range cs {
		if r < c.weight {
			return c, true
		}
		r -= c.weight
	}
	return cs[len(cs)-1], true
}

// deadReckon moves pos by d. Strafes go perpendicular to the heading;
// forward and back go along it in the direction of the commanded speed.
func deadReckon(pos geom.Vec2, heading float64, move state.Move, d, mps float64) geom.Vec2 {
	fwd := geom.HeadingVector(heading)
	right := geom.Vec2{X: fwd.Z, Z: -fwd.X}
	switch move {
	case state.MoveRight:
		return pos.Add(right.Scale(d))
	case state.MoveLeft:
		return pos.Sub(right.Scale(d))
	case state.MoveForward, state.MoveBack:
		sign := 1.0
		if mps < 0 {
			sign = -1
		}
		return pos.Add(fwd.Scale(sign * d))
	}
	return pos
}
