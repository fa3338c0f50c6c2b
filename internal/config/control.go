package config

import (
	"math"

	"github.com/banshee-data/tanknav/internal/units"
)

// WeightFactors are the per-direction base weights of the pursuit command
// candidates.
type WeightFactors struct {
	Forward float64 `json:"forward"`
	Back    float64 `json:"back"`
	Left    float64 `json:"left"`
	Right   float64 `json:"right"`
}

// ControlConfig is the resolved set of control tunables read on every tick.
// Values are always clamped into their valid ranges; see Clamp.
type ControlConfig struct {
	MoveStep          float64       `json:"move_step"`
	Tolerance         float64       `json:"tolerance"`
	LookaheadMin      float64       `json:"lookahead_min"`
	LookaheadMax      float64       `json:"lookahead_max"`
	GoalWeight        float64       `json:"goal_weight"`
	ObstacleRadius    float64       `json:"obstacle_radius"`
	SpeedFactor       float64       `json:"speed_factor"`
	SteeringSmoothing float64       `json:"steering_smoothing"`
	HeadingSmoothing  float64       `json:"heading_smoothing"`
	Weights           WeightFactors `json:"weight_factors"`
	DBSCANEps         float64       `json:"dbscan_eps"`
	DBSCANMinSamples  int           `json:"dbscan_min_samples"`
	TargetSpeedKmh    float64       `json:"target_speed_kmh"`
	PID               PIDGains      `json:"pid"`

	// Minimum foot-to-enemy clearance for the tactical waypoint. Sensor
	// ingestion and the on-demand query historically used different values.
	TacticalIngestClearance float64 `json:"tactical_ingest_clearance"`
	TacticalQueryClearance  float64 `json:"tactical_query_clearance"`
}

// PIDGains are the speed regulator gains.
type PIDGains struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// Defaults mirror the values the operator dashboard started with.
const (
	DefaultMoveStep                = 0.1
	DefaultTolerance               = 1.0
	DefaultLookaheadMin            = 2.0
	DefaultLookaheadMax            = 10.0
	DefaultGoalWeight              = 1.0
	DefaultObstacleRadius          = 1.0
	DefaultSpeedFactor             = 0.5
	DefaultSteeringSmoothing       = 0.7
	DefaultHeadingSmoothing        = 0.7
	DefaultWeightFactor            = 1.0
	DefaultDBSCANEps               = 1.0
	DefaultDBSCANMinSamples        = 3
	DefaultTargetSpeedKmh          = 20.0
	DefaultKp                      = 0.5
	DefaultKi                      = 0.0
	DefaultKd                      = 0.0
	DefaultTacticalIngestClearance = 10.0
	DefaultTacticalQueryClearance  = 100.0
)

// DefaultControlConfig returns the built-in control defaults.
func DefaultControlConfig() ControlConfig {
	return ControlConfig{
		MoveStep:          DefaultMoveStep,
		Tolerance:         DefaultTolerance,
		LookaheadMin:      DefaultLookaheadMin,
		LookaheadMax:      DefaultLookaheadMax,
		GoalWeight:        DefaultGoalWeight,
		ObstacleRadius:    DefaultObstacleRadius,
		SpeedFactor:       DefaultSpeedFactor,
		SteeringSmoothing: DefaultSteeringSmoothing,
		HeadingSmoothing:  DefaultHeadingSmoothing,
		Weights: WeightFactors{
			Forward: DefaultWeightFactor,
			Back:    DefaultWeightFactor,
			Left:    DefaultWeightFactor,
			Right:   DefaultWeightFactor,
		},
		DBSCANEps:               DefaultDBSCANEps,
		DBSCANMinSamples:        DefaultDBSCANMinSamples,
		TargetSpeedKmh:          DefaultTargetSpeedKmh,
		PID:                     PIDGains{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
		TacticalIngestClearance: DefaultTacticalIngestClearance,
		TacticalQueryClearance:  DefaultTacticalQueryClearance,
	}
}

// Clamp returns a copy with every field forced into its valid range.
// Out-of-range writes are clamped, never rejected.
func (c ControlConfig) Clamp() ControlConfig {
	c.MoveStep = atLeast(c.MoveStep, 0.01, DefaultMoveStep)
	c.Tolerance = atLeast(c.Tolerance, 0.1, DefaultTolerance)
	c.ObstacleRadius = atLeast(c.ObstacleRadius, 0.1, DefaultObstacleRadius)
	c.LookaheadMin = atLeast(c.LookaheadMin, 0.1, DefaultLookaheadMin)
	c.LookaheadMax = atLeast(c.LookaheadMax, 1.0, DefaultLookaheadMax)
	c.GoalWeight = atLeast(c.GoalWeight, 0, DefaultGoalWeight)
	c.SpeedFactor = atLeast(c.SpeedFactor, 0, DefaultSpeedFactor)
	c.SteeringSmoothing = unitInterval(c.SteeringSmoothing, DefaultSteeringSmoothing)
	c.HeadingSmoothing = unitInterval(c.HeadingSmoothing, DefaultHeadingSmoothing)
	c.Weights.Forward = atLeast(c.Weights.Forward, 0, DefaultWeightFactor)
	c.Weights.Back = atLeast(c.Weights.Back, 0, DefaultWeightFactor)
	c.Weights.Left = atLeast(c.Weights.Left, 0, DefaultWeightFactor)
	c.Weights.Right = atLeast(c.Weights.Right, 0, DefaultWeightFactor)
	c.DBSCANEps = atLeast(c.DBSCANEps, 0.1, DefaultDBSCANEps)
	if c.DBSCANMinSamples < 1 {
		c.DBSCANMinSamples = 1
	}
	c.TargetSpeedKmh = units.ClampKmh(finiteOr(c.TargetSpeedKmh, DefaultTargetSpeedKmh))
	c.PID.Kp = atLeast(c.PID.Kp, 0, DefaultKp)
	c.PID.Ki = atLeast(c.PID.Ki, 0, DefaultKi)
	c.PID.Kd = atLeast(c.PID.Kd, 0, DefaultKd)
	c.TacticalIngestClearance = atLeast(c.TacticalIngestClearance, 0, DefaultTacticalIngestClearance)
	c.TacticalQueryClearance = atLeast(c.TacticalQueryClearance, 0, DefaultTacticalQueryClearance)
	return c
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func atLeast(v, floor, fallback float64) float64 {
	v = finiteOr(v, fallback)
	if v < floor {
		return floor
	}
	return v
}

func unitInterval(v, fallback float64) float64 {
	v = finiteOr(v, fallback)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
