package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents a (possibly partial) set of control tunables.
// The schema matches the /api/config endpoint so the same JSON can be used
// for both startup configuration and runtime updates. Nil fields mean
// "unchanged" on update and "built-in default" on load.
type TuningConfig struct {
	// Pursuit params
	MoveStep          *float64 `json:"move_step,omitempty"`
	Tolerance         *float64 `json:"tolerance,omitempty"`
	LookaheadMin      *float64 `json:"lookahead_min,omitempty"`
	LookaheadMax      *float64 `json:"lookahead_max,omitempty"`
	GoalWeight        *float64 `json:"goal_weight,omitempty"`
	SpeedFactor       *float64 `json:"speed_factor,omitempty"`
	SteeringSmoothing *float64 `json:"steering_smoothing,omitempty"`
	HeadingSmoothing  *float64 `json:"heading_smoothing,omitempty"`

	// Command weights
	WeightForward *float64 `json:"weight_forward,omitempty"`
	WeightBack    *float64 `json:"weight_back,omitempty"`
	WeightLeft    *float64 `json:"weight_left,omitempty"`
	WeightRight   *float64 `json:"weight_right,omitempty"`

	// Obstacle params
	ObstacleRadius   *float64 `json:"obstacle_radius,omitempty"`
	DBSCANEps        *float64 `json:"dbscan_eps,omitempty"`
	DBSCANMinSamples *int     `json:"dbscan_min_samples,omitempty"`

	// Speed regulator params
	TargetSpeedKmh *float64 `json:"target_speed_kmh,omitempty"`
	Kp             *float64 `json:"kp,omitempty"`
	Ki             *float64 `json:"ki,omitempty"`
	Kd             *float64 `json:"kd,omitempty"`

	// Tactical waypoint params
	TacticalIngestClearance *float64 `json:"tactical_ingest_clearance,omitempty"`
	TacticalQueryClearance  *float64 `json:"tactical_query_clearance,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from DefaultControlConfig.
func DefaultTuningConfig() *TuningConfig {
	return FromControl(DefaultControlConfig())
}

// FromControl converts a resolved ControlConfig to a fully populated TuningConfig.
func FromControl(c ControlConfig) *TuningConfig {
	return &TuningConfig{
		MoveStep:                ptrFloat64(c.MoveStep),
		Tolerance:               ptrFloat64(c.Tolerance),
		LookaheadMin:            ptrFloat64(c.LookaheadMin),
		LookaheadMax:            ptrFloat64(c.LookaheadMax),
		GoalWeight:              ptrFloat64(c.GoalWeight),
		SpeedFactor:             ptrFloat64(c.SpeedFactor),
		SteeringSmoothing:       ptrFloat64(c.SteeringSmoothing),
		HeadingSmoothing:        ptrFloat64(c.HeadingSmoothing),
		WeightForward:           ptrFloat64(c.Weights.Forward),
		WeightBack:              ptrFloat64(c.Weights.Back),
		WeightLeft:              ptrFloat64(c.Weights.Left),
		WeightRight:             ptrFloat64(c.Weights.Right),
		ObstacleRadius:          ptrFloat64(c.ObstacleRadius),
		DBSCANEps:               ptrFloat64(c.DBSCANEps),
		DBSCANMinSamples:        ptrInt(c.DBSCANMinSamples),
		TargetSpeedKmh:          ptrFloat64(c.TargetSpeedKmh),
		Kp:                      ptrFloat64(c.PID.Kp),
		Ki:                      ptrFloat64(c.PID.Ki),
		Kd:                      ptrFloat64(c.PID.Kd),
		TacticalIngestClearance: ptrFloat64(c.TacticalIngestClearance),
		TacticalQueryClearance:  ptrFloat64(c.TacticalQueryClearance),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to the built-in defaults, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate rejects files that contradict themselves. Range problems on
// individual fields are not errors: they are clamped when applied.
func (c *TuningConfig) Validate() error {
	if c.LookaheadMin != nil && c.LookaheadMax != nil && *c.LookaheadMin > *c.LookaheadMax {
		return fmt.Errorf("lookahead_min (%f) must not exceed lookahead_max (%f)", *c.LookaheadMin, *c.LookaheadMax)
	}
	if c.DBSCANMinSamples != nil && *c.DBSCANMinSamples < 0 {
		return fmt.Errorf("dbscan_min_samples must be non-negative, got %d", *c.DBSCANMinSamples)
	}
	return nil
}

// ToControl resolves the tuning into a clamped ControlConfig, using the
// built-in defaults for any field that is not set.
func (c *TuningConfig) ToControl() ControlConfig {
	cc := DefaultControlConfig()
	for _, set := range c.Setters() {
		set(&cc)
	}
	return cc.Clamp()
}

// Setters returns one mutation per populated field. Each setter writes and
// clamps exactly one field, so callers can apply them as independent writes.
func (c *TuningConfig) Setters() []func(*ControlConfig) {
	var out []func(*ControlConfig)
	f := func(p *float64, apply func(cc *ControlConfig, v float64)) {
		if p == nil {
			return
		}
		v := *p
		out = append(out, func(cc *ControlConfig) {
			apply(cc, v)
			*cc = cc.Clamp()
		})
	}

	f(c.MoveStep, func(cc *ControlConfig, v float64) { cc.MoveStep = v })
	f(c.Tolerance, func(cc *ControlConfig, v float64) { cc.Tolerance = v })
	f(c.LookaheadMin, func(cc *ControlConfig, v float64) { cc.LookaheadMin = v })
	f(c.LookaheadMax, func(cc *ControlConfig, v float64) { cc.LookaheadMax = v })
	f(c.GoalWeight, func(cc *ControlConfig, v float64) { cc.GoalWeight = v })
	f(c.SpeedFactor, func(cc *ControlConfig, v float64) { cc.SpeedFactor = v })
	f(c.SteeringSmoothing, func(cc *ControlConfig, v float64) { cc.SteeringSmoothing = v })
	f(c.HeadingSmoothing, func(cc *ControlConfig, v float64) { cc.HeadingSmoothing = v })
	f(c.WeightForward, func(cc *ControlConfig, v float64) { cc.Weights.Forward = v })
	f(c.WeightBack, func(cc *ControlConfig, v float64) { cc.Weights.Back = v })
	f(c.WeightLeft, func(cc *ControlConfig, v float64) { cc.Weights.Left = v })
	f(c.WeightRight, func(cc *ControlConfig, v float64) { cc.Weights.Right = v })
	f(c.ObstacleRadius, func(cc *ControlConfig, v float64) { cc.ObstacleRadius = v })
	f(c.DBSCANEps, func(cc *ControlConfig, v float64) { cc.DBSCANEps = v })
	f(c.TargetSpeedKmh, func(cc *ControlConfig, v float64) { cc.TargetSpeedKmh = v })
	f(c.Kp, func(cc *ControlConfig, v float64) { cc.PID.Kp = v })
	f(c.Ki, func(cc *ControlConfig, v float64) { cc.PID.Ki = v })
	f(c.Kd, func(cc *ControlConfig, v float64) { cc.PID.Kd = v })
	f(c.TacticalIngestClearance, func(cc *ControlConfig, v float64) { cc.TacticalIngestClearance = v })
	f(c.TacticalQueryClearance, func(cc *ControlConfig, v float64) { cc.TacticalQueryClearance = v })

	if c.DBSCANMinSamples != nil {
		n := *c.DBSCANMinSamples
		out = append(out, func(cc *ControlConfig) {
			cc.DBSCANMinSamples = n
			*cc = cc.Clamp()
		})
	}
	return out
}

// GetTargetSpeedKmh returns the target_speed_kmh value or the default.
func (c *TuningConfig) GetTargetSpeedKmh() float64 {
	if c.TargetSpeedKmh == nil {
		return DefaultTargetSpeedKmh
	}
	return *c.TargetSpeedKmh
}

// GetObstacleRadius returns the obstacle_radius value or the default.
func (c *TuningConfig) GetObstacleRadius() float64 {
	if c.ObstacleRadius == nil {
		return DefaultObstacleRadius
	}
	return *c.ObstacleRadius
}

// GetDBSCANMinSamples returns the dbscan_min_samples value or the default.
func (c *TuningConfig) GetDBSCANMinSamples() int {
	if c.DBSCANMinSamples == nil {
		return DefaultDBSCANMinSamples
	}
	return *c.DBSCANMinSamples
}
