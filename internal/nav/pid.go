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

const (
	// IntegralLimit bounds the accumulated error in km/h·s.
	IntegralLimit = 10.0
	// outputSmoothing is the weight of the previous output.
	outputSmoothing = 0.7
)

// PIDController regulates speed toward the configured target.
type PIDController struct {
	shared *state.Shared
	clock  timeutil.Clock

	integral   float64
	lastError  float64
	lastUpdate time.Time
	prevOutput float64 // m/s
}

// NewPIDController creates a controller with zeroed state.
func NewPIDController(shared *state.Shared, clock timeutil.Clock) *PIDController {
	return &PIDController{shared: shared, clock: clock, lastUpdate: clock.Now()}
}

// ComputeSpeed returns the commanded speed in m/s for the current speed
// in km/h.
func (c *PIDController) ComputeSpeed(currentKmh float64) float64 {
	cfg := c.shared.Config()
	now := c.clock.Now()
	dt := timeutil.TickSeconds(c.lastUpdate, now)
	c.lastUpdate = now

	errKmh := cfg.TargetSpeedKmh - currentKmh
	if math.IsNaN(errKmh) || math.IsInf(errKmh, 0) {
		errKmh = 0
	}
	c.integral = geom.Clamp(c.integral+errKmh*dt, -IntegralLimit, IntegralLimit)
	derivative := (errKmh - c.lastError) / dt
	c.lastError = errKmh

	out := cfg.PID.Kp*errKmh + cfg.PID.Ki*c.integral + cfg.PID.Kd*derivative
	mps := units.ClampMps(units.KmhToMps(out))
	mps = outputSmoothing*c.prevOutput + (1-outputSmoothing)*mps
	c.prevOutput = mps

	c.shared.SetPID(c.Gains())
	monitoring.Debugf("[PID] output=%.2f km/h error=%.2f", units.MpsToKmh(mps), errKmh)
	return mps
}

// ResetIntegral zeroes the integral and last error.
func (c *PIDController) ResetIntegral() {
	c.integral = 0
	c.lastError = 0
	c.shared.SetPID(c.Gains())
}

// Gains reports the configured gains and the current integral.
func (c *PIDController) Gains() state.PIDTelemetry {
	g := c.shared.Config().PID
	return state.PIDTelemetry{Kp: g.Kp, Ki: g.Ki, Kd: g.Kd, Integral: c.integral}
}
