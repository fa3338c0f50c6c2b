package nav

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/state"
	"github.com/banshee-data/tanknav/internal/timeutil"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEstimator(cfg config.ControlConfig) (*StateEstimator, *state.Shared, *timeutil.MockClock) {
	shared := state.NewShared(cfg)
	clock := timeutil.NewMockClock(epoch)
	return NewStateEstimator(shared, clock), shared, clock
}

func TestParseTriple(t *testing.T) {
	x, y, z, err := ParseTriple("1.5, 2,-3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2, -3}, []float64{x, y, z})

	for _, bad := range []string{"", "1,2", "1,2,3,4", "a,b,c", "1,NaN,3", "1,2,Inf"} {
		_, _, _, err := ParseTriple(bad)
		assert.True(t, errors.Is(err, ErrValidation), "ParseTriple(%q) err = %v", bad, err)
	}
}

func TestStateEstimatorFirstAndSecondSample(t *testing.T) {
	e, shared, clock := newEstimator(config.DefaultControlConfig())

	u, err := e.UpdatePosition(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "OK", u.Status)
	assert.Equal(t, 0.0, u.SpeedKmh)

	clock.Advance(time.Second)
	u, err = e.UpdatePosition(0, 0, 1)
	require.NoError(t, err)

	// 1 m in 1 s is 3.6 km/h, smoothed from zero.
	assert.InDelta(t, 0.3*3.6, u.SpeedKmh, 1e-9)
	assert.InDelta(t, 0, u.HeadingDeg, 1e-9)

	snap := shared.Snapshot(clock.Now())
	assert.Len(t, snap.Positions, 2)
	assert.Equal(t, []float64{0}, snap.DeltaX)
	assert.Equal(t, []float64{1}, snap.DeltaZ)
	assert.Len(t, snap.Speeds, 1)
	assert.True(t, snap.Vehicle.Known)
}

func TestStateEstimatorIgnoresJitter(t *testing.T) {
	e, shared, clock := newEstimator(config.DefaultControlConfig())
	_, _ = e.UpdatePosition(0, 0, 0)
	clock.Advance(time.Second)
	_, _ = e.UpdatePosition(0.005, 0, 0.005)

	assert.Equal(t, 0.0, e.Heading())
	assert.Equal(t, 0.0, e.SpeedKmh())
	assert.Empty(t, shared.Snapshot(clock.Now()).Speeds)
	assert.Len(t, shared.Snapshot(clock.Now()).DeltaX, 1)
}

func TestStateEstimatorRejectsNonFinite(t *testing.T) {
	e, shared, _ := newEstimator(config.DefaultControlConfig())
	_, _ = e.UpdatePosition(1, 0, 1)

	_, err := e.UpdatePosition(math.NaN(), 0, 0)
	require.True(t, errors.Is(err, ErrValidation))

	pos, ok := e.Position()
	assert.True(t, ok)
	assert.Equal(t, 1.0, pos.X)
	p, _ := shared.LatestPosition()
	assert.Equal(t, 1.0, p.X)
}

func TestStateEstimatorHeadingNormalized(t *testing.T) {
	cfg := config.DefaultControlConfig()
	for _, smoothing := range []float64{0, 0.3, 0.7, 1} {
		cfg.HeadingSmoothing = smoothing
		e, _, clock := newEstimator(cfg)

		// Spiral and zig-zag through every quadrant, crossing ±π repeatedly.
		x, z := 0.0, 0.0
		for i := 0; i < 400; i++ {
			a := float64(i) * 0.37
			x += math.Sin(a) * float64(1+i%5)
			z += math.Cos(a*1.9) * float64(1+i%3)
			if i%7 == 0 {
				x, z = -x, -z
			}
			clock.Advance(100 * time.Millisecond)
			_, err := e.UpdatePosition(x, 0, z)
			require.NoError(t, err)

			h := e.Heading()
			if h <= -math.Pi || h > math.Pi {
				t.Fatalf("smoothing=%v step %d: heading %v outside (-π, π]", smoothing, i, h)
			}
		}
	}
}

func TestStateEstimatorSpeedEnvelope(t *testing.T) {
	targets := []float64{-30, -5, 0, 20, 70, 200, -500}
	steps := []time.Duration{0, time.Millisecond, 10 * time.Millisecond, time.Second, time.Minute}

	for _, target := range targets {
		cfg := config.DefaultControlConfig()
		cfg.TargetSpeedKmh = target
		e, _, clock := newEstimator(cfg)

		x := 0.0
		for i := 0; i < 200; i++ {
			clock.Advance(steps[i%len(steps)])
			x += float64(i%9) * 25
			_, err := e.UpdatePosition(x, 0, float64(i%4))
			require.NoError(t, err)

			s := e.SpeedKmh()
			if s < -30 || s > 70 {
				t.Fatalf("target=%v step %d: speed %v outside [-30, 70]", target, i, s)
			}
			if target < 0 && s > 0 {
				t.Fatalf("target=%v step %d: speed %v has wrong sign", target, i, s)
			}
		}
	}
}

func TestStateEstimatorSetPosition(t *testing.T) {
	e, shared, _ := newEstimator(config.DefaultControlConfig())
	e.SetPosition(vec(3, 4))

	pos, ok := e.Position()
	require.True(t, ok)
	assert.Equal(t, vec(3, 4), pos)
	_, recorded := shared.LatestPosition()
	assert.False(t, recorded, "dead reckoning must not append to the position history")
}
