package nav

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/state"
	"github.com/banshee-data/tanknav/internal/timeutil"
)

type fakeRecorder struct {
	mu        sync.Mutex
	positions int
	commands  []state.Command
	tactical  []state.TacticalWaypoint
}

func (f *fakeRecorder) RecordPosition(time.Time, state.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions++
	return nil
}

func (f *fakeRecorder) RecordCommand(_ time.Time, c state.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, c)
	return nil
}

func (f *fakeRecorder) RecordTactical(w state.TacticalWaypoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tactical = append(f.tactical, w)
	return nil
}

func newTestNavigator(t *testing.T) (*Navigator, *timeutil.MockClock, *fakeRecorder) {
	t.Helper()
	clock := timeutil.NewMockClock(epoch)
	rec := &fakeRecorder{}
	n := NewNavigator(state.NewShared(config.DefaultControlConfig()), NavigatorConfig{
		Clock:    clock,
		Rand:     rand.New(rand.NewSource(1)),
		Recorder: rec,
	})
	return n, clock, rec
}

func f64(v float64) *float64 { return &v }

func TestNavigatorForwardScenario(t *testing.T) {
	n, clock, rec := newTestNavigator(t)

	_, err := n.UpdatePosition(0, 0, 0)
	require.NoError(t, err)
	res, err := n.SetDestination(0, 0, 20)
	require.NoError(t, err)
	require.NotNil(t, res.InitialDistance)
	assert.Equal(t, 20.0, *res.InitialDistance)

	clock.Advance(time.Second)
	cmd := n.GetMove()
	assert.Equal(t, state.MoveForward, cmd.Move)
	assert.Greater(t, cmd.Weight, 0.0)
	require.NotNil(t, cmd.Next)
	assert.Greater(t, cmd.Next.Z, 0.0)

	// Dead reckoning was written back.
	pos, _, ok := n.Position()
	require.True(t, ok)
	assert.Equal(t, *cmd.Next, pos)

	snap := n.Shared().Snapshot(clock.Now())
	require.NotNil(t, snap.LastCommand)
	assert.Equal(t, state.MoveForward, snap.LastCommand.Move)
	assert.Len(t, rec.commands, 1)
	assert.Equal(t, 1, rec.positions)
}

func TestNavigatorArrival(t *testing.T) {
	n, _, _ := newTestNavigator(t)

	// Destination before any position: no initial distance.
	res, err := n.SetDestination(0.5, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, res.InitialDistance)

	_, err = n.UpdatePosition(0, 0, 0)
	require.NoError(t, err)
	res, err = n.SetDestination(0.5, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, res.InitialDistance)

	cmd := n.GetMove()
	assert.Equal(t, state.Stop(), cmd)
	_, ok := n.InitialDistance()
	assert.False(t, ok, "arrival clears the initial distance")
}

func TestNavigatorSetDestinationValidation(t *testing.T) {
	n, _, _ := newTestNavigator(t)
	_, err := n.SetDestination(1, 0, nan())
	assert.True(t, errors.Is(err, ErrValidation))
	_, ok := n.Destination()
	assert.False(t, ok)
}

func TestNavigatorPaused(t *testing.T) {
	n, _, _ := newTestNavigator(t)
	_, _ = n.UpdatePosition(0, 0, 0)
	_, _ = n.SetDestination(0, 0, 20)

	n.SetPaused(true)
	assert.True(t, n.Paused())
	assert.Equal(t, state.Stop(), n.GetMove())

	n.SetPaused(false)
	assert.NotEqual(t, state.MoveStop, n.GetMove().Move)
}

func TestNavigatorAvoidanceOverridesPursuit(t *testing.T) {
	n, _, _ := newTestNavigator(t)
	_, _ = n.UpdatePosition(0, 0, 0)
	_, _ = n.SetDestination(0, 0, 20)

	var pts []any
	for _, p := range [][2]float64{{-0.2, 0.5}, {0.2, 0.5}, {0, 0.7}, {0, 0.3}} {
		pts = append(pts, map[string]any{"position": map[string]any{"x": p[0], "y": 0.0, "z": p[1]}})
	}
	res, err := n.IngestObstacles(map[string]any{"lidarPoints": pts})
	require.NoError(t, err)
	require.Equal(t, 1, res.Clusters)

	cmd := n.GetMove()
	assert.Equal(t, state.Stop(), cmd)
	pos, _, _ := n.Position()
	assert.Equal(t, vec(0, 0), pos, "avoidance does not dead-reckon")

	stats := n.ObstacleStats()
	assert.Equal(t, 1, stats.ObstacleCount)
	assert.Equal(t, 0.5, stats.AverageDistance)
}

func TestNavigatorIngestObstaclesTypeError(t *testing.T) {
	n, _, _ := newTestNavigator(t)
	_, err := n.IngestObstacles([]any{"not", "an", "object"})
	assert.True(t, errors.Is(err, ErrType))
}

func TestNavigatorIngestSensorsTactical(t *testing.T) {
	n, _, rec := newTestNavigator(t)

	// Position only: no tactical computation.
	res, err := n.IngestSensors(SensorPayload{PlayerPos: &Vec3{X: 50}})
	require.NoError(t, err)
	require.NotNil(t, res.Position)
	assert.Nil(t, res.Tactical)

	// Enemy without any turret bearing yet: still nothing to compute.
	res, err = n.IngestSensors(SensorPayload{EnemyPos: &Vec3{}})
	require.NoError(t, err)
	assert.Nil(t, res.Tactical)

	res, err = n.IngestSensors(SensorPayload{PlayerPos: &Vec3{X: 50}, EnemyPos: &Vec3{}, EnemyTurretX: f64(0)})
	require.NoError(t, err)
	require.NotNil(t, res.Tactical)
	assert.InDelta(t, 100, res.Tactical.Waypoint.X, 1e-9)
	stored, ok := n.Shared().Tactical()
	require.True(t, ok)
	assert.Equal(t, *res.Tactical, stored)
	assert.Len(t, rec.tactical, 1)

	// The previous turret bearing is reused; the foot is too close this time.
	res, err = n.IngestSensors(SensorPayload{PlayerPos: &Vec3{X: 10}, EnemyPos: &Vec3{}})
	assert.True(t, errors.Is(err, ErrDomain))
	require.NotNil(t, res.Position, "the position update is applied before the tactical check")
	pos, _, _ := n.Position()
	assert.Equal(t, vec(10, 0), pos)

	// Invalid player position aborts before anything else.
	_, err = n.IngestSensors(SensorPayload{PlayerPos: &Vec3{X: nan()}})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNavigatorTacticalQuery(t *testing.T) {
	n, _, _ := newTestNavigator(t)

	_, err := n.TacticalWaypoint()
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = n.IngestSensors(SensorPayload{PlayerPos: &Vec3{X: 50}, EnemyPos: &Vec3{}, EnemyTurretX: f64(0)})
	require.NoError(t, err)

	// 50 clears the ingest threshold but not the query threshold.
	_, err = n.TacticalWaypoint()
	assert.True(t, errors.Is(err, ErrDomain))

	_, err = n.UpdatePosition(150, 0, 0)
	require.NoError(t, err)
	w, err := n.TacticalWaypoint()
	require.NoError(t, err)
	assert.Equal(t, 100.0, w.Threshold)
	assert.InDelta(t, 100, w.Waypoint.X, 1e-9)
}

func TestNavigatorPlanDetour(t *testing.T) {
	n, _, _ := newTestNavigator(t)
	_, err := n.PlanDetour()
	assert.True(t, errors.Is(err, ErrValidation))

	_, _ = n.UpdatePosition(0, 0, 0)
	_, _ = n.SetDestination(3, 0, 4)
	path, err := n.PlanDetour()
	require.NoError(t, err)
	assert.Equal(t, vec(3, 4), path[len(path)-1])
}

func TestNavigatorInit(t *testing.T) {
	n, clock, _ := newTestNavigator(t)
	_, _ = n.UpdatePosition(0, 0, 0)
	_, _ = n.SetDestination(0, 0, 20)
	_, _ = n.IngestSensors(SensorPayload{PlayerPos: &Vec3{X: 50}, EnemyPos: &Vec3{}, EnemyTurretX: f64(0)})
	n.SetPaused(true)
	n.GetMove()

	n.Init()

	_, _, ok := n.Position()
	assert.False(t, ok)
	_, ok = n.Destination()
	assert.False(t, ok)
	assert.False(t, n.Paused())
	snap := n.Shared().Snapshot(clock.Now())
	assert.Empty(t, snap.Positions)
	assert.Nil(t, snap.Tactical)
	assert.Nil(t, snap.LastCommand)
	assert.Equal(t, state.Stop(), n.GetMove())
}

func TestNavigatorConcurrentUse(t *testing.T) {
	n, _, _ := newTestNavigator(t)
	_, _ = n.SetDestination(0, 0, 50)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				switch g {
				case 0:
					_, _ = n.IngestSensors(SensorPayload{PlayerPos: &Vec3{X: float64(i % 3), Z: float64(i)}})
				case 1:
					n.GetMove()
				case 2:
					_, _ = n.IngestObstacles(map[string]any{"lidarPoints": []any{}})
				default:
					_ = n.Shared().Snapshot(time.Now())
					_ = n.ObstacleStats()
				}
			}
		}(g)
	}
	wg.Wait()
}
