package nav

import (
	"fmt"
	"math"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/state"
)

// TacticalProjection is how far from the enemy, through the foot point,
// the tactical waypoint is placed.
const TacticalProjection = 100.0

// ComputeTacticalWaypoint derives the waypoint from the enemy position, the
// enemy's aim bearing in degrees and the own position. It fails with
// ErrDomain when the aim vector is degenerate or the foot point lies within
// threshold of the enemy. ComputedAt is left for the caller to stamp.
func ComputeTacticalWaypoint(enemy geom.Vec2, bearingDeg float64, own geom.Vec2, threshold float64) (state.TacticalWaypoint, error) {
	if err := checkFinite(enemy.X, enemy.Z, bearingDeg, own.X, own.Z); err != nil {
		return state.TacticalWaypoint{}, err
	}

	theta := bearingDeg * math.Pi / 180
	dx, dz := math.Sin(theta), math.Cos(theta)
	x0, z0 := enemy.X, enemy.Z
	x1, z1 := own.X, own.Z

	den := dx*dx + dz*dz
	if den == 0 {
		return state.TacticalWaypoint{}, fmt.Errorf("%w: aim vector has zero length", ErrDomain)
	}
	foot := geom.Vec2{
		X: (dx*dx*x0 + dz*dz*x1 + dx*dz*(z0-z1)) / den,
		Z: (dz*dz*z0 + dx*dx*z1 + dx*dz*(x0-x1)) / den,
	}

	d := foot.Dist(enemy)
	if d <= threshold {
		return state.TacticalWaypoint{}, fmt.Errorf("%w: foot point %.2f from enemy, need more than %.2f", ErrDomain, d, threshold)
	}

	return state.TacticalWaypoint{
		Enemy:      enemy,
		Own:        own,
		BearingDeg: bearingDeg,
		Foot:       foot,
		Waypoint:   enemy.Add(foot.Sub(enemy).Scale(TacticalProjection / d)),
		Clearance:  d,
		Threshold:  threshold,
		Flankable:  dx*(x0-x1)+dz*(z0-z1) > 0,
	}, nil
}
