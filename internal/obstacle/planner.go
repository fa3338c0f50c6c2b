package obstacle

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/monitoring"
	"github.com/banshee-data/tanknav/internal/state"
)

// MaxDetourPoints caps the length of a synthesized detour.
const MaxDetourPoints = 100

// PathPlanner answers segment-blocking and detour queries over clusters.
type PathPlanner struct{}

// IsObstacleInPath reports whether any cluster point projects onto the
// segment from→to and lies closer than radius to it. A zero-length
// segment is never blocked.
func (PathPlanner) IsObstacleInPath(from, to geom.Vec2, clusters []state.Cluster, radius float64) bool {
	if len(clusters) == 0 || !from.IsFinite() || !to.IsFinite() {
		return false
	}
	seg := to.Sub(from)
	length := seg.Norm()
	if length == 0 {
		return false
	}
	dir := seg.Scale(1 / length)

	for _, c := range clusters {
		for _, p := range c.Points {
			rel := p.Sub(from)
			proj := rel.Dot(dir)
			if proj < 0 || proj > length {
				continue
			}
			closest := from.Add(dir.Scale(proj))
			if p.Dist(closest) < radius {
				return true
			}
		}
	}
	return false
}

// FindAlternativePath walks from start toward goal in radius-sized steps.
// A step landing within radius of an obstacle point is pushed sideways by
// radius, to whichever side has more clearance. The walk ends within
// radius of the goal or once the path exceeds MaxDetourPoints; the goal is
// always the last point. Without obstacle points the path is just the
// goal.
func (PathPlanner) FindAlternativePath(start, goal geom.Vec2, clusters []state.Cluster, radius float64) []geom.Vec2 {
	var pts kdtree.Points
	for _, c := range clusters {
		for _, p := range c.Points {
			pts = append(pts, kdtree.Point{p.X, p.Z})
		}
	}
	if len(pts) == 0 || radius <= 0 {
		return []geom.Vec2{goal}
	}
	tree := kdtree.New(pts, false)
	clearance := func(v geom.Vec2) float64 {
		_, d2 := tree.Nearest(kdtree.Point{v.X, v.Z})
		return math.Sqrt(d2)
	}

	path := []geom.Vec2{start}
	current := start
	for current.Dist(goal) > radius {
		dir := goal.Sub(current).Unit()
		next := current.Add(dir.Scale(radius))
		if clearance(next) < radius {
			perp := geom.Vec2{X: -dir.Z, Z: dir.X}
			left := next.Add(perp.Scale(radius))
			right := next.Sub(perp.Scale(radius))
			if clearance(left) > clearance(right) {
				next = left
			} else {
				next = right
			}
		}
		path = append(path, next)
		current = next
		if len(path) > MaxDetourPoints {
			break
		}
	}

	path = append(path, goal)
	monitoring.Debugf("[PathPlanner] detour with %d points", len(path))
	return path
}
