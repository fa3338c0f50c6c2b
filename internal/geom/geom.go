// Package geom holds the planar (x, z) primitives shared by the navigation
// and obstacle packages. The ground plane uses the simulator convention:
// x to the east, z to the north, headings measured clockwise from +z.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec2 is a point or direction on the ground plane.
type Vec2 struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// R2 converts to gonum's planar vector (Z is carried in the Y slot).
func (v Vec2) R2() r2.Vec { return r2.Vec{X: v.X, Y: v.Z} }

// FromR2 converts back from gonum's planar vector.
func FromR2(v r2.Vec) Vec2 { return Vec2{X: v.X, Z: v.Y} }

// Add returns v+w.
func (v Vec2) Add(w Vec2) Vec2 { return FromR2(r2.Add(v.R2(), w.R2())) }

// Sub returns v-w.
func (v Vec2) Sub(w Vec2) Vec2 { return FromR2(r2.Sub(v.R2(), w.R2())) }

// Scale returns f*v.
func (v Vec2) Scale(f float64) Vec2 { return FromR2(r2.Scale(f, v.R2())) }

// Dot returns the dot product of v and w.
func (v Vec2) Dot(w Vec2) float64 { return r2.Dot(v.R2(), w.R2()) }

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 { return r2.Norm(v.R2()) }

// Dist returns the Euclidean distance between v and w.
func (v Vec2) Dist(w Vec2) float64 { return v.Sub(w).Norm() }

// Unit returns v scaled to unit length. The zero vector is returned as-is.
func (v Vec2) Unit() Vec2 {
	if v.Norm() == 0 {
		return v
	}
	return FromR2(r2.Unit(v.R2()))
}

// IsFinite reports whether both components are finite numbers.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Bearing returns the heading (radians) of the direction v, clockwise from +z.
func Bearing(v Vec2) float64 { return math.Atan2(v.X, v.Z) }

// HeadingVector returns the unit direction for a heading in radians.
func HeadingVector(heading float64) Vec2 {
	return Vec2{X: math.Sin(heading), Z: math.Cos(heading)}
}

// NormalizeAngle wraps a radian angle into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Atan2(math.Sin(a), math.Cos(a))
	if a == -math.Pi {
		return math.Pi
	}
	return a
}

// WrapDegrees wraps a degree angle into [-180, 180).
func WrapDegrees(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}

// Centroid returns the mean of pts. It returns the zero vector for an empty slice.
func Centroid(pts []Vec2) Vec2 {
	if len(pts) == 0 {
		return Vec2{}
	}
	var sx, sz float64
	for _, p := range pts {
		sx += p.X
		sz += p.Z
	}
	n := float64(len(pts))
	return Vec2{X: sx / n, Z: sz / n}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
