package nav

import (
	"math"

	"github.com/banshee-data/tanknav/internal/geom"
)

func vec(x, z float64) geom.Vec2 { return geom.Vec2{X: x, Z: z} }

func nan() float64 { return math.NaN() }
