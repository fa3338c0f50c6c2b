package obstacle

import (
	"math"

	"github.com/banshee-data/tanknav/internal/geom"
)

// estimatedPointsPerCell sizes the initial grid map.
const estimatedPointsPerCell = 4

// SpatialIndex buckets ground-plane points into a regular grid so that a
// neighbourhood query only inspects the 3x3 cells around the query point.
// Cell size should match the query radius.
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // cell ID → point indices
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Build populates the index from points.
func (si *SpatialIndex) Build(points []geom.Vec2) {
	si.Grid = make(map[int64][]int, len(points)/estimatedPointsPerCell+1)
	for i, p := range points {
		id := cellID(si.cell(p.X), si.cell(p.Z))
		si.Grid[id] = append(si.Grid[id], i)
	}
}

func (si *SpatialIndex) cell(v float64) int64 {
	return int64(math.Floor(v / si.CellSize))
}

// cellID pairs two signed cell coordinates into one key: zigzag encoding
// to make them non-negative, then Szudzik's pairing function.
func cellID(cx, cz int64) int64 {
	a := zigzag(cx)
	b := zigzag(cz)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}

// RegionQuery returns the indices of all points within eps of points[idx],
// including idx itself.
func (si *SpatialIndex) RegionQuery(points []geom.Vec2, idx int, eps float64) []int {
	p := points[idx]
	eps2 := eps * eps
	cx, cz := si.cell(p.X), si.cell(p.Z)

	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dz := int64(-1); dz <= 1; dz++ {
			for _, j := range si.Grid[cellID(cx+dx, cz+dz)] {
				q := points[j]
				ddx := q.X - p.X
				ddz := q.Z - p.Z
				if ddx*ddx+ddz*ddz <= eps2 {
					neighbors = append(neighbors, j)
				}
			}
		}
	}
	return neighbors
}
