package obstacle

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/state"
)

// Stats summarises the current obstacle field.
type Stats struct {
	ObstacleCount   int     `json:"obstacle_count"`
	AverageDistance float64 `json:"average_distance"`
}

// ComputeStats counts clusters and averages their centroid distance to
// ref, rounded to two decimals.
func ComputeStats(clusters []state.Cluster, ref geom.Vec2) Stats {
	s := Stats{ObstacleCount: len(clusters)}
	if len(clusters) == 0 {
		return s
	}
	d := make([]float64, len(clusters))
	for i, c := range clusters {
		d[i] = c.Centroid.Dist(ref)
	}
	s.AverageDistance = geom.Round2(stat.Mean(d, nil))
	return s
}
