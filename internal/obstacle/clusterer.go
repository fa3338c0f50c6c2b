package obstacle

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/monitoring"
)

// Bounds of the self-tuned neighbourhood radius.
const (
	MinAdaptiveEps   = 1.0
	MaxAdaptiveEps   = 5.0
	adaptiveEpsScale = 1.5
)

// DBSCANParams contains parameters for the DBSCAN clustering algorithm.
type DBSCANParams struct {
	Eps        float64 // neighbourhood radius
	MinSamples int     // neighbours (self included) needed for a core point
}

// DBSCAN groups points by density. Points not reachable from a core point
// are noise and do not appear in the result. Groups are returned in label
// order.
func DBSCAN(points []geom.Vec2, params DBSCANParams) [][]geom.Vec2 {
	if len(points) == 0 {
		return nil
	}

	n := len(points)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=cluster
	clusterID := 0

	si := NewSpatialIndex(params.Eps)
	si.Build(points)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := si.RegionQuery(points, i, params.Eps)
		if len(neighbors) < params.MinSamples {
			labels[i] = -1
			continue
		}
		clusterID++
		expandCluster(points, si, labels, i, neighbors, clusterID, params)
	}

	groups := make([][]geom.Vec2, 0, clusterID)
	for cid := 1; cid <= clusterID; cid++ {
		var members []geom.Vec2
		for i, label := range labels {
			if label == cid {
				members = append(members, points[i])
			}
		}
		if len(members) > 0 {
			groups = append(groups, members)
		}
	}
	return groups
}

func expandCluster(points []geom.Vec2, si *SpatialIndex, labels []int,
	seed int, neighbors []int, clusterID int, params DBSCANParams) {

	labels[seed] = clusterID
	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]
		if labels[idx] == -1 {
			labels[idx] = clusterID // noise becomes a border point
		}
		if labels[idx] != 0 {
			continue
		}
		labels[idx] = clusterID
		next := si.RegionQuery(points, idx, params.Eps)
		if len(next) >= params.MinSamples {
			neighbors = append(neighbors, next...)
		}
	}
}

// NearestNeighbourDistances returns, for each point, the distance to its
// nearest other point. It returns nil for fewer than two points.
func NearestNeighbourDistances(points []geom.Vec2) []float64 {
	if len(points) < 2 {
		return nil
	}
	// kdtree.New reorders its input, so build from a copy.
	pts := make(kdtree.Points, len(points))
	for i, p := range points {
		pts[i] = kdtree.Point{p.X, p.Z}
	}
	tree := kdtree.New(pts, false)

	out := make([]float64, len(points))
	for i, p := range points {
		keep := kdtree.NewNKeeper(2)
		tree.NearestSet(keep, kdtree.Point{p.X, p.Z})
		var d2 float64
		for _, c := range keep.Heap {
			if c.Comparable != nil && c.Dist > d2 {
				d2 = c.Dist
			}
		}
		out[i] = math.Sqrt(d2)
	}
	return out
}

// Clusterer runs DBSCAN with a radius tuned to the point density of each
// frame.
type Clusterer struct {
	params DBSCANParams
}

// NewClusterer creates a clusterer. eps is only used when a frame has too
// few points to estimate density.
func NewClusterer(eps float64, minSamples int) *Clusterer {
	return &Clusterer{params: DBSCANParams{Eps: eps, MinSamples: minSamples}}
}

// SetParams updates the clustering parameters.
func (c *Clusterer) SetParams(params DBSCANParams) { c.params = params }

// Params returns the current clustering parameters.
func (c *Clusterer) Params() DBSCANParams { return c.params }

// AdjustEps returns clamp(1.5 × mean nearest-neighbour distance, 1, 5).
func (c *Clusterer) AdjustEps(points []geom.Vec2) float64 {
	nn := NearestNeighbourDistances(points)
	if len(nn) == 0 {
		return c.params.Eps
	}
	return geom.Clamp(stat.Mean(nn, nil)*adaptiveEpsScale, MinAdaptiveEps, MaxAdaptiveEps)
}

// ClusterObstacles clusters points into member lists sorted by centroid
// (X, then Z). Any numeric failure yields an empty result and a log line.
func (c *Clusterer) ClusterObstacles(points []geom.Vec2) (groups [][]geom.Vec2) {
	if len(points) == 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("[Clusterer] clustering failed: %v", r)
			groups = nil
		}
	}()

	for _, p := range points {
		if !p.IsFinite() {
			monitoring.Logf("[Clusterer] clustering failed: %v", fmt.Errorf("non-finite point %+v", p))
			return nil
		}
	}

	params := c.params
	params.Eps = c.AdjustEps(points)
	if math.IsNaN(params.Eps) || params.Eps <= 0 {
		monitoring.Logf("[Clusterer] clustering failed: invalid eps %v", params.Eps)
		return nil
	}

	groups = DBSCAN(points, params)
	centroids := make([]geom.Vec2, len(groups))
	for i, g := range groups {
		centroids[i] = geom.Centroid(g)
	}
	sort.Sort(byCentroid{groups, centroids})

	monitoring.Debugf("[Clusterer] %d points → %d clusters (eps=%.2f)", len(points), len(groups), params.Eps)
	return groups
}

type byCentroid struct {
	groups    [][]geom.Vec2
	centroids []geom.Vec2
}

func (b byCentroid) Len() int { return len(b.groups) }
func (b byCentroid) Less(i, j int) bool {
	if b.centroids[i].X != b.centroids[j].X {
		return b.centroids[i].X < b.centroids[j].X
	}
	return b.centroids[i].Z < b.centroids[j].Z
}
func (b byCentroid) Swap(i, j int) {
	b.groups[i], b.groups[j] = b.groups[j], b.groups[i]
	b.centroids[i], b.centroids[j] = b.centroids[j], b.centroids[i]
}
