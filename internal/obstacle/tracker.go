package obstacle

import (
	"sort"

	"github.com/google/uuid"

	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/state"
)

// ClusterTracker gives clusters an identity that survives re-clustering.
// Each new cluster inherits the ID of the closest unclaimed cluster from
// the previous frame whose centroid lies within the match radius.
type ClusterTracker struct {
	prev  []state.Cluster
	newID func() string
}

// NewClusterTracker creates a tracker that mints random UUIDs.
func NewClusterTracker() *ClusterTracker {
	return &ClusterTracker{newID: uuid.NewString}
}

type matchCandidate struct {
	cur, prev int
	dist      float64
}

// Assign builds clusters from groups, carrying IDs over from the previous
// call. Index is the position in groups.
func (t *ClusterTracker) Assign(groups [][]geom.Vec2, matchRadius float64) []state.Cluster {
	clusters := make([]state.Cluster, len(groups))
	for i, g := range groups {
		clusters[i] = state.Cluster{Index: i, Points: g, Centroid: geom.Centroid(g)}
	}

	var candidates []matchCandidate
	for i := range clusters {
		for j := range t.prev {
			d := clusters[i].Centroid.Dist(t.prev[j].Centroid)
			if d <= matchRadius {
				candidates = append(candidates, matchCandidate{cur: i, prev: j, dist: d})
			}
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].dist < candidates[b].dist })

	usedPrev := make(map[int]bool, len(t.prev))
	for _, c := range candidates {
		if clusters[c.cur].ID != "" || usedPrev[c.prev] {
			continue
		}
		clusters[c.cur].ID = t.prev[c.prev].ID
		usedPrev[c.prev] = true
	}
	for i := range clusters {
		if clusters[i].ID == "" {
			clusters[i].ID = t.newID()
		}
	}

	t.prev = clusters
	return clusters
}

// Reset forgets all previously seen clusters.
func (t *ClusterTracker) Reset() { t.prev = nil }
