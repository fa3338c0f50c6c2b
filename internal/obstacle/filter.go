package obstacle

import (
	"encoding/json"
	"math"

	"github.com/banshee-data/tanknav/internal/state"
)

// Usable sensor range on the ground plane, exclusive at both ends.
const (
	MinRange = 0.05
	MaxRange = 100.0
)

// FilterPoints keeps returns that carry a position with numeric x and z
// and lie within (MinRange, MaxRange) of the sensor. Anything else is
// dropped silently.
func FilterPoints(raw []any) []state.LidarPoint {
	filtered := make([]state.LidarPoint, 0, len(raw))
	for _, entry := range raw {
		p, ok := parseReturn(entry)
		if !ok {
			continue
		}
		r := math.Hypot(p.X, p.Z)
		if r > MinRange && r < MaxRange {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func parseReturn(entry any) (state.LidarPoint, bool) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return state.LidarPoint{}, false
	}
	pos, ok := obj["position"].(map[string]any)
	if !ok {
		return state.LidarPoint{}, false
	}
	x, okX := number(pos["x"])
	z, okZ := number(pos["z"])
	if !okX || !okZ {
		return state.LidarPoint{}, false
	}
	y, _ := number(pos["y"])

	p := state.LidarPoint{X: x, Y: y, Z: z}
	for k, v := range obj {
		if k == "position" {
			continue
		}
		if p.Meta == nil {
			p.Meta = make(map[string]any, len(obj)-1)
		}
		p.Meta[k] = v
	}
	return p, true
}

// number accepts the numeric forms a JSON decoder can produce.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
