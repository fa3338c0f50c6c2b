package obstacle

import (
	"encoding/json"
	"testing"
)

func lidarPoint(x, z float64) map[string]any {
	return map[string]any{"position": map[string]any{"x": x, "y": 0.0, "z": z}}
}

func TestFilterPoints(t *testing.T) {
	raw := []any{
		// r=5, kept
		lidarPoint(3, 4),
		// too close
		lidarPoint(0.01, 0.0),
		// too far
		lidarPoint(80, 80),
		// boundary, excluded
		lidarPoint(0, 100),
		// no z
		map[string]any{"position": map[string]any{"x": 1.0}},
		// bad shape
		map[string]any{"position": "nope"},
		// non-numeric
		map[string]any{"position": map[string]any{"x": "1", "z": 2.0}},
		"garbage",
		nil,
		map[string]any{"position": map[string]any{"x": json.Number("2"), "z": 2}, "distance": 2.8},
	}

	got := FilterPoints(raw)
	if len(got) != 2 {
		t.Fatalf("FilterPoints kept %d points, want 2: %+v", len(got), got)
	}
	if got[0].X != 3 || got[0].Z != 4 {
		t.Errorf("first point = %+v, want (3,4)", got[0])
	}
	if got[1].X != 2 || got[1].Z != 2 {
		t.Errorf("second point = %+v, want (2,2)", got[1])
	}
	if got[1].Meta["distance"] != 2.8 {
		t.Errorf("metadata not preserved: %+v", got[1].Meta)
	}
	if got[0].Meta != nil {
		t.Errorf("expected no metadata on first point, got %+v", got[0].Meta)
	}
}

func TestFilterPointsEmpty(t *testing.T) {
	if got := FilterPoints(nil); len(got) != 0 {
		t.Errorf("FilterPoints(nil) = %v, want empty", got)
	}
}
