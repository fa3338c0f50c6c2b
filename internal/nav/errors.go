// Package nav implements the vehicle's state estimation, speed regulation,
// pure-pursuit steering and the Navigator that orchestrates them.
package nav

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/tanknav/internal/obstacle"
)

var (
	// ErrValidation reports malformed numeric or shape input. No state is
	// mutated when it is returned.
	ErrValidation = errors.New("validation error")
	// ErrDomain reports degenerate geometry. Only the current computation
	// is aborted.
	ErrDomain = errors.New("domain error")
	// ErrType reports a payload of the wrong kind.
	ErrType = obstacle.ErrType
)

// ParseTriple parses "x,y,z" into three finite numbers.
func ParseTriple(s string) (x, y, z float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: expected \"x,y,z\", got %q", ErrValidation, s)
	}
	var v [3]float64
	for i, p := range parts {
		f, perr := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if perr != nil {
			return 0, 0, 0, fmt.Errorf("%w: coordinate %d: %v", ErrValidation, i, perr)
		}
		v[i] = f
	}
	if err := checkFinite(v[0], v[1], v[2]); err != nil {
		return 0, 0, 0, err
	}
	return v[0], v[1], v[2], nil
}

func checkFinite(vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate %v", ErrValidation, v)
		}
	}
	return nil
}
