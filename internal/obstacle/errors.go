// Package obstacle turns ranging returns into obstacle clusters and answers
// avoidance, path-blocking and detour queries against them.
package obstacle

import "errors"

// ErrType reports an obstacle payload with the wrong shape.
var ErrType = errors.New("type error")
