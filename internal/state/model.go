// Package state holds the records exchanged between the navigation
// components and the mutex-guarded context they share.
package state

import (
	"time"

	"github.com/banshee-data/tanknav/internal/geom"
)

// Move is the wire value of a discrete drive command.
type Move string

// Avoidance and stop directives.
const (
	MoveStop      Move = "STOP"
	MoveSlowDown  Move = "SLOW_DOWN"
	MoveTurnLeft  Move = "TURN_LEFT"
	MoveTurnRight Move = "TURN_RIGHT"
)

// Pursuit drive directives, using the simulator's key bindings.
const (
	MoveForward Move = "W"
	MoveBack    Move = "S"
	MoveLeft    Move = "A"
	MoveRight   Move = "D"
)

// Command is the result of a move query.
type Command struct {
	Move     Move    `json:"move"`
	Weight   float64 `json:"weight"`
	Message  string  `json:"message,omitempty"`
	Obstacle bool    `json:"obstacle,omitempty"`

	// Next is the dead-reckoned position after applying the command, when
	// the command moves the vehicle.
	Next *geom.Vec2 `json:"next_position,omitempty"`
}

// Stop returns a STOP command with full weight.
func Stop() Command { return Command{Move: MoveStop, Weight: 1} }

// LidarPoint is a ranging return that passed the range gate. Meta keeps
// whatever else the sensor attached to the return.
type LidarPoint struct {
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	Z    float64        `json:"z"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Ground returns the point projected onto the ground plane.
func (p LidarPoint) Ground() geom.Vec2 { return geom.Vec2{X: p.X, Z: p.Z} }

// Cluster is a group of obstacle points found by density clustering.
// ID is stable across ticks while the obstacle keeps being matched;
// Index is the position in the current cluster list.
type Cluster struct {
	ID       string      `json:"id"`
	Index    int         `json:"index"`
	Points   []geom.Vec2 `json:"points"`
	Centroid geom.Vec2   `json:"centroid"`
}

// TacticalWaypoint is the flanking point derived from an enemy's aim line.
type TacticalWaypoint struct {
	Enemy      geom.Vec2 `json:"enemy"`
	Own        geom.Vec2 `json:"own"`
	BearingDeg float64   `json:"bearing_deg"`
	Foot       geom.Vec2 `json:"foot"`
	Waypoint   geom.Vec2 `json:"waypoint"`
	Clearance  float64   `json:"clearance"`
	Threshold  float64   `json:"threshold"`
	Flankable  bool      `json:"flankable"`
	ComputedAt time.Time `json:"computed_at"`
}

// Vehicle is the latest estimated vehicle state as published for telemetry.
type Vehicle struct {
	Known      bool      `json:"known"`
	Position   geom.Vec2 `json:"position"`
	HeadingDeg float64   `json:"heading_deg"`
	SpeedKmh   float64   `json:"speed_kmh"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PIDTelemetry reports the speed regulator gains and integral.
type PIDTelemetry struct {
	Kp       float64 `json:"kp"`
	Ki       float64 `json:"ki"`
	Kd       float64 `json:"kd"`
	Integral float64 `json:"integral"`
}
