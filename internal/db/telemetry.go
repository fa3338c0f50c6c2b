package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/state"
)

// Recorder appends navigation events for a single run. Each Recorder owns
// one row in runs; all events it writes carry that run ID.
type Recorder struct {
	db    *DB
	runID string
}

// NewRecorder starts a new run and returns a Recorder bound to it.
func (db *DB) NewRecorder(startedAt time.Time, note string) (*Recorder, error) {
	runID := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO runs (run_id, started_unix, note) VALUES (?, ?, ?)`,
		runID, unixSeconds(startedAt), note,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return &Recorder{db: db, runID: runID}, nil
}

// RunID returns the run this recorder writes to.
func (r *Recorder) RunID() string { return r.runID }

// RecordPosition stores one vehicle estimate.
func (r *Recorder) RecordPosition(at time.Time, v state.Vehicle) error {
	_, err := r.db.Exec(
		`INSERT INTO positions (run_id, ts_unix, x, z, heading_deg, speed_kmh) VALUES (?, ?, ?, ?, ?, ?)`,
		r.runID, unixSeconds(at), v.Position.X, v.Position.Z, v.HeadingDeg, v.SpeedKmh,
	)
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	return nil
}

// RecordCommand stores one issued command.
func (r *Recorder) RecordCommand(at time.Time, c state.Command) error {
	var nextX, nextZ sql.NullFloat64
	if c.Next != nil {
		nextX = sql.NullFloat64{Float64: c.Next.X, Valid: true}
		nextZ = sql.NullFloat64{Float64: c.Next.Z, Valid: true}
	}
	_, err := r.db.Exec(
		`INSERT INTO commands (run_id, ts_unix, move, weight, message, obstacle, next_x, next_z)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.runID, unixSeconds(at), string(c.Move), c.Weight, c.Message, boolInt(c.Obstacle), nextX, nextZ,
	)
	if err != nil {
		return fmt.Errorf("failed to insert command: %w", err)
	}
	return nil
}

// RecordTactical stores a computed tactical waypoint.
func (r *Recorder) RecordTactical(w state.TacticalWaypoint) error {
	_, err := r.db.Exec(
		`INSERT INTO tactical_waypoints
		 (run_id, ts_unix, enemy_x, enemy_z, bearing_deg, foot_x, foot_z, waypoint_x, waypoint_z, clearance, flankable)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.runID, unixSeconds(w.ComputedAt), w.Enemy.X, w.Enemy.Z, w.BearingDeg,
		w.Foot.X, w.Foot.Z, w.Waypoint.X, w.Waypoint.Z, w.Clearance, boolInt(w.Flankable),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tactical waypoint: %w", err)
	}
	return nil
}

// SaveTuningSnapshot stores cfg as JSON and returns the snapshot ID.
func (r *Recorder) SaveTuningSnapshot(at time.Time, cfg config.ControlConfig) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode tuning: %w", err)
	}
	id := uuid.NewString()
	_, err = r.db.Exec(
		`INSERT INTO tuning_snapshots (snapshot_id, run_id, ts_unix, config_json) VALUES (?, ?, ?, ?)`,
		id, r.runID, unixSeconds(at), string(raw),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert tuning snapshot: %w", err)
	}
	return id, nil
}

// LatestTuningSnapshot returns the most recent tuning stored by any run.
// The boolean is false when none has been saved.
func (db *DB) LatestTuningSnapshot() (config.ControlConfig, bool, error) {
	var raw string
	err := db.QueryRow(
		`SELECT config_json FROM tuning_snapshots ORDER BY ts_unix DESC, rowid DESC LIMIT 1`,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return config.ControlConfig{}, false, nil
	}
	if err != nil {
		return config.ControlConfig{}, false, err
	}
	var cfg config.ControlConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return config.ControlConfig{}, false, fmt.Errorf("failed to decode tuning snapshot: %w", err)
	}
	return cfg, true, nil
}

// CommandRow is a stored command with its timestamp.
type CommandRow struct {
	At      time.Time     `json:"at"`
	Command state.Command `json:"command"`
}

// RecentCommands returns up to limit commands of this run, newest first.
func (r *Recorder) RecentCommands(limit int) ([]CommandRow, error) {
	rows, err := r.db.Query(
		`SELECT ts_unix, move, weight, COALESCE(message, ''), obstacle, next_x, next_z
		 FROM commands WHERE run_id = ? ORDER BY ts_unix DESC, rowid DESC LIMIT ?`,
		r.runID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CommandRow
	for rows.Next() {
		var (
			ts           float64
			move         string
			obstacle     int
			nextX, nextZ sql.NullFloat64
			row          CommandRow
		)
		if err := rows.Scan(&ts, &move, &row.Command.Weight, &row.Command.Message, &obstacle, &nextX, &nextZ); err != nil {
			return nil, err
		}
		row.At = fromUnixSeconds(ts)
		row.Command.Move = state.Move(move)
		row.Command.Obstacle = obstacle != 0
		if nextX.Valid && nextZ.Valid {
			row.Command.Next = &geom.Vec2{X: nextX.Float64, Z: nextZ.Float64}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PositionRow is a stored vehicle estimate.
type PositionRow struct {
	At         time.Time `json:"at"`
	Position   geom.Vec2 `json:"position"`
	HeadingDeg float64   `json:"heading_deg"`
	SpeedKmh   float64   `json:"speed_kmh"`
}

// Positions returns the positions of this run recorded in [start, end],
// oldest first.
func (r *Recorder) Positions(start, end time.Time) ([]PositionRow, error) {
	rows, err := r.db.Query(
		`SELECT ts_unix, x, z, heading_deg, speed_kmh FROM positions
		 WHERE run_id = ? AND ts_unix BETWEEN ? AND ? ORDER BY ts_unix ASC, rowid ASC`,
		r.runID, unixSeconds(start), unixSeconds(end),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PositionRow
	for rows.Next() {
		var ts float64
		var p PositionRow
		if err := rows.Scan(&ts, &p.Position.X, &p.Position.Z, &p.HeadingDeg, &p.SpeedKmh); err != nil {
			return nil, err
		}
		p.At = fromUnixSeconds(ts)
		out = append(out, p)
	}
	return out, rows.Err()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(s float64) time.Time {
	return time.Unix(0, int64(s*1e9)).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
