// Package dashboard renders the operator views of the live telemetry: an
// echarts page, a trajectory PNG and a websocket push stream.
package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/tanknav/internal/state"
	"github.com/banshee-data/tanknav/internal/timeutil"
)

// DefaultPushInterval matches the refresh rate of the old polling page.
const DefaultPushInterval = time.Second

// Dashboard serves the operator views over one shared context.
type Dashboard struct {
	shared   *state.Shared
	clock    timeutil.Clock
	interval time.Duration
	upgrader websocket.Upgrader

	closeOnce sync.Once
	quit      chan struct{}
}

// New creates a dashboard over shared. A nil clock means the real clock and
// a non-positive interval means DefaultPushInterval.
func New(shared *state.Shared, clock timeutil.Clock, interval time.Duration) *Dashboard {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if interval <= 0 {
		interval = DefaultPushInterval
	}
	return &Dashboard{
		shared:   shared,
		clock:    clock,
		interval: interval,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		quit:     make(chan struct{}),
	}
}

// Register mounts the dashboard routes on mux.
func (d *Dashboard) Register(mux *http.ServeMux) {
	mux.HandleFunc("/dashboard", d.handlePage)
	mux.HandleFunc("/dashboard/trajectory.png", d.handleTrajectory)
	mux.HandleFunc("/ws/telemetry", d.handleWS)
}

// Close ends every open push stream. Hijacked connections are not closed by
// http.Server.Shutdown, so callers shutting down should call this too.
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() { close(d.quit) })
}

func (d *Dashboard) snapshot() state.Telemetry {
	return d.shared.Snapshot(d.clock.Now())
}
