// Package api exposes the Navigator over the simulator's HTTP/JSON control
// protocol, plus the telemetry and tuning routes used by operators.
package api

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/nav"
	"github.com/banshee-data/tanknav/internal/timeutil"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxBodyBytes bounds every request body. Lidar batches are the largest.
const maxBodyBytes = 8 << 20

// TuningStore persists tuning changes made through POST /api/config.
type TuningStore interface {
	SaveTuningSnapshot(at time.Time, cfg config.ControlConfig) (string, error)
}

type Server struct {
	nav     *nav.Navigator
	clock   timeutil.Clock
	tuning  TuningStore
	history HistoryStore
}

// NewServer wraps n. A nil clock means the real clock; tuning may be nil.
func NewServer(n *nav.Navigator, clock timeutil.Clock, tuning TuningStore) *Server {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{nav: n, clock: clock, tuning: tuning}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack passes through so websocket upgrades work behind the middleware.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	lrw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns a mux with the control and telemetry routes registered.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// Register adds the routes to an existing mux.
func (s *Server) Register(mux *http.ServeMux) {
	// Simulator control protocol.
	mux.HandleFunc("/init", s.handleInit)
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/update_position", s.handleUpdatePosition)
	mux.HandleFunc("/set_destination", s.handleSetDestination)
	mux.HandleFunc("/get_move", s.handleGetMove)
	mux.HandleFunc("/get_action", s.handleGetMove)
	mux.HandleFunc("/update_obstacle", s.handleUpdateObstacle)

	// Operator routes.
	mux.HandleFunc("/api/telemetry", s.handleTelemetry)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/obstacles/stats", s.handleObstacleStats)
	mux.HandleFunc("/api/detour", s.handleDetour)
	mux.HandleFunc("/api/tactical", s.handleTactical)
	mux.HandleFunc("/api/history/commands", s.handleCommandHistory)
	mux.HandleFunc("/api/history/positions", s.handlePositionHistory)
}
