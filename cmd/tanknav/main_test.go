package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tanknav/internal/config"
)

func TestLoadTuning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"target_speed_kmh": 12}`), 0o600))

	cfg, err := loadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.GetTargetSpeedKmh())

	_, err = loadTuning(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	// Without a path the repository defaults are found or built in.
	cfg, err = loadTuning("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTargetSpeedKmh, cfg.GetTargetSpeedKmh())
}

func TestNewAppRoutes(t *testing.T) {
	a, err := newApp(config.DefaultTuningConfig(), filepath.Join(t.TempDir(), "run.db"), time.Second, false)
	require.NoError(t, err)
	defer a.closeDB()
	defer a.dashboard.Close()

	for _, path := range []string{"/init", "/get_move", "/api/telemetry", "/api/config", "/api/history/commands", "/dashboard"} {
		w := httptest.NewRecorder()
		a.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	req := httptest.NewRequest(http.MethodPost, "/update_position", strings.NewReader(`{"position":"1,0,1"}`))
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewAppWithoutDB(t *testing.T) {
	a, err := newApp(config.DefaultTuningConfig(), "", time.Second, false)
	require.NoError(t, err)
	defer a.dashboard.Close()
	assert.NoError(t, a.closeDB())

	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_move", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history/commands", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewAppResumesTuning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")

	first, err := newApp(config.DefaultTuningConfig(), path, time.Second, false)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	first.mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{"target_speed_kmh": 35}`)))
	require.Equal(t, http.StatusOK, w.Code)
	first.dashboard.Close()
	require.NoError(t, first.closeDB())

	for _, tc := range []struct {
		resume bool
		want   float64
	}{
		{resume: true, want: 35},
		{resume: false, want: config.DefaultTargetSpeedKmh},
	} {
		a, err := newApp(config.DefaultTuningConfig(), path, time.Second, tc.resume)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		a.mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var cfg config.ControlConfig
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
		assert.Equal(t, tc.want, cfg.TargetSpeedKmh, "resume=%v", tc.resume)

		a.dashboard.Close()
		require.NoError(t, a.closeDB())
	}
}
