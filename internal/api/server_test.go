package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/monitoring"
	"github.com/banshee-data/tanknav/internal/nav"
	"github.com/banshee-data/tanknav/internal/state"
	"github.com/banshee-data/tanknav/internal/timeutil"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	mux   *http.ServeMux
	clock *timeutil.MockClock
	nav   *nav.Navigator
}

func newTestServer(t *testing.T, tuning TuningStore) *testServer {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(orig) })

	clock := timeutil.NewMockClock(epoch)
	n := nav.NewNavigator(state.NewShared(config.DefaultControlConfig()), nav.NavigatorConfig{
		Clock: clock,
		Rand:  rand.New(rand.NewSource(1)),
	})
	s := NewServer(n, clock, tuning)
	return &testServer{Server: s, mux: s.ServeMux(), clock: clock, nav: n}
}

// call performs a request and decodes the JSON response into a map.
func (ts *testServer) call(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return w.Code, out
}

func TestInit(t *testing.T) {
	ts := newTestServer(t, nil)
	_, _ = ts.nav.UpdatePosition(1, 0, 1)

	code, body := ts.call(t, http.MethodGet, "/init", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "Simulation initialized", body["message"])

	_, _, known := ts.nav.Position()
	assert.False(t, known, "init forgets the position")

	code, body = ts.call(t, http.MethodPost, "/init", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Equal(t, "ERROR", body["status"])
}

func TestUpdatePosition(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"string form", `{"position":"1,0,2"}`, http.StatusOK},
		{"object form", `{"position":{"x":1,"y":0,"z":2}}`, http.StatusOK},
		{"missing position", `{}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"bad triple", `{"position":"1,2"}`, http.StatusBadRequest},
		{"non numeric", `{"position":"a,b,c"}`, http.StatusBadRequest},
		{"missing axis", `{"position":{"x":1,"z":2}}`, http.StatusBadRequest},
		{"wrong type", `{"position":[1,2,3]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			code, body := ts.call(t, http.MethodPost, "/update_position", tt.body)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantCode != http.StatusOK {
				assert.Equal(t, "ERROR", body["status"])
				assert.NotEmpty(t, body["message"])
				return
			}
			assert.Equal(t, "OK", body["status"])
			assert.Equal(t, map[string]interface{}{"x": 1.0, "z": 2.0}, body["current_position"])
			assert.Contains(t, body, "heading")
			assert.Contains(t, body, "speed_kh")
		})
	}
}

func TestSetDestination(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := ts.call(t, http.MethodPost, "/set_destination", `{"destination":"0,0,20"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["initial_distance"], "unknown position leaves the initial distance null")

	_, _ = ts.nav.UpdatePosition(0, 0, 0)
	code, body = ts.call(t, http.MethodPost, "/set_destination", `{"destination":{"x":0,"y":0,"z":20}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, 20.0, body["initial_distance"])
	assert.Equal(t, map[string]interface{}{"x": 0.0, "y": 0.0, "z": 20.0}, body["destination"])

	code, body = ts.call(t, http.MethodPost, "/set_destination", `{"destination":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ERROR", body["status"])

	code, _ = ts.call(t, http.MethodPost, "/set_destination", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetMove(t *testing.T) {
	ts := newTestServer(t, nil)

	// Nothing known yet.
	code, body := ts.call(t, http.MethodGet, "/get_move", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "STOP", body["move"])
	assert.Equal(t, 1.0, body["weight"])

	_, _ = ts.nav.UpdatePosition(0, 0, 0)
	_, _ = ts.nav.SetDestination(0, 0, 20)

	for _, path := range []string{"/get_move", "/get_action"} {
		code, body = ts.call(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, code)
		assert.NotEqual(t, "STOP", body["move"], path)
		assert.Greater(t, body["weight"].(float64), 0.0, path)
	}

	code, _ = ts.call(t, http.MethodPost, "/get_move", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestGetMovePaused(t *testing.T) {
	ts := newTestServer(t, nil)
	_, _ = ts.nav.UpdatePosition(0, 0, 0)
	_, _ = ts.nav.SetDestination(0, 0, 20)

	code, body := ts.call(t, http.MethodPost, "/api/pause", `{"paused":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["paused"])

	_, body = ts.call(t, http.MethodGet, "/get_move", "")
	assert.Equal(t, "STOP", body["move"])

	ts.call(t, http.MethodPost, "/api/pause", `{"paused":false}`)
	_, body = ts.call(t, http.MethodGet, "/get_move", "")
	assert.NotEqual(t, "STOP", body["move"])

	code, _ = ts.call(t, http.MethodPost, "/api/pause", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdateObstacleAndAvoid(t *testing.T) {
	ts := newTestServer(t, nil)
	_, _ = ts.nav.UpdatePosition(0, 0, 0)
	_, _ = ts.nav.SetDestination(0, 0, 20)

	payload := `{"lidarPoints":[
		{"position":{"x":-0.2,"y":0,"z":0.5},"isDetected":true},
		{"position":{"x":0.2,"y":0,"z":0.5},"isDetected":true},
		{"position":{"x":0,"y":0,"z":0.7},"isDetected":true},
		{"position":{"x":0,"y":0,"z":0.3},"isDetected":true},
		{"position":{"x":500,"y":0,"z":0}}
	]}`
	code, body := ts.call(t, http.MethodPost, "/update_obstacle", payload)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 4.0, body["points"])
	assert.Equal(t, 1.0, body["clusters"])

	_, body = ts.call(t, http.MethodGet, "/get_move", "")
	assert.Equal(t, "STOP", body["move"])

	code, body = ts.call(t, http.MethodGet, "/api/obstacles/stats", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["obstacle_count"])
	assert.Equal(t, 0.5, body["average_distance"])
}

func TestUpdateObstacleErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := ts.call(t, http.MethodPost, "/update_obstacle", `[1,2,3]`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ERROR", body["status"])

	code, _ = ts.call(t, http.MethodPost, "/update_obstacle", `{"other":1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	// An empty batch clears the field.
	code, body = ts.call(t, http.MethodPost, "/update_obstacle", `{"obstacles":[]}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["clusters"])
}

func TestInfoTactical(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := ts.call(t, http.MethodPost, "/info",
		`{"playerPos":{"x":50,"y":0,"z":0},"enemyPos":{"x":0,"y":0,"z":0},"enemyTurretX":0}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "OK", body["status"])
	tactical, ok := body["tactical"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 100, tactical["waypoint"].(map[string]interface{})["x"].(float64), 1e-9)

	// The foot of the perpendicular sits on the enemy: rejected.
	code, body = ts.call(t, http.MethodPost, "/info",
		`{"playerPos":{"x":0,"y":0,"z":30},"enemyPos":{"x":0,"y":0,"z":0},"enemyTurretX":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ERROR", body["status"])

	code, _ = ts.call(t, http.MethodPost, "/info", ``)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLoggingMiddleware(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_move", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestStatusCodeColor(t *testing.T) {
	assert.Contains(t, statusCodeColor(200), "200")
	assert.Contains(t, statusCodeColor(302), colorYellow)
	assert.Contains(t, statusCodeColor(404), colorBoldRed)
	assert.Contains(t, statusCodeColor(500), colorBoldRed)
	assert.Equal(t, "100", statusCodeColor(100))
}
