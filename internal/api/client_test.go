package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tanknav/internal/httputil"
	"github.com/banshee-data/tanknav/internal/state"
)

func TestClientAgainstServer(t *testing.T) {
	ts := newTestServer(t, nil)
	srv := httptest.NewServer(ts.mux)
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL+"/", nil)

	require.NoError(t, c.Init(ctx))
	u, err := c.UpdatePosition(ctx, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "OK", u.Status)

	require.NoError(t, c.SetDestination(ctx, 0, 0, 20))
	cmd, err := c.GetMove(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, state.MoveStop, cmd.Move)
	require.NotNil(t, cmd.Next)

	require.NoError(t, c.UpdateObstacles(ctx, []state.LidarPoint{{X: 0, Z: 0.5}, {X: 0.2, Z: 0.5}, {X: -0.2, Z: 0.5}}))
	assert.Len(t, ts.nav.Shared().Points(), 3)
}

func TestClientErrors(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusBadRequest, `{"status":"ERROR","message":"missing position"}`).
		AddResponse(http.StatusInternalServerError, `oops`).
		AddError(errors.New("connection refused")).
		AddResponse(http.StatusOK, `not json`)

	c := NewClient("http://tank", mock)
	ctx := context.Background()

	_, err := c.UpdatePosition(ctx, 1, 2, 3)
	assert.ErrorContains(t, err, "missing position")

	err = c.SetDestination(ctx, 1, 2, 3)
	assert.ErrorContains(t, err, "unexpected status 500")

	_, err = c.GetMove(ctx)
	assert.ErrorContains(t, err, "connection refused")

	_, err = c.GetMove(ctx)
	assert.ErrorContains(t, err, "decode")

	req, body := mock.Request(1)
	require.NotNil(t, req)
	assert.Equal(t, "http://tank/set_destination", req.URL.String())
	assert.JSONEq(t, `{"destination":"1,2,3"}`, body)
}
