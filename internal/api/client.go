package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/tanknav/internal/httputil"
	"github.com/banshee-data/tanknav/internal/nav"
	"github.com/banshee-data/tanknav/internal/state"
)

// Client speaks the simulator side of the control protocol. It is used by
// the offline driver to exercise a running server.
type Client struct {
	base string
	http httputil.HTTPClient
}

// NewClient targets baseURL (for example "http://localhost:5000").
func NewClient(baseURL string, c httputil.HTTPClient) *Client {
	if c == nil {
		c = httputil.NewStandardClient(nil)
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: c}
}

func (c *Client) Init(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/init", nil, nil)
}

func (c *Client) UpdatePosition(ctx context.Context, x, y, z float64) (nav.PositionUpdate, error) {
	var out nav.PositionUpdate
	body := map[string]interface{}{"position": nav.Vec3{X: x, Y: y, Z: z}}
	err := c.do(ctx, http.MethodPost, "/update_position", body, &out)
	return out, err
}

func (c *Client) SetDestination(ctx context.Context, x, y, z float64) error {
	body := map[string]interface{}{"destination": fmt.Sprintf("%g,%g,%g", x, y, z)}
	return c.do(ctx, http.MethodPost, "/set_destination", body, nil)
}

func (c *Client) GetMove(ctx context.Context) (state.Command, error) {
	var cmd state.Command
	err := c.do(ctx, http.MethodGet, "/get_move", nil, &cmd)
	return cmd, err
}

// UpdateObstacles posts a lidar batch.
func (c *Client) UpdateObstacles(ctx context.Context, points []state.LidarPoint) error {
	raw := make([]map[string]interface{}, len(points))
	for i, p := range points {
		raw[i] = map[string]interface{}{
			"position":   map[string]float64{"x": p.X, "y": p.Y, "z": p.Z},
			"isDetected": true,
		}
	}
	return c.do(ctx, http.MethodPost, "/update_obstacle", map[string]interface{}{"lidarPoints": raw}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		var e httputil.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return fmt.Errorf("%s %s: %d: %s", method, path, resp.StatusCode, e.Message)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
