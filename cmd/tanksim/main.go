// Command tanksim drives a running tanknav server with an idealised vehicle
// that moves exactly to each dead-reckoned position it is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/tanknav/internal/api"
	"github.com/banshee-data/tanknav/internal/geom"
	"github.com/banshee-data/tanknav/internal/nav"
	"github.com/banshee-data/tanknav/internal/state"
)

var (
	server   = flag.String("server", "http://localhost:5050", "tanknav base URL")
	start    = flag.String("start", "0,0,0", "Start position x,y,z")
	dest     = flag.String("dest", "0,0,20", "Destination x,y,z")
	steps    = flag.Int("steps", 500, "Maximum number of move queries")
	interval = flag.Duration("interval", 50*time.Millisecond, "Delay between ticks")
)

// drive runs the simulated vehicle until it is told to stop near the
// destination, the step budget runs out or ctx ends. It returns the final
// position and the number of ticks taken.
func drive(ctx context.Context, c *api.Client, from, to nav.Vec3, maxSteps int, every time.Duration) (geom.Vec2, int, error) {
	if err := c.Init(ctx); err != nil {
		return geom.Vec2{}, 0, err
	}
	if _, err := c.UpdatePosition(ctx, from.X, from.Y, from.Z); err != nil {
		return geom.Vec2{}, 0, err
	}
	if err := c.SetDestination(ctx, to.X, to.Y, to.Z); err != nil {
		return geom.Vec2{}, 0, err
	}

	pos := geom.Vec2{X: from.X, Z: from.Z}
	goal := geom.Vec2{X: to.X, Z: to.Z}
	for i := 1; i <= maxSteps; i++ {
		cmd, err := c.GetMove(ctx)
		if err != nil {
			return pos, i, err
		}
		if cmd.Move == state.MoveStop && cmd.Next == nil {
			return pos, i, nil
		}
		if cmd.Next != nil {
			pos = *cmd.Next
		}
		if _, err := c.UpdatePosition(ctx, pos.X, from.Y, pos.Z); err != nil {
			return pos, i, err
		}
		if every > 0 {
			select {
			case <-ctx.Done():
				return pos, i, ctx.Err()
			case <-time.After(every):
			}
		}
	}
	return pos, maxSteps, fmt.Errorf("destination (%.1f, %.1f) not reached after %d steps", goal.X, goal.Z, maxSteps)
}

func parseVec3(s string) (nav.Vec3, error) {
	x, y, z, err := nav.ParseTriple(s)
	return nav.Vec3{X: x, Y: y, Z: z}, err
}

func main() {
	flag.Parse()

	from, err := parseVec3(*start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	to, err := parseVec3(*dest)
	if err != nil {
		log.Fatalf("invalid -dest: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pos, n, err := drive(ctx, api.NewClient(*server, nil), from, to, *steps, *interval)
	if err != nil {
		log.Printf("stopped at (%.2f, %.2f) after %d ticks: %v", pos.X, pos.Z, n, err)
		os.Exit(1)
	}
	log.Printf("arrived at (%.2f, %.2f) after %d ticks", pos.X, pos.Z, n)
}
