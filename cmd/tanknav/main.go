package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/tanknav/internal/api"
	"github.com/banshee-data/tanknav/internal/config"
	"github.com/banshee-data/tanknav/internal/dashboard"
	"github.com/banshee-data/tanknav/internal/db"
	"github.com/banshee-data/tanknav/internal/monitoring"
	"github.com/banshee-data/tanknav/internal/nav"
	"github.com/banshee-data/tanknav/internal/state"
	"github.com/banshee-data/tanknav/internal/timeutil"
	"github.com/banshee-data/tanknav/internal/version"
)

var (
	listen       = flag.String("listen", ":5050", "Listen address")
	dbPath       = flag.String("db", "tanknav.db", "Telemetry database path (empty disables persistence)")
	configPath   = flag.String("config", "", "Tuning config JSON (default: search for "+config.DefaultConfigPath+")")
	debug        = flag.Bool("debug", false, "Log per-tick pursuit and obstacle traces")
	pushInterval = flag.Duration("push-interval", dashboard.DefaultPushInterval, "Telemetry websocket push interval")
	note         = flag.String("note", "", "Free-text note stored with this run")
	resumeTuning = flag.Bool("resume-tuning", false, "Start from the last tuning saved in the database")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// loadTuning reads the tuning file named by path, or the first default
// config found on disk, falling back to the built-in defaults.
func loadTuning(path string) (*config.TuningConfig, error) {
	if path != "" {
		return config.LoadTuningConfig(path)
	}
	for _, candidate := range []string{config.DefaultConfigPath, "../../" + config.DefaultConfigPath} {
		if cfg, err := config.LoadTuningConfig(candidate); err == nil {
			return cfg, nil
		}
	}
	log.Printf("no %s found, using built-in defaults", config.DefaultConfigPath)
	return config.DefaultTuningConfig(), nil
}

// app is everything the HTTP server needs, built from the flags.
type app struct {
	mux       *http.ServeMux
	dashboard *dashboard.Dashboard
	closeDB   func() error
}

func newApp(tuning *config.TuningConfig, path string, interval time.Duration, resume bool) (*app, error) {
	clock := timeutil.RealClock{}
	shared := state.NewShared(tuning.ToControl())

	a := &app{mux: http.NewServeMux(), closeDB: func() error { return nil }}
	navCfg := nav.NavigatorConfig{Clock: clock}
	var (
		tuningStore api.TuningStore
		history     api.HistoryStore
	)

	if path != "" {
		store, err := db.NewDB(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closeDB = store.Close
		if resume {
			cfg, ok, err := store.LatestTuningSnapshot()
			switch {
			case err != nil:
				log.Printf("failed to read last tuning snapshot: %v", err)
			case ok:
				shared.SetConfig(cfg)
				log.Printf("resumed tuning from %s", path)
			}
		}
		rec, err := store.NewRecorder(clock.Now(), *note)
		if err != nil {
			store.Close()
			return nil, err
		}
		if _, err := rec.SaveTuningSnapshot(clock.Now(), shared.Config()); err != nil {
			log.Printf("failed to save initial tuning snapshot: %v", err)
		}
		if err := store.AttachAdminRoutes(a.mux); err != nil {
			store.Close()
			return nil, err
		}
		log.Printf("recording run %s to %s", rec.RunID(), path)
		navCfg.Recorder = rec
		tuningStore = rec
		history = rec
	}

	navigator := nav.NewNavigator(shared, navCfg)
	srv := api.NewServer(navigator, clock, tuningStore)
	if history != nil {
		srv.SetHistory(history)
	}
	srv.Register(a.mux)

	a.dashboard = dashboard.New(shared, clock, interval)
	a.dashboard.Register(a.mux)
	return a, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	monitoring.SetDebug(*debug)
	log.Printf("starting %s", version.String())

	tuning, err := loadTuning(*configPath)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	a, err := newApp(tuning, *dbPath, *pushInterval, *resumeTuning)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer func() {
		if err := a.closeDB(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(a.mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("failed to start server: %v", err)
				stop()
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")
		a.dashboard.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
