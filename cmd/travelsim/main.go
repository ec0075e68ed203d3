// Command travelsim runs a simulated journey engine: the travel command
// endpoints, the WebSocket push channel and, optionally, NATS push subjects.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	apihttp "github.com/nuaibria/travelsync/internal/adapter/http"
	"github.com/nuaibria/travelsync/internal/adapter/nats"
	"github.com/nuaibria/travelsync/internal/adapter/otel"
	"github.com/nuaibria/travelsync/internal/adapter/ws"
	"github.com/nuaibria/travelsync/internal/config"
	"github.com/nuaibria/travelsync/internal/logger"
	"github.com/nuaibria/travelsync/internal/sim"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultConfigFile, "path to the YAML config file")
	port := flag.String("port", "", "listen port")
	withNATS := flag.Bool("nats", false, "also publish on NATS subjects (remote.nats_url)")
	flag.Parse()

	var o config.Overrides
	if *port != "" {
		o.Port = port
	}
	cfg, err := config.LoadWithOverrides(*configPath, o)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cfg.Logging.Service = "travelsim"
	l, closer := logger.New(cfg.Logging)
	defer closer.Close()
	slog.SetDefault(l)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"tick", cfg.Server.Tick,
		"event_chance", cfg.Server.EventChance,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(sctx)
	}()

	// --- Engine and push transports ---

	engine := sim.NewEngine(sim.Options{
		Tick:         cfg.Server.Tick,
		MilesPerTick: cfg.Server.MilesPerTick,
		EventChance:  cfg.Server.EventChance,
		Seed:         cfg.Server.Seed,
	})

	hub := ws.NewHub(engine)
	engine.AddPublisher(hub)

	if *withNATS {
		broker, err := nats.Connect(cfg.Remote.NATSURL, engine)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = broker.Close() }()
		engine.AddPublisher(broker)
		slog.Info("nats connected", "url", cfg.Remote.NATSURL)
	}

	// --- HTTP ---

	router := apihttp.NewRouter(&apihttp.Handlers{Engine: engine}, apihttp.RouterConfig{
		ServiceName: "travelsim",
		Token:       cfg.Remote.Token,
		Push:        hub.HandleWS,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		engine.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
