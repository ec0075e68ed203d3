package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nuaibria/travelsync/internal/adapter/otel"
	"github.com/nuaibria/travelsync/internal/config"
	"github.com/nuaibria/travelsync/internal/logger"
)

var version = "dev"

// app holds the state shared by all subcommands once configuration is loaded.
type app struct {
	configPath string
	flags      struct{ actor, baseURL, pushURL, transport, logLevel string }

	cfg      *config.Config
	log      logger.Closer
	shutdown otel.ShutdownFunc
	metrics  *otel.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "travelsync",
		Short:         "Follow and drive a journey on the remote journey engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultConfigFile, "path to the YAML config file")
	flags.StringVar(&a.flags.actor, "actor", "", "actor (character) whose journey is tracked")
	flags.StringVar(&a.flags.baseURL, "base-url", "", "command endpoint base URL")
	flags.StringVar(&a.flags.pushURL, "push-url", "", "WebSocket push channel URL")
	flags.StringVar(&a.flags.transport, "transport", "", `push transport: "ws" or "nats"`)
	flags.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newWatchCmd(a),
		newStartCmd(a),
		newChooseCmd(a),
		newCancelCmd(a),
		newStatusCmd(a),
		newInspectCmd(a),
	)
	return root
}

// overrides returns the flags the user actually passed.
func (a *app) overrides(cmd *cobra.Command) config.Overrides {
	changed := func(name string, v *string) *string {
		if cmd.Flags().Changed(name) {
			return v
		}
		return nil
	}
	return config.Overrides{
		ActorID:   changed("actor", &a.flags.actor),
		BaseURL:   changed("base-url", &a.flags.baseURL),
		PushURL:   changed("push-url", &a.flags.pushURL),
		Transport: changed("transport", &a.flags.transport),
		LogLevel:  changed("log-level", &a.flags.logLevel),
	}
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadWithOverrides(a.configPath, a.overrides(cmd))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Actor.ID == "" {
		return errors.New("actor is required (--actor, TRAVELSYNC_ACTOR_ID or actor.id)")
	}
	a.cfg = cfg

	l, closer := logger.New(cfg.Logging)
	slog.SetDefault(l)
	a.log = closer

	shutdown, err := otel.Setup(cmd.Context(), cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.shutdown = shutdown

	m, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	a.metrics = m

	slog.Debug("config loaded",
		"actor_id", cfg.Actor.ID,
		"base_url", cfg.Remote.BaseURL,
		"transport", cfg.Remote.Transport,
	)
	return nil
}

func (a *app) close() {
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}
	if a.log != nil {
		a.log.Close()
	}
}
