package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/askgate/pkg/auth/basic"
	"github.com/rhuss/askgate/pkg/config"
	"github.com/rhuss/askgate/pkg/debug"
	"github.com/rhuss/askgate/pkg/engine"
	"github.com/rhuss/askgate/pkg/provider/registry"
	"github.com/rhuss/askgate/pkg/session"
	"github.com/rhuss/askgate/pkg/session/memory"
	"github.com/rhuss/askgate/pkg/transport"
	transporthttp "github.com/rhuss/askgate/pkg/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway server",
	Long: `Run the full gateway: /ask, /article, /data, /api/verify-license,
/login, /status, /toggle, health checks, and metrics.

Provider keys are reloaded when the config file changes.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.New(cfg)
	if err != nil {
		return fmt.Errorf("creating providers: %w", err)
	}
	defer reg.Close()

	sessStore := memory.New(cfg.Session.MaxSize, cfg.Session.TTL)
	defer sessStore.Close()
	sessions := session.NewManager(sessStore, cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure)

	toggle := engine.NewToggle(cfg.Engine.Enabled)
	eng, err := engine.New(reg, sessStore, toggle, engine.Config{
		SystemPrompt:  cfg.Engine.SystemPrompt,
		MaxInputRunes: cfg.Engine.MaxInputRunes,
		MaxTokens:     cfg.Engine.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	telem, checks, err := newTelemetryStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating telemetry store: %w", err)
	}
	if telem != nil {
		defer telem.Close()
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		return fmt.Errorf("creating license verifier: %w", err)
	}

	users := basic.NewUsers(adminUsers(cfg))

	if path := config.DiscoverConfigFile(cfgFile); path != "" {
		w, err := config.NewWatcher(path, reg.UpdateKeys, logger)
		if err != nil {
			return fmt.Errorf("creating config watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		} else {
			defer w.Stop()
		}
	}

	backends := transporthttp.Backends{
		Answerer:  eng,
		Articles:  eng,
		Toggle:    toggle,
		Sessions:  sessions,
		Telemetry: telem,
		License:   verifier,
		Providers: reg.Names,
	}
	if users.Len() > 0 {
		backends.Users = users
	}

	adapterCfg := transporthttp.Config{
		MaxBodySize: cfg.Server.MaxBodySize,
		Version:     version,
		ReadyChecks: checks,
	}
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
	}

	adapter := transporthttp.NewAdapter(backends, adapterCfg,
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(logger),
	)

	chain := newAuthChain(cfg, sessions, users)
	handler := buildHandler(adapter.Handler(), cfg, chain, newLimiter(cfg))

	srv := transporthttp.NewServer(handler,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	)

	logger.Info("askgate starting",
		"version", version,
		"port", cfg.Server.Port,
		"providers", reg.Names(),
		"telemetry", cfg.Telemetry.Type,
		"license", cfg.License.Backend,
		"auth", cfg.Auth.Type,
		"enabled", toggle.Enabled(),
	)
	return srv.Run(ctx, nil)
}

// runUntilSignal serves until SIGINT or SIGTERM.
func runUntilSignal(parent context.Context, srv *transporthttp.Server) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, nil)
}
