package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rhuss/askgate/pkg/config"
	"github.com/rhuss/askgate/pkg/debug"
	"github.com/rhuss/askgate/pkg/observability"
	transporthttp "github.com/rhuss/askgate/pkg/transport/http"
)

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Run the standalone license verification service",
	Long: `Serve only POST /api/verify-license and health checks. A license key
is a Square order id or a Stripe PaymentIntent id, depending on
license.backend.`,
	RunE: runLicense,
}

func init() {
	rootCmd.AddCommand(licenseCmd)
}

func runLicense(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadLicense(cfgFile)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	verifier, err := newVerifier(cfg)
	if err != nil {
		return fmt.Errorf("creating license verifier: %w", err)
	}

	adapterCfg := transporthttp.Config{
		MaxBodySize: cfg.Server.MaxBodySize,
		Version:     version,
	}
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
	}
	adapter := transporthttp.NewAdapter(transporthttp.Backends{License: verifier}, adapterCfg)

	var handler http.Handler = observability.MetricsMiddleware(adapter.Handler())
	handler = transporthttp.CORS(corsPolicies(cfg.CORS))(handler)

	srv := transporthttp.NewServer(handler,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	slog.Info("license service starting", "port", cfg.Server.Port, "backend", verifier.Name())
	return runUntilSignal(cmd.Context(), srv)
}
