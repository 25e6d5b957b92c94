package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Amund211/conduction/internal/config"
	"github.com/Amund211/conduction/internal/logging"
	"github.com/Amund211/conduction/internal/reporting"
	"github.com/Amund211/conduction/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "conduction-demo",
	Short: "Conduction demo - exercise the fetch coordination library",
	Long: `Conduction-demo drives the conduction library end to end: coalesced
fetches through a coordinator registry, observable value fan-out,
request validation and step flow coordination.

Configuration is read from the environment (CONDUCTION_ENVIRONMENT,
SENTRY_DSN, OTEL_EXPORTER_OTLP_ENDPOINT). The demo defaults to the
development environment when CONDUCTION_ENVIRONMENT is unset.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// setupRuntime loads config and initializes logging, error reporting and
// metrics export. Call the returned cleanup before exit.
func setupRuntime(ctx context.Context) (context.Context, *slog.Logger, func(), error) {
	if _, ok := os.LookupEnv("CONDUCTION_ENVIRONMENT"); !ok {
		os.Setenv("CONDUCTION_ENVIRONMENT", "development")
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New("conduction-demo", verbose)
	logger.Debug("Loaded config", "config", conf.NonSensitiveString())

	flushSentry, err := reporting.InitSentryOrMock(conf)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	cleanup := flushSentry
	if conf.OTelEndpoint() != "" {
		shutdownMetrics, err := telemetry.SetupOTelSDK(ctx, "conduction-demo", version)
		if err != nil {
			flushSentry()
			return nil, nil, nil, fmt.Errorf("failed to set up metrics export: %w", err)
		}
		logger.Debug("Exporting metrics", "endpoint", conf.OTelEndpoint())
		cleanup = func() {
			if err := shutdownMetrics(context.Background()); err != nil {
				logger.Error("Failed to shut down metrics export", "error", err.Error())
			}
			flushSentry()
		}
	}

	ctx = logging.AddToContext(ctx, logger)
	ctx = reporting.AddHubToContext(ctx)
	ctx = reporting.SetStartedAtInContext(ctx, time.Now())

	return ctx, logger, cleanup, nil
}
