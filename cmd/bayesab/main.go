package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/bayesab/config"
	"github.com/alejandrodnm/bayesab/internal/adapters/storage"
	"github.com/alejandrodnm/bayesab/internal/ports"
)

// opciones globales, compartidas por todos los subcomandos
var (
	configPath string
	verbose    bool
	logFormat  string
	dbPath     string
	noHistory  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bayesab",
	Short: "Bayesian A/B test inference",
	Long: `bayesab estimates P(B > A) for two variants of a conversion test by Monte Carlo
sampling of their Beta posteriors, and prints histograms of both posteriors and of
their difference with percentile markers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		if dbPath != "" {
			cfg.Storage.DSN = dbPath
		}
		setupLogger(cfg.Log)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "set log level to debug")
	pf.StringVar(&logFormat, "format", "", "log format: text|json (overrides config)")
	pf.StringVar(&dbPath, "db", "", "SQLite history file (overrides config)")
	pf.BoolVar(&noHistory, "no-history", false, "do not persist runs")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

// openStore abre el historial. Devuelve nil (sin error) con --no-history.
func openStore() (ports.RunStore, error) {
	if noHistory {
		return nil, nil
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN, cfg.Retention())
	if err != nil {
		return nil, fmt.Errorf("open history %q: %w", cfg.Storage.DSN, err)
	}
	return store, nil
}

// setupLogger escribe a stderr: stdout queda para los resultados.
func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
