package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/bayesab/internal/adapters/httpapi"
	"github.com/alejandrodnm/bayesab/internal/application/inference"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `The 'serve' command exposes POST /v1/simulate, the run history under /v1/runs,
/healthz and Prometheus /metrics. Address, rate limit and sample cap come from the
'server' section of the config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		h := httpapi.NewHandlers(inference.NewService(store), cfg.Defaults(), httpapi.Limits{
			MaxSamples: cfg.Server.MaxSamples,
			MaxBins:    cfg.Server.MaxBins,
		})
		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RatePerSec), cfg.Server.Burst)

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpapi.NewRouter(h, limiter),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("bayesab listening",
				"addr", cfg.Server.Addr,
				"rate_per_sec", cfg.Server.RatePerSec,
				"burst", cfg.Server.Burst,
				"max_samples", cfg.Server.MaxSamples,
				"max_bins", cfg.Server.MaxBins,
				"history", store != nil,
			)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-cmd.Context().Done():
			slog.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
		}
		slog.Info("bayesab stopped cleanly")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
