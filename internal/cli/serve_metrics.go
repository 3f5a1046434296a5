package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// NewServeMetricsCmd creates the command that exposes Prometheus metrics.
func NewServeMetricsCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics and a health endpoint",
		Long: `Opens the configured reference store and serves /metrics and /healthz
until interrupted. /healthz fails when the store does not answer.`,
		Example: `  carbonledger serve-metrics --addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if addr == "" {
				addr = cfg.Metrics.Addr
			}

			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				srv := &http.Server{
					Addr:              addr,
					Handler:           newMetricsMux(a),
					ReadHeaderTimeout: readHeaderTimeout,
				}

				errCh := make(chan error, 1)
				go func() {
					errCh <- srv.ListenAndServe()
				}()
				logger.Info().Ctx(ctx).Str("addr", addr).Msg("serving metrics")
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on %s\n", addr)

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return fmt.Errorf("metrics server: %w", err)
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// newMetricsMux routes /metrics to the app's registry and /healthz to a
// store probe.
func newMetricsMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", a.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.healthCheck(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
