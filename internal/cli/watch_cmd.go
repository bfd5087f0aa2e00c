package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/enertrack-console/metrics"
	"github.com/jrsteele09/enertrack-console/session"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the session refreshed and report when it ends",
		Long: `Holds the session open, refreshing the access token before it expires.
Stops when the session is logged out from another process, when a refresh is
rejected, or on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			if metricsAddr != "" {
				stop := serveMetrics(app, metricsAddr)
				defer stop()
			}

			username := "unknown user"
			if identity, ok := app.manager.Identity(); ok {
				username = identity.Username
			}
			fmt.Fprintf(app.out, "Watching the session of %s, press Ctrl+C to stop\n", username)

			select {
			case <-cmd.Context().Done():
				return nil
			case reason := <-app.observer.logouts:
				switch reason {
				case session.LogoutExternal:
					fmt.Fprintln(app.out, "Logged out by another session")
				case session.LogoutRefreshFailed:
					fmt.Fprintln(app.out, "Session expired")
				default:
					fmt.Fprintln(app.out, "Logged out")
				}
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve session metrics on this address, e.g. :9100")
	return cmd
}

func serveMetrics(app *App, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(app.registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.log.Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	app.log.Info().Str("addr", addr).Msg("serving session metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
