package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const watchEventBuffer = 16

func newWatchCmd(app *App) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the running mode live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metricsAddr != "" {
				stop, err := serveMetrics(app, metricsAddr)
				if err != nil {
					return err
				}
				defer stop()
				fmt.Fprintf(cmd.ErrOrStderr(), "metrics on http://%s/metrics\n", metricsAddr)
			}

			events, cancel := app.Loop.Subscribe(watchEventBuffer)
			defer cancel()

			run := app.RunProgram
			if run == nil {
				run = func(m tea.Model) error {
					_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
					return err
				}
			}
			return run(newWatchModel(app.Loop, events, app.now))
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while watching")
	return cmd
}

// serveMetrics starts a /metrics endpoint for app.Metrics and returns a func
// that shuts it down.
func serveMetrics(app *App, addr string) (func(), error) {
	if app.Metrics == nil {
		return nil, errors.New("metrics are not enabled")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.Metrics, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
