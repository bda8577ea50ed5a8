package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zoocore/internal/adapters/httpapi"
	"zoocore/internal/observability"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: a.withRuntime(func(ctx context.Context, _ *cobra.Command, rt *Runtime, _ []string) error {
			if addr == "" {
				addr = rt.Config.HTTP.Addr
			}
			opts := []httpapi.Option{httpapi.WithLogger(rt.Logger)}
			if rt.Blobs != nil {
				opts = append(opts, httpapi.WithBlobStore(rt.Blobs))
			}
			if rt.Registry != nil {
				opts = append(opts, httpapi.WithMetricsHandler(observability.Handler(rt.Registry)))
			}
			if rt.TracerProvider != nil {
				opts = append(opts, httpapi.WithTracerProvider(rt.TracerProvider))
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return httpapi.NewServer(rt.Service, opts...).ListenAndServe(ctx, addr)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides http.addr)")
	return cmd
}
