package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"zoocore/internal/blob"
	"zoocore/internal/config"
	"zoocore/internal/core"
	"zoocore/internal/logging"
	"zoocore/internal/observability"
)

// Runtime holds the wired dependencies one command invocation works with.
type Runtime struct {
	Config  config.Config
	Service *core.Service
	Logger  core.Logger
	// Blobs is nil when no blob driver is configured.
	Blobs blob.Store
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry
	// TracerProvider is nil when tracing is disabled.
	TracerProvider trace.TracerProvider

	closers []func(context.Context) error
}

// Close releases the store, flushes spans and syncs the logger.
func (r *Runtime) Close(ctx context.Context) error {
	var result *multierror.Error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	r.closers = nil
	return result.ErrorOrNil()
}

// Opener builds a Runtime from configuration.
type Opener func(ctx context.Context, cfg config.Config) (*Runtime, error)

// OpenRuntime is the production Opener.
func OpenRuntime(ctx context.Context, cfg config.Config) (*Runtime, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, Logger: logger}
	rt.closers = append(rt.closers, func(context.Context) error {
		_ = logger.Sync() // stdout sync fails on some platforms
		return nil
	})
	opened := false
	defer func() {
		if !opened {
			_ = rt.Close(ctx)
		}
	}()

	opts := []core.Option{
		core.WithLogger(logger.Named("service")),
		core.WithAuditRecorder(core.LoggingAuditRecorder{Logger: logger.Named("audit")}),
	}
	if cfg.Metrics.Enabled {
		rt.Registry = observability.NewRegistry()
		rec, err := observability.NewPrometheusRecorder(rt.Registry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithMetricsRecorder(rec))
	}
	if cfg.Tracing.Enabled {
		tp, shutdown, err := observability.SetupTracing(ctx, cfg.Tracing)
		if err != nil {
			return nil, err
		}
		rt.TracerProvider = tp
		rt.closers = append(rt.closers, shutdown)
		opts = append(opts, core.WithTracer(observability.NewOTelTracer(tp)))
	}

	store, err := core.OpenPersistentStore(cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		rt.closers = append(rt.closers, func(context.Context) error { return c.Close() })
	}
	rt.Service = core.NewService(store, opts...)

	blobs, err := blob.Open(ctx, cfg.Blob)
	switch {
	case errors.Is(err, blob.ErrDisabled):
	case err != nil:
		return nil, fmt.Errorf("open blob store: %w", err)
	default:
		rt.Blobs = blobs
	}
	opened = true
	return rt, nil
}
