// Package httpapi exposes the creature and zone services as a JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"zoocore/internal/blob"
	"zoocore/internal/core"
)

const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to the service layer.
type Server struct {
	svc     *core.Service
	blobs   blob.Store
	metrics http.Handler
	logger  core.Logger
	tracer  trace.TracerProvider
	handler http.Handler
}

// Option customizes a Server.
type Option func(*Server)

// WithBlobStore enables POST /api/v1/rosters.
func WithBlobStore(store blob.Store) Option {
	return func(s *Server) { s.blobs = store }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(l core.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracerProvider wraps every request in an OpenTelemetry server span.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp }
}

// NewServer builds the router for svc.
func NewServer(svc *core.Service, opts ...Option) *Server {
	s := &Server{svc: svc, logger: nopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/creatures", s.listCreatures).Methods(http.MethodGet)
	api.HandleFunc("/creatures", s.createCreature).Methods(http.MethodPost)
	api.HandleFunc("/creatures/{id}", s.getCreature).Methods(http.MethodGet)
	api.HandleFunc("/creatures/{id}", s.updateCreature).Methods(http.MethodPut)
	api.HandleFunc("/creatures/{id}", s.deleteCreature).Methods(http.MethodDelete)
	api.HandleFunc("/creatures/{id}/zone", s.assignZone).Methods(http.MethodPut)
	api.HandleFunc("/creatures/{id}/zone", s.releaseFromZone).Methods(http.MethodDelete)
	api.HandleFunc("/zones", s.listZones).Methods(http.MethodGet)
	api.HandleFunc("/zones", s.createZone).Methods(http.MethodPost)
	api.HandleFunc("/zones/{id}", s.getZone).Methods(http.MethodGet)
	api.HandleFunc("/zones/{id}", s.updateZone).Methods(http.MethodPut)
	api.HandleFunc("/zones/{id}", s.deleteZone).Methods(http.MethodDelete)
	if s.blobs != nil {
		api.HandleFunc("/rosters", s.exportRoster).Methods(http.MethodPost)
		api.HandleFunc("/rosters", s.listRosters).Methods(http.MethodGet)
	}
	r.Use(s.logRequests)

	var h http.Handler = r
	if s.tracer != nil {
		h = otelhttp.NewHandler(r, "zoocore.http", otelhttp.WithTracerProvider(s.tracer))
	}
	s.handler = h
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if route := mux.CurrentRoute(r); route != nil {
			// The otelhttp span starts before routing; name it after the matched template.
			if tmpl, err := route.GetPathTemplate(); err == nil {
				trace.SpanFromContext(r.Context()).SetName(r.Method + " " + tmpl)
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
