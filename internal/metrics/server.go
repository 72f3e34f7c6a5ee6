package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes /metrics, /live and /ready.
type Server struct {
	addr   string
	health healthcheck.Handler
	mux    *http.ServeMux
	log    *zap.Logger
}

// NewServer builds the HTTP handlers for m. Call AddLivenessCheck and
// AddReadinessCheck before Run.
func NewServer(addr string, m *Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	health := healthcheck.NewHandler()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/live", health.LiveEndpoint)
	mux.HandleFunc("/ready", health.ReadyEndpoint)

	return &Server{
		addr:   addr,
		health: health,
		mux:    mux,
		log:    log.Named("metrics"),
	}
}

// AddLivenessCheck registers a check reported on /live.
func (s *Server) AddLivenessCheck(name string, check func() error) {
	s.health.AddLivenessCheck(name, check)
}

// AddReadinessCheck registers a check reported on /ready.
func (s *Server) AddReadinessCheck(name string, check func() error) {
	s.health.AddReadinessCheck(name, check)
}

// OnTrigger serves POST /trigger, calling fn and answering 202 Accepted.
func (s *Server) OnTrigger(fn func()) {
	s.mux.HandleFunc("POST /trigger", func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("cycle requested over HTTP", zap.String("remote", r.RemoteAddr))
		fn()
		w.WriteHeader(http.StatusAccepted)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("metrics server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		return nil
	}
}
