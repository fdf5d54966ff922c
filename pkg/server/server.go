// Package server runs the BREAD HTTP handler with request draining and
// graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/config"
	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// ShutdownCallback runs after the HTTP server has stopped, e.g. to close the database
type ShutdownCallback func(context.Context) error

// Server wraps http.Server. Once shutdown begins new requests get 503 and
// Shutdown waits for the ones in flight before stopping the listener.
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	drainTimeout    time.Duration

	mu       sync.Mutex
	inFlight int64
	draining bool
	idle     chan struct{}
	hooks    []ShutdownCallback

	once sync.Once
	done chan struct{}
}

func withDefaults(cfg config.ServerConfig) config.ServerConfig {
	durations := []struct {
		v   *time.Duration
		def time.Duration
	}{
		{&cfg.ShutdownTimeout, 30 * time.Second},
		{&cfg.DrainTimeout, 25 * time.Second},
		{&cfg.ReadTimeout, 10 * time.Second},
		{&cfg.WriteTimeout, 10 * time.Second},
		{&cfg.IdleTimeout, 120 * time.Second},
	}
	for _, d := range durations {
		if *d.v <= 0 {
			*d.v = d.def
		}
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg
}

// New creates a server for handler. Zero timeouts get defaults and
// responses of 1KiB and more are gzip-compressed when cfg.GZIP is set.
func New(cfg config.ServerConfig, handler http.Handler) (*Server, error) {
	if handler == nil {
		return nil, errors.New("server: nil handler")
	}
	cfg = withDefaults(cfg)

	if cfg.GZIP {
		wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
		if err != nil {
			return nil, fmt.Errorf("server: gzip: %w", err)
		}
		handler = wrap(handler)
	}

	s := &Server{
		shutdownTimeout: cfg.ShutdownTimeout,
		drainTimeout:    cfg.DrainTimeout,
		idle:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.track(handler),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) Addr() string { return s.http.Addr }

// track counts requests in flight and turns new ones away while draining
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.enter() {
			writeJSON(w, http.StatusServiceUnavailable, common.Response{
				Error: &common.APIError{Code: "service_unavailable", Message: "Server is shutting down"},
			})
			return
		}
		defer s.leave()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.inFlight++
	return true
}

func (s *Server) leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if s.draining && s.inFlight == 0 {
		close(s.idle)
	}
}

// beginDrain stops admitting requests; idle closes once none are left
func (s *Server) beginDrain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return
	}
	s.draining = true
	if s.inFlight == 0 {
		close(s.idle)
	}
}

// drain waits until every admitted request has finished
func (s *Server) drain(ctx context.Context) error {
	start := time.Now()
	select {
	case <-s.idle:
		logger.Info("All requests drained in %v", time.Since(start))
		return nil
	case <-ctx.Done():
		left := s.InFlightRequests()
		logger.Warn("Drain timeout exceeded with %d requests still in flight", left)
		return fmt.Errorf("drain timeout exceeded: %d requests still in flight", left)
	}
}

// ListenAndServe serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or the server fails.
// A cancelled ctx triggers a graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	failed := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", ln.Addr())
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down: %v", context.Cause(ctx))
		return s.Shutdown(context.Background())
	}
}

// OnShutdown registers cb to run after the HTTP server stops. Callbacks run
// in registration order.
func (s *Server) OnShutdown(cb ShutdownCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, cb)
}

// Shutdown drains in-flight requests, stops the server and runs the
// shutdown callbacks. Later calls return nil without doing anything.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	s.once.Do(func() {
		defer close(s.done)
		s.beginDrain()

		ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
		drainCtx, cancelDrain := context.WithTimeout(ctx, s.drainTimeout)
		defer cancelDrain()

		if err := s.drain(drainCtx); err != nil {
			errs = append(errs, err)
		}
		if err := s.http.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown: %v", err)
			errs = append(errs, err)
		}

		s.mu.Lock()
		hooks := append([]ShutdownCallback(nil), s.hooks...)
		s.mu.Unlock()
		for i, cb := range hooks {
			if err := cb(ctx); err != nil {
				logger.Error("Shutdown callback %d failed: %v", i+1, err)
				errs = append(errs, err)
			}
		}
		logger.Info("Shutdown complete")
	})
	return errors.Join(errs...)
}

func (s *Server) InFlightRequests() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Server) IsShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

// Wait blocks until Shutdown has finished
func (s *Server) Wait() { <-s.done }

// HealthCheckHandler answers 200 while serving and 503 once shutdown begins
func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.IsShuttingDown() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// ReadinessHandler also reports the number of requests in flight
func (s *Server) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.IsShuttingDown() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"ready": false, "reason": "shutting_down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ready": true, "in_flight_requests": s.InFlightRequests()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}
