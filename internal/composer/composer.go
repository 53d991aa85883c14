// Package composer provides the preview composer: a reverse proxy that
// consumes a stackable's metadata and routes requests to the application
// under its configured prefix, the way a host composer would.
package composer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitebridge/vitebridge/internal/logger"
	"github.com/vitebridge/vitebridge/pkg/stackable"
)

// DefaultPort is the preview composer's default listen port.
const DefaultPort = 3042

// Server is the preview composer HTTP server.
type Server struct {
	server       *http.Server
	stk          stackable.Stackable
	shutdownOnce sync.Once
}

// NewServer creates a composer routing to the given stackable. The
// server is created stopped; call Start to begin serving.
func NewServer(port int, stk stackable.Stackable) *Server {
	if port == 0 {
		port = DefaultPort
	}
	s := &Server{stk: stk}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(s.handleProxy)

	s.server = &http.Server{
		Addr:        fmt.Sprintf("127.0.0.1:%d", port),
		Handler:     r,
		IdleTimeout: 120 * time.Second,
	}
	return s
}

// Addr returns the composer's listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	logger.Info("composer listening", "addr", s.server.Addr)

	select {
	case <-ctx.Done():
		return s.Stop(context.Background())
	case err := <-errChan:
		return err
	}
}

// Stop shuts the composer down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err = s.server.Shutdown(shutdownCtx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// handleProxy routes a request according to the stackable's current
// metadata. The application wants absolute URLs, so the original path is
// forwarded unchanged rather than prefix-stripped.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	meta := s.stk.Meta()
	if meta.Composer == nil {
		proxyErrors.WithLabelValues("not_started").Inc()
		http.Error(w, "application not started", http.StatusServiceUnavailable)
		return
	}

	if prefix := meta.Composer.Prefix; prefix != "" {
		mount := "/" + prefix
		if r.URL.Path != mount && !strings.HasPrefix(r.URL.Path, mount+"/") {
			proxyErrors.WithLabelValues("outside_prefix").Inc()
			http.NotFound(w, r)
			return
		}
	}

	target, err := url.Parse(meta.Composer.URL)
	if err != nil {
		proxyErrors.WithLabelValues("bad_target").Inc()
		http.Error(w, "invalid application url", http.StatusBadGateway)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		proxyErrors.WithLabelValues("upstream").Inc()
		logger.Warn("proxy error", "path", r.URL.Path, "error", err)
		http.Error(w, "application not responding", http.StatusBadGateway)
	}

	proxyRequests.Inc()
	proxy.ServeHTTP(w, r)
}

// requestLogger logs composer requests through the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("composer request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
