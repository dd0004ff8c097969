// Package server is the lazyhydrate HTTP service.
//
// Routes:
//
//	POST /compile?file=<name>  compile the request body, reply with JSON
//	GET  /kinds                the trigger catalog
//	GET  /metrics              Prometheus metrics
//	GET  /ws                   activation bridge (WebSocket), only with OnConnect
//	GET  /healthz              liveness
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/lazyhydrate/pkg/bridge"
	"github.com/vango-dev/lazyhydrate/pkg/compiler"
	"github.com/vango-dev/lazyhydrate/pkg/diag"
	"github.com/vango-dev/lazyhydrate/pkg/strategy"
)

// Config configures the service.
type Config struct {
	// Addr is the listen address (default ":7331").
	Addr string

	// MaxBodySize bounds compile requests (default 1 MiB).
	MaxBodySize int64

	// Strict fails compiles on warnings.
	Strict bool

	// Bridge configures bridge connections.
	Bridge bridge.Config

	// CheckOrigin validates WebSocket origins. Default: same origin.
	CheckOrigin func(*http.Request) bool

	// OnConnect is called for every bridge connection before its read
	// loop starts. Mount lazy instances against the Conn here. When nil,
	// /ws is not served.
	OnConnect func(r *http.Request, conn *bridge.Conn)

	// Registry receives the service metrics. Default: a fresh registry.
	Registry *prometheus.Registry

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the HTTP service.
type Server struct {
	config   Config
	router   chi.Router
	upgrader websocket.Upgrader
	metrics  *compiler.Metrics
	logger   *slog.Logger
}

// New creates a Server.
func New(config Config) *Server {
	if config.Addr == "" {
		config.Addr = ":7331"
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 1 << 20
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Bridge.Logger == nil {
		config.Bridge.Logger = logger
	}

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: config.CheckOrigin,
		},
		metrics: compiler.NewMetrics(compiler.WithRegistry(config.Registry)),
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

// Registry returns the metrics registry, for registering dispatcher
// metrics next to the service's own.
func (s *Server) Registry() *prometheus.Registry {
	return s.config.Registry
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/compile", s.handleCompile)
	r.Get("/kinds", s.handleKinds)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	if s.config.OnConnect != nil {
		r.Get("/ws", s.handleBridge)
	}
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("lazyhydrate service listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// CompileResponse is the body of a successful POST /compile.
type CompileResponse struct {
	File        string    `json:"file"`
	Code        string    `json:"code"`
	Changed     bool      `json:"changed"`
	Failed      bool      `json:"failed"`
	Diagnostics diag.List `json:"diagnostics"`
}

// KindResponse is one entry of GET /kinds.
type KindResponse struct {
	Kind     string `json:"kind"`
	Suffix   string `json:"suffix"`
	Expected string `json:"expected"`
	Default  string `json:"default"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		file = "input.vue"
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	out, err := compiler.Compile(r.Context(), file, string(body), compiler.Options{
		Strict:  s.config.Strict,
		Metrics: s.metrics,
	})
	if err != nil {
		s.logger.Warn("compile failed", "file", file, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	diags := out.Diagnostics
	if diags == nil {
		diags = diag.List{}
	}
	writeJSON(w, http.StatusOK, CompileResponse{
		File:        out.Filename,
		Code:        out.Code,
		Changed:     out.Changed,
		Failed:      out.Err() != nil,
		Diagnostics: diags,
	})
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	all := strategy.All()
	kinds := make([]KindResponse, 0, len(all))
	for _, d := range all {
		kinds = append(kinds, KindResponse{
			Kind:     d.Kind.String(),
			Suffix:   d.Suffix,
			Expected: d.Expected.String(),
			Default:  d.DefaultString(),
		})
	}
	writeJSON(w, http.StatusOK, kinds)
}

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	conn := bridge.NewConn(ws, s.config.Bridge)
	s.logger.Debug("bridge connected", "remote", r.RemoteAddr)
	s.config.OnConnect(r, conn)
	conn.ReadLoop()
	s.logger.Debug("bridge disconnected", "remote", r.RemoteAddr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
