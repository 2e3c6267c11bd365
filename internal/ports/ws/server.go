// Package ws hosts the lobby service over plain WebSockets, without Nakama.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"thirteen/internal/app"
	"thirteen/internal/config"
	"thirteen/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// Server routes HTTP and WebSocket traffic to a Hub.
type Server struct {
	cfg      *config.ServerConfig
	svc      *app.Service
	hub      *Hub
	logger   runtime.Logger
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithRecorder records connection and request metrics through recorder.
func WithRecorder(recorder *telemetry.Recorder) Option {
	return func(s *Server) {
		s.hub.recorder = recorder
	}
}

// WithGatherer serves metrics from gatherer instead of the default registry.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

func NewServer(cfg *config.ServerConfig, svc *app.Service, logger runtime.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		svc:      svc,
		hub:      NewHub(svc, logger, nil),
		logger:   logger,
		gatherer: prometheus.DefaultGatherer,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || cfg.OriginAllowed(origin)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub returns the dispatch loop; callers must Run it before serving.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/lobbies/{code}", s.handleLobbyInfo)
	r.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	return r
}

// ListenAndServe runs the hub and the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		s.logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WS upgrade error: %v", err)
		return
	}

	c := newClient(uuid.NewString(), s.hub, conn)
	if !s.hub.submit(hubOp{kind: opRegister, client: c}) {
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump(s.cfg.MaxMessageBytes)
}

func (s *Server) handleLobbyInfo(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Describe(chi.URLParam(r, "code"))
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(summary)
}
