package api

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"

	"incidentdash/config"
	"incidentdash/core/dashboard"
	"incidentdash/core/loader"
	"incidentdash/core/store"
	"incidentdash/core/telemetry"
	"incidentdash/core/utils"
)

// BackgroundWorker is started with the server and stopped on shutdown.
type BackgroundWorker interface {
	StartWithContext(ctx context.Context) error
	StopWithContext(ctx context.Context) error
}

type ServerDeps struct {
	DB           *sql.DB
	DashboardSvc *dashboard.Service
	Loader       *loader.Loader
	LoadRuns     store.LoadRunsStore
	Metrics      *telemetry.Metrics
}

type Server struct {
	cfg    *config.AppConfig
	logger *utils.Logger

	db           *sql.DB
	dashboardSvc *dashboard.Service
	loader       *loader.Loader
	loadRuns     store.LoadRunsStore
	metrics      *telemetry.Metrics

	httpServer *http.Server
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		logger:       logger,
		db:           deps.DB,
		dashboardSvc: deps.DashboardSvc,
		loader:       deps.Loader,
		loadRuns:     deps.LoadRuns,
		metrics:      deps.Metrics,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve blocks on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Printf("listening on %s", ln.Addr())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
