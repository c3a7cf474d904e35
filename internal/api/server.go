// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avito-insight/internal/models"
	"github.com/avito-insight/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Service interfaces for dependency injection and testing

// AccountDirectory defines the account read and create operations the API needs
type AccountDirectory interface {
	List(ctx context.Context) ([]*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// ReportProvider defines the interface for building comparison reports
type ReportProvider interface {
	BuildDailyReport(ctx context.Context, account *models.Account, now time.Time) (*service.DailyComparison, error)
	BuildWeeklyReport(ctx context.Context, account *models.Account, now time.Time) (*service.WeeklyComparison, error)
}

// BackfillRunner defines the interface for triggering a historical backfill
type BackfillRunner interface {
	RunAccount(ctx context.Context, account *models.Account, days int, now time.Time) (int, error)
}

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	accounts   AccountDirectory
	reports    ReportProvider
	backfill   BackfillRunner
	db         Pinger
	cache      Pinger
	config     *ServerConfig
	log        *logrus.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBackfillDays int
}

// DefaultServerConfig returns the default server configuration
func DefaultServerConfig(host, port string) *ServerConfig {
	return &ServerConfig{
		Host:            host,
		Port:            port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBackfillDays: 90,
	}
}

// NewServer creates a new API server instance. cache may be nil when Redis is
// not configured.
func NewServer(
	config *ServerConfig,
	accounts AccountDirectory,
	reports ReportProvider,
	backfill BackfillRunner,
	db Pinger,
	cache Pinger,
	log *logrus.Logger,
) *Server {
	s := &Server{
		accounts: accounts,
		reports:  reports,
		backfill: backfill,
		db:       db,
		cache:    cache,
		config:   config,
		log:      log,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	s.router = mux.NewRouter()
	s.router.Use(RecoveryMiddleware(s.log))
	s.router.Use(LoggingMiddleware(s.log))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/reports/daily", s.handleDailyReport).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/reports/weekly", s.handleWeeklyReport).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/backfill", s.handleBackfill).Methods(http.MethodPost)
}

// Router returns the underlying router, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("API server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
