package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"callcheck/internal/blob"
	"callcheck/internal/config"
	"callcheck/internal/intake"
	"callcheck/internal/logging"
	"callcheck/internal/metastore"
	"callcheck/internal/taskqueue"
	"callcheck/internal/workflow"
)

// Server exposes the HTTP surface: request submission, result retrieval,
// signed object downloads, and daemon status.
type Server struct {
	logger  *slog.Logger
	bind    string
	intake  *intake.Service
	store   *metastore.Store
	queue   *taskqueue.Queue
	blobs   blob.Store
	signer  *blob.Signer
	manager *workflow.Manager

	listener net.Listener
	server   *http.Server
}

// NewServer wires the HTTP routes. manager may be nil (CLI-only usage).
func NewServer(
	logger *slog.Logger,
	cfg *config.Config,
	intakeSvc *intake.Service,
	store *metastore.Store,
	queue *taskqueue.Queue,
	blobs blob.Store,
	signer *blob.Signer,
	manager *workflow.Manager,
) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		logger:  logger.With(logging.String(logging.FieldComponent, "api-server")),
		bind:    strings.TrimSpace(cfg.Paths.APIBind),
		intake:  intakeSvc,
		store:   store,
		queue:   queue,
		blobs:   blobs,
		signer:  signer,
		manager: manager,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/submit_request", srv.handleSubmit)
	router.GET("/get_results", srv.handleResults)
	router.GET("/files", srv.handleFiles)
	router.GET("/api/status", srv.handleStatus)

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start begins serving and arranges shutdown when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, draining in-flight requests.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}
