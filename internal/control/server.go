// Package control exposes the running daemon's reminder operations on a
// loopback HTTP API so the CLI and the alarm view can reach them.
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandeepkv93/remindd/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Backend is the subset of the reminder service the API drives.
type Backend interface {
	RunScanNow()
	Dismiss(ctx context.Context, taskID int64) bool
	ActiveAlarms() []int64
}

type AlarmsResponse struct {
	Alarms []int64 `json:"alarms"`
}

type DismissResponse struct {
	TaskID    int64 `json:"task_id"`
	Dismissed bool  `json:"dismissed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	addr    string
	engine  *gin.Engine
	backend Backend
	logger  *log.Logger
}

func NewServer(addr string, backend Backend, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		addr:    addr,
		engine:  gin.New(),
		backend: backend,
		logger:  logging.OrDiscard(logger),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/healthz", s.health)
	v1 := s.engine.Group("/v1")
	v1.POST("/scan", s.scan)
	v1.GET("/alarms", s.alarms)
	v1.POST("/alarms/:id/dismiss", s.dismiss)
	if gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control listen %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("control api listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("control shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) scan(c *gin.Context) {
	s.backend.RunScanNow()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func (s *Server) alarms(c *gin.Context) {
	ids := s.backend.ActiveAlarms()
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, AlarmsResponse{Alarms: ids})
}

func (s *Server) dismiss(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid task id %q", c.Param("id"))})
		return
	}
	dismissed := s.backend.Dismiss(c.Request.Context(), id)
	c.JSON(http.StatusOK, DismissResponse{TaskID: id, Dismissed: dismissed})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("control request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}
