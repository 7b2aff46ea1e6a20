// Package apihttp exposes the read-only query surface: latest run report,
// persisted signal collections, and registered strategy metadata.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"claws/internal/logger"
	"claws/internal/store"
	"claws/internal/strategy"
	"claws/internal/types"
)

type Server struct {
	addr   string
	router *gin.Engine

	mu     sync.RWMutex
	latest *types.RunReport

	store      store.Store
	strategies []strategy.Info
}

type ServerConfig struct {
	Addr       string
	Store      store.Store
	Strategies []strategy.Info
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("http server requires a signal store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9993"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{addr: cfg.Addr, router: router, store: cfg.Store, strategies: cfg.Strategies}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api")
	api.GET("/report", s.handleReport)
	api.GET("/signals/active", s.handleActiveSignals)
	api.GET("/signals/closed", s.handleClosedSignals)
	api.GET("/strategies", s.handleStrategies)

	return s, nil
}

// Publish makes a freshly generated report visible to readers.
func (s *Server) Publish(rep types.RunReport) {
	s.mu.Lock()
	s.latest = &rep
	s.mu.Unlock()
}

func (s *Server) handleReport(c *gin.Context) {
	s.mu.RLock()
	rep := s.latest
	s.mu.RUnlock()
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run has completed yet"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleActiveSignals(c *gin.Context) {
	st, err := s.store.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": emptyIfNil(st.Active)})
}

func (s *Server) handleClosedSignals(c *gin.Context) {
	st, err := s.store.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": emptyIfNil(st.Closed)})
}

func (s *Server) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": s.strategies})
}

func emptyIfNil(signals []types.Signal) []types.Signal {
	if signals == nil {
		return []types.Signal{}
	}
	return signals
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
