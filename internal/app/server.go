package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/taskgrid/internal/ctxlog"
)

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), a.requestLogger())

	router.GET("/health", a.handleHealth)

	tasks := router.Group("/tasks")
	{
		tasks.GET("", a.handleListTasks)
		tasks.POST("/import", a.handleImport)
		tasks.GET("/:id/picker", a.handlePicker)
		tasks.GET("/:id/chain", a.handleChain)
		tasks.DELETE("/:id", a.handleDeleteTask)
	}

	deps := router.Group("/dependencies")
	{
		deps.POST("/check", a.handleCheckDependency)
		deps.POST("", a.handleAddDependency)
		deps.DELETE("", a.handleRemoveDependency)
	}

	days := router.Group("/days/:day")
	{
		days.GET("/index", a.handleDayIndex)
		days.POST("/placements", a.handlePlace)
		days.POST("/autoplan", a.handleAutoPlan)
		days.POST("/optimize", a.handleOptimize)
		days.GET("/preview", a.handlePreview)
		days.POST("/preview/apply", a.handleApplyPreview)
		days.DELETE("/preview", a.handleRejectPreview)
	}

	router.DELETE("/placements/:id", a.handleUnplace)

	return router
}

// requestLogger puts the app logger into every request context and logs
// each request at debug level.
func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), a.logger))
		c.Next()
		a.logger.Debug("HTTP request handled.",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (a *App) handleHealth(c *gin.Context) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", c.Request.RemoteAddr, "path", c.Request.URL.Path)
	c.String(http.StatusOK, "OK\n")
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	logger := ctxlog.FromContext(a.ctx)

	a.httpServer = &http.Server{
		Addr:              a.config.Server.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🩺 API server starting", "address", a.config.Server.Addr)
		// ListenAndServe will return an error on graceful shutdown.
		// We check for this specific error to avoid logging a false positive.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return a.shutdownServer()
}

func (a *App) shutdownServer() error {
	logger := ctxlog.FromContext(a.ctx)
	if a.httpServer == nil {
		logger.Debug("API server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("🩺 Shutting down API server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("API server shutdown failed", "error", err)
		return err
	}
	logger.Debug("API server shut down gracefully.")
	return nil
}
