// Package server exposes Nova's HTTP API: token minting, the chat
// endpoint, and read-only conversation listings.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/silverland/nova/internal/config"
)

// TurnHandler is the orchestration core's single upward entry point.
type TurnHandler interface {
	HandleTurn(ctx context.Context, conversationID, userMessage string) (string, error)
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB    *gorm.DB
	Agent TurnHandler
	Cfg   *config.Config
	Out   io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Agent == nil {
		return fmt.Errorf("server: agent is required")
	}
	if opts.Cfg == nil {
		return fmt.Errorf("server: config is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	registerRoutes(router, opts)

	addr := fmt.Sprintf(":%d", opts.Cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Nova API listening on http://localhost:%d\n", opts.Cfg.Server.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
