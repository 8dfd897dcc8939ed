package system

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/dosekeep/internal/api"
	"github.com/julianstephens/dosekeep/internal/cli"
	"github.com/julianstephens/dosekeep/internal/logger"
)

type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to the config file value."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	addr := c.Addr
	if addr == "" {
		addr = ctx.Config.API.Addr
	}

	router := api.NewRouter(api.NewHandler(ctx.Service), ctx.Config.API.AllowedOrigins)
	server := api.NewServer(addr, router)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	fmt.Printf("Serving dosekeep API on http://%s\n", addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
