package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"

	"focusflow/internal/config"
	"focusflow/internal/logging"
	"focusflow/internal/server"

	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the capture API over HTTP",
	Long: `Starts the HTTP API:

  POST /v1/capture   capture a task note
  POST /v1/clarify   answer clarification questions
  GET  /healthz      liveness probe

The config file is watched; logging changes apply without a restart.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, cleanup, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = filepath.Join(workspace, ".focusflow", "config.yaml")
	}
	watcher, err := config.NewWatcher(cfgFile, nil)
	if err != nil {
		logging.Boot("config watcher unavailable: %v", err)
	} else if err := watcher.Start(); err != nil {
		logging.Boot("config watcher failed to start: %v", err)
	} else {
		defer watcher.Stop()
	}

	srv := server.New(cfg.Server, p)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Printf("focusflow listening on %s\n", cfg.Server.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown incomplete: %w", err)
	}
	<-errCh
	fmt.Println("focusflow stopped")
	return nil
}
