package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/tribunal/internal/rest"
	"github.com/robalyx/tribunal/internal/setup"
	"github.com/robalyx/tribunal/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// APILogDir specifies where API server log files are stored.
const APILogDir = "logs/api_logs"

// Server timeouts.
const (
	ReadHeaderTimeout = 5 * time.Second
	IdleTimeout       = 60 * time.Second
	ShutdownTimeout   = 30 * time.Second
)

func main() {
	app := &cli.Command{
		Name:  "api",
		Usage: "Serve the appeals REST API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply pending database migrations without asking",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c.Bool("migrate"))
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, autoMigrate bool) error {
	// Initialize application with required dependencies
	app, err := setup.InitializeApp(ctx, telemetry.ServiceAPI, APILogDir, autoMigrate)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		app.Cleanup(cleanupCtx)
	}()

	// Create server
	server := rest.NewServer(app.DB, app.Auth, app.Logger, &app.Config.API)
	defer server.Close()

	requestTimeout := telemetry.ServiceAPI.GetRequestTimeout(app.Config)
	addr := fmt.Sprintf("%s:%d", app.Config.API.Server.Host, app.Config.API.Server.Port)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.TimeoutHandler(server.Handler(), requestTimeout, `{"error":"request timed out"}`),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout + time.Second,
		IdleTimeout:       IdleTimeout,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		app.Logger.Info("API server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serverErr:
		if err != nil {
			app.Logger.Error("Failed to start server", zap.Error(err))
			return err
		}
	}

	app.Logger.Info("Shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")
	return nil
}
