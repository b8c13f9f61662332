package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/config"
	"github.com/MeKo-Tech/codescan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP decode server",
	Long: `Start an HTTP server that answers decode requests the way the Lambda
function does, plus upload, PDF, batch and WebSocket endpoints.

Endpoints:
  GET  /health          health check
  GET  /backends        decoder availability
  GET  /transforms      search order
  POST /decode          JSON object or raw base64 body
  POST /decode/image    multipart or raw image upload
  POST /decode/pdf      multipart PDF upload
  POST /decode/batch    JSON array of requests
  GET  /ws/decode       WebSocket decoding
  GET  /metrics         Prometheus metrics

Examples:
  codescan serve
  codescan serve --host 0.0.0.0 --port 9000
  codescan serve --rate-limit --requests-per-minute 60`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.String("host", "localhost", "host to bind to")
	f.IntP("port", "p", 8080, "port to listen on")
	f.String("cors-origin", "*", "allowed CORS origin")
	f.Int64("max-upload-mb", 10, "maximum upload size in MB")
	f.Int("timeout", 30, "request timeout in seconds")
	f.Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")
	f.Int("batch-workers", 4, "workers per /decode/batch request")
	f.Bool("rate-limit", false, "enable per-client rate limiting")
	f.Int("requests-per-minute", 0, "requests per minute per client")
	f.Int("requests-per-hour", 0, "requests per hour per client")
	f.Int("max-requests-per-day", 0, "requests per day per client")
	f.Int64("max-data-per-day", 0, "uploaded bytes per day per client")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg.Server)
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.NewServer(serverConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-sigCh:
		slog.Info("shutting down server", "signal", sig.String())
	case <-cmd.Context().Done():
		slog.Info("shutting down server", "reason", cmd.Context().Err())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// applyServeFlags lets explicitly set flags override the loaded configuration.
func applyServeFlags(cmd *cobra.Command, sc *config.ServerConfig) {
	f := cmd.Flags()
	if f.Changed("host") {
		sc.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		sc.Port, _ = f.GetInt("port")
	}
	if f.Changed("cors-origin") {
		sc.CORSOrigin, _ = f.GetString("cors-origin")
	}
	if f.Changed("max-upload-mb") {
		sc.MaxUploadMB, _ = f.GetInt64("max-upload-mb")
	}
	if f.Changed("timeout") {
		sc.TimeoutSec, _ = f.GetInt("timeout")
	}
	if f.Changed("shutdown-timeout") {
		sc.ShutdownTimeout, _ = f.GetInt("shutdown-timeout")
	}
	if f.Changed("batch-workers") {
		sc.BatchWorkers, _ = f.GetInt("batch-workers")
	}
	if f.Changed("rate-limit") {
		sc.RateLimit.Enabled, _ = f.GetBool("rate-limit")
	}
	if f.Changed("requests-per-minute") {
		sc.RateLimit.RequestsPerMinute, _ = f.GetInt("requests-per-minute")
	}
	if f.Changed("requests-per-hour") {
		sc.RateLimit.RequestsPerHour, _ = f.GetInt("requests-per-hour")
	}
	if f.Changed("max-requests-per-day") {
		sc.RateLimit.MaxRequestsPerDay, _ = f.GetInt("max-requests-per-day")
	}
	if f.Changed("max-data-per-day") {
		sc.RateLimit.MaxDataPerDay, _ = f.GetInt64("max-data-per-day")
	}
}

func serverConfig(cfg *config.Config) server.Config {
	sc := cfg.Server
	return server.Config{
		Host:           sc.Host,
		Port:           sc.Port,
		CORSOrigin:     sc.CORSOrigin,
		MaxUploadMB:    sc.MaxUploadMB,
		TimeoutSec:     sc.TimeoutSec,
		BatchWorkers:   sc.BatchWorkers,
		PipelineConfig: cfg.Pipeline(),
		RateLimit: server.RateLimitConfig{
			Enabled:           sc.RateLimit.Enabled,
			RequestsPerMinute: sc.RateLimit.RequestsPerMinute,
			RequestsPerHour:   sc.RateLimit.RequestsPerHour,
			MaxRequestsPerDay: sc.RateLimit.MaxRequestsPerDay,
			MaxDataPerDay:     sc.RateLimit.MaxDataPerDay,
		},
	}
}
