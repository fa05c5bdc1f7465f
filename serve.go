package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/uosphere/idcard-verification/config"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification HTTP server",
	Long: `Start the ID card verification HTTP server.

Endpoints:
  GET  /health                  - health check
  POST /api/v1/idcard/upload    - multipart "idCard" image or PDF, OCR on the server
  POST /api/v1/idcard/analyze   - {"text", "confidence"} from OCR in the browser
  POST /api/v1/idcard/validate  - re-check an extracted record

Examples:
  idcard serve                  # Start on the configured port (default 8080)
  idcard serve --port 3000      # Start on a custom port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if servePort != "" {
			cfg.Server.Port = servePort
		}

		logger := config.NewLogger(cfg.Log, os.Stdout)
		if cfg.Server.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		svc, err := newIDCardService(cfg, logger)
		if err != nil {
			return err
		}

		addr := cfg.Server.Port
		if !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		srv := &http.Server{
			Addr:         addr,
			Handler:      newRouter(cfg, svc, logger),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting Student ID Verification service", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("HTTP server error: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
