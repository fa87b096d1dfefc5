package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/devserver"
	"github.com/kylejryan/nail-studio-portal/internal/router"
)

var (
	serveAddr  string
	serveEvery time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API locally",
	Long: `Serve every API route over plain HTTP, the way API Gateway would call the Lambda.

Examples:
  salonctl serve --memory
  salonctl serve --addr :9000 --every 10s`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().DurationVar(&serveEvery, "every", 15*time.Second, "Media index refresh interval")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	srv := devserver.New(serveAddr, router.New(studio), logger)

	studio.Live(ctx, serveEvery)

	errc := make(chan error, 1)
	go func() { errc <- srv.Run() }()
	fmt.Println(formatSuccess("Listening on " + serveAddr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	return nil
}
