// Command salonctl runs the studio backend locally and edits its content
// from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/app"
	"github.com/kylejryan/nail-studio-portal/internal/config"
	"github.com/kylejryan/nail-studio-portal/internal/logging"
)

var (
	// Set by PersistentPreRunE.
	studio *app.App
	logger *zap.Logger

	useMemory bool
)

var rootCmd = &cobra.Command{
	Use:   "salonctl",
	Short: "Run and manage the studio site backend",
	Long: formatTitle("salonctl") + " - studio site backend\n\n" +
		"Serves the HTTP API locally and edits the gallery, signature looks and\n" +
		"technician roster against DynamoDB and S3, or in memory with --memory.",
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "Use in-memory stores instead of AWS")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mediaCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(entryCmd("looks", "Signature looks on the home page", looksEditor))
	rootCmd.AddCommand(entryCmd("technicians", "The technician roster", techniciansEditor))
}

func initializeApp(cmd *cobra.Command, _ []string) error {
	load := config.Load
	if useMemory {
		load = config.LoadLocal
	}
	env, err := load()
	if err != nil {
		fmt.Println(formatError("Configuration is incomplete"))
		return err
	}
	if os.Getenv("LOG_FORMAT") == "" {
		env.Log.Format = "console"
	}
	if logger, err = logging.New(env.Log); err != nil {
		return err
	}

	if useMemory {
		studio = app.NewMemory(env, logger)
		return nil
	}
	studio, err = app.NewAWS(cmd.Context(), env, logger)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}
