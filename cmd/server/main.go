package main // Entry point package

import (
	"context"   // root context cancelled on SIGINT/SIGTERM
	"log"       // fallback logging before zap is configured
	"os"        // exit codes
	"os/signal" // signal handling for graceful shutdown
	"syscall"   // SIGTERM

	"github.com/joho/godotenv" // optional .env loading
	"github.com/spf13/cobra"   // command tree
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:               "labhub",
		Short:             "labhub",
		Long:              "labhub - multi-tenant lab registry API",
		SilenceUsage:      true,
		PersistentPreRunE: loadEnv,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.AddCommand(newServe(), newMigrate(), newToken(), newAuditConsumer())

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadEnv reads .env when present; real environment variables win.
func loadEnv(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found - using environment variables")
	}
	return nil
}
