package main

import (
	"fmt"
	"log/slog"
	"os"

	"call-ingest/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callctl",
		Short: "Operator tooling for the call ingest service",
		Long:  "callctl applies the schema, replays sample webhooks, exports stored calls and mints listing tokens.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; real env wins.
			_ = godotenv.Load()
			slog.SetDefault(logger.New(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL")))
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSendTestCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "callctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
