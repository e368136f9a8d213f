package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	debugMode  bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "offlinedict",
		Short:        "Browse and bookmark a dictionary published as a spreadsheet, online or offline",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(os.Stderr, debugMode)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is ./config.yml or $HOME/.config/offlinedict/config.yml)")
	flags.BoolVar(&debugMode, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newSyncCommand(),
		newSearchCommand(),
		newDailyCommand(),
		newCategoriesCommand(),
		newBookmarkCommand(),
		newCacheCommand(),
		newInstallCommand(),
	)
	return rootCmd
}

// setupLogger writes logs to w so they stay out of the tables printed on stdout.
func setupLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})
	slog.SetDefault(slog.New(handler))
}
