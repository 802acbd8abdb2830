package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "group-formation-bot",
	Short: "Telegram bot that forms small groups from applications",
	Long: `group-formation-bot announces user-created groups, collects applications,
lets creators accept or reject applicants and opens a private chat once a group is full.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setLogLevel(verbosity)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("main: Command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"verbose logging, -v for info and -vv for debug")
}

// setLogLevel configures JSON logging for the given verbosity
func setLogLevel(verbosity int) {
	logLevel := slog.LevelWarn
	switch {
	case verbosity >= 2:
		logLevel = slog.LevelDebug
	case verbosity == 1:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Debug("main: Log level set to", "level", logLevel.String())
}
