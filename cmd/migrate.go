package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"git.skobk.in/skobkin/group-formation-bot/config"
	"git.skobk.in/skobkin/group-formation-bot/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()

		dbPath := config.DatabasePath(os.Getenv)
		slog.Info("main: Running migrations", "db_path", dbPath)

		store, err := storage.New(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		slog.Info("main: Migrations complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
