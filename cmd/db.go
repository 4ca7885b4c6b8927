package cmd

import (
	"fmt"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Catalog database maintenance",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog tables in the PostgreSQL database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dsn := connString
		if dsn == "" {
			dsn = cfg.GetConnectionString()
		}
		store := catalog.NewPgStore(dsn)
		if err := store.Connect(cmd.Context()); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Success("Catalog schema applied")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
}
