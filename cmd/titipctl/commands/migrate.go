package commands

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/titipin/titip-backend/internal/config"
	"github.com/titipin/titip-backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить SQL миграции из MIGRATIONS_PATH",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, cfg *config.Config, conn *sqlx.DB) error {
			applied, err := db.RunMigrations(ctx, conn, cfg.MigrationsPath)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string][]string{"applied": applied})
			}
			if len(applied) == 0 {
				fmt.Println("Новых миграций нет")
				return nil
			}
			for _, name := range applied {
				fmt.Println("применена:", name)
			}
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Показать неприменённые миграции",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, cfg *config.Config, conn *sqlx.DB) error {
			pending, err := db.PendingMigrations(ctx, conn, cfg.MigrationsPath)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string][]string{"pending": pending})
			}
			if len(pending) == 0 {
				fmt.Println("Все миграции применены")
				return nil
			}
			for _, name := range pending {
				fmt.Println("ожидает:", name)
			}
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
