package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	seedUsers    int
	seedOrders   int
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Создать демонстрационных пользователей и заказы (только development)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			if rt.cfg.Env != "development" {
				return errors.New("seed доступен только при APP_ENV=development")
			}

			result, err := rt.services.Seed.SeedData(ctx, seedUsers, seedOrders, seedPassword)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(result)
			}
			fmt.Printf("создано пользователей: %d, заказов: %d\n", len(result.Users), result.Orders)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 10, "количество пользователей")
	seedCmd.Flags().IntVar(&seedOrders, "orders", 30, "количество заказов")
	seedCmd.Flags().StringVar(&seedPassword, "password", "Password123!", "пароль для всех пользователей")
	rootCmd.AddCommand(seedCmd)
}
