package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Управление пользователями",
}

var usersVerifyCmd = &cobra.Command{
	Use:   "verify <user-id>",
	Short: "Отметить профиль как подтверждённый",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("некорректный id пользователя: %w", err)
		}
		admin, err := uuid.Parse(adminID)
		if err != nil {
			return fmt.Errorf("--admin должен быть UUID администратора: %w", err)
		}

		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			if err := rt.services.Profiles.VerifyUser(ctx, userID, admin); err != nil {
				return err
			}
			fmt.Printf("пользователь %s подтверждён\n", userID)
			return nil
		})
	},
}

var usersPromoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Выдать роль admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			user, err := rt.services.Profiles.PromoteUser(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(user)
			}
			fmt.Printf("%s (%s) теперь %s\n", user.Email, user.ID, user.Role)
			return nil
		})
	},
}

func init() {
	usersVerifyCmd.Flags().StringVar(&adminID, "admin", "", "UUID администратора")
	_ = usersVerifyCmd.MarkFlagRequired("admin")

	usersCmd.AddCommand(usersVerifyCmd, usersPromoteCmd)
	rootCmd.AddCommand(usersCmd)
}
