package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/titipin/titip-backend/internal/dto"
)

var (
	adminID   string
	listLimit int
)

var withdrawalsCmd = &cobra.Command{
	Use:   "withdrawals",
	Short: "Заявки на вывод средств",
}

var withdrawalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список заявок в статусе pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			list, err := rt.services.Wallet.ListPending(ctx, listLimit, 0)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(list)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSER\tAMOUNT\tBANK\tACCOUNT\tHOLDER\tCREATED")
			for _, item := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					item.ID, item.UserID, item.Amount, item.BankName, item.AccountNumber, item.AccountHolder,
					item.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		})
	},
}

var withdrawalsApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Подтвердить выплату",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return processWithdrawal(cmd, args[0], true)
	},
}

var withdrawalsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Отклонить заявку и вернуть сумму на баланс",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return processWithdrawal(cmd, args[0], false)
	},
}

func processWithdrawal(cmd *cobra.Command, rawID string, approve bool) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("некорректный id заявки: %w", err)
	}
	admin, err := uuid.Parse(adminID)
	if err != nil {
		return fmt.Errorf("--admin должен быть UUID администратора: %w", err)
	}

	return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
		op := rt.services.Wallet.RejectWithdrawal
		if approve {
			op = rt.services.Wallet.ApproveWithdrawal
		}

		w, err := op(ctx, id, admin)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(dto.NewWithdrawalResponse(w))
		}
		fmt.Printf("заявка %s: %s\n", w.ID, w.Status)
		return nil
	})
}

func init() {
	withdrawalsListCmd.Flags().IntVar(&listLimit, "limit", 50, "сколько заявок показать")
	for _, c := range []*cobra.Command{withdrawalsApproveCmd, withdrawalsRejectCmd} {
		c.Flags().StringVar(&adminID, "admin", "", "UUID администратора, который обрабатывает заявку")
		_ = c.MarkFlagRequired("admin")
	}

	withdrawalsCmd.AddCommand(withdrawalsListCmd, withdrawalsApproveCmd, withdrawalsRejectCmd)
	rootCmd.AddCommand(withdrawalsCmd)
}
