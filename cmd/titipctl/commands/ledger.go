package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/titipin/titip-backend/internal/models"
)

var reconcileUser string

// errMismatch ненулевой код выхода, когда журнал расходится с балансом.
var errMismatch = errors.New("найдены расхождения баланса и журнала")

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Журнал кошельков",
}

var ledgerReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Сверить balance с суммой credit минус debit",
	Long: `Для каждого пользователя проверяет balance == credits - debits.
Без --user выводит только расхождения. Код выхода 1, если они есть.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var userID uuid.UUID
		if reconcileUser != "" {
			id, err := uuid.Parse(reconcileUser)
			if err != nil {
				return fmt.Errorf("некорректный --user: %w", err)
			}
			userID = id
		}

		return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
			var report []models.Reconciliation
			if userID != uuid.Nil {
				rec, err := rt.services.WalletQueries.Reconcile(ctx, userID)
				if err != nil {
					return err
				}
				report = []models.Reconciliation{*rec}
			} else {
				mismatches, err := rt.services.WalletQueries.Mismatches(ctx)
				if err != nil {
					return err
				}
				report = mismatches
			}

			if err := printReconciliation(report); err != nil {
				return err
			}
			for _, rec := range report {
				if !rec.Consistent {
					return errMismatch
				}
			}
			return nil
		})
	},
}

func printReconciliation(report []models.Reconciliation) error {
	if jsonOutput {
		return printJSON(report)
	}
	if len(report) == 0 {
		fmt.Println("Расхождений нет")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tBALANCE\tCREDITS\tDEBITS\tDIFF\tOK")
	for _, rec := range report {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%t\n",
			rec.UserID, rec.Balance, rec.Credits, rec.Debits, rec.Balance-(rec.Credits-rec.Debits), rec.Consistent)
	}
	return w.Flush()
}

func init() {
	ledgerReconcileCmd.Flags().StringVar(&reconcileUser, "user", "", "проверить одного пользователя")

	ledgerCmd.AddCommand(ledgerReconcileCmd)
	rootCmd.AddCommand(ledgerCmd)
}
