package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/razao/internal/dates"
	"github.com/cleared-dev/razao/internal/ledger"
)

func newPostingCommand(opts *globalOptions) *cobra.Command {
	postingCmd := &cobra.Command{
		Use:   "posting",
		Short: "Add or delete manual postings",
	}
	postingCmd.AddCommand(newPostingAddCommand(opts))
	postingCmd.AddCommand(newPostingDeleteCommand(opts))
	return postingCmd
}

func newPostingAddCommand(opts *globalOptions) *cobra.Command {
	var date, narrative, debit, credit, amount string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a manual debit/credit pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dates.Parse(date)
			if err != nil {
				return err
			}
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("parsing amount %q: %w", amount, err)
			}

			a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			rowID, err := a.ledger.AddManualPosting(cmd.Context(), ledger.ManualEntry{
				Date:            d,
				Narrative:       narrative,
				DebitAccountID:  debit,
				CreditAccountID: credit,
				Amount:          amt,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rowID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "posting date, DD/MM/YYYY or YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&narrative, "narrative", "", "narrative text")
	cmd.Flags().StringVar(&debit, "debit", "", "debit account id (required)")
	cmd.Flags().StringVar(&credit, "credit", "", "credit account id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount (required)")
	for _, f := range []string{"date", "debit", "credit", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func newPostingDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <posting-id>",
		Short: "Delete a manual posting pair by either side's id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.DeletePosting(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
