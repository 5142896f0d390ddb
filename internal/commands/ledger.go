package commands

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/razao/internal/balance"
	"github.com/cleared-dev/razao/internal/dates"
	"github.com/cleared-dev/razao/internal/export"
	"github.com/cleared-dev/razao/internal/model"
)

func newLedgerCommand(opts *globalOptions) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the derived ledger",
	}
	ledgerCmd.AddCommand(newLedgerShowCommand(opts))
	ledgerCmd.AddCommand(newLedgerExportCommand(opts))
	ledgerCmd.AddCommand(newLedgerBalancesCommand(opts))
	return ledgerCmd
}

func newLedgerShowCommand(opts *globalOptions) *cobra.Command {
	var account, from, to string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print postings with running balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			postings := a.ledger.Snapshot()
			if account != "" {
				postings = filterAccount(postings, account)
			}
			postings, err = filterPeriod(postings, from, to)
			if err != nil {
				return err
			}
			if err := printPostings(cmd.OutOrStdout(), postings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d postings, %d skipped transactions\n", len(postings), len(a.ledger.Skips()))
			if account != "" {
				net := balance.Totals(postings)[account]
				fmt.Fprintf(cmd.OutOrStdout(), "net movement: %s\n", net.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "only show postings of this account id")
	cmd.Flags().StringVar(&from, "from", "", "only show postings on or after this date")
	cmd.Flags().StringVar(&to, "to", "", "only show postings on or before this date")

	return cmd
}

func newLedgerExportCommand(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			write := func(w io.Writer) error {
				return export.WriteLedger(w, a.ledger.Snapshot())
			}
			if output == "" || output == "-" {
				err = write(cmd.OutOrStdout())
			} else {
				var f *os.File
				if f, err = os.Create(output); err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				err = writeAndClose(f, write)
			}
			if err != nil {
				return fmt.Errorf("exporting ledger: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func newLedgerBalancesCommand(opts *globalOptions) *cobra.Command {
	var asCSV bool
	var accountType string

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Print the trial balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			rows := balance.TrialBalance(a.ledger.Snapshot())
			if accountType != "" {
				rows = filterType(rows, a.ledger.Directory().ByType(model.AccountType(accountType)))
			}
			if asCSV {
				return export.WriteTrialBalance(cmd.OutOrStdout(), rows)
			}
			return printTrialBalance(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	cmd.Flags().StringVar(&accountType, "type", "", "only accounts of this type (ativo, passivo, patrimonio, receita, despesa)")

	return cmd
}

// writeAndClose runs write against wc and closes it, reporting the first error.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	err := write(wc)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return err
}

func filterAccount(postings []model.Posting, accountID string) []model.Posting {
	var out []model.Posting
	for _, p := range postings {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out
}

// filterPeriod keeps postings dated within [from, to]. Either bound may be
// empty; both accept DD/MM/YYYY or YYYY-MM-DD.
func filterPeriod(postings []model.Posting, from, to string) ([]model.Posting, error) {
	if from == "" && to == "" {
		return postings, nil
	}
	lo, hi := 0, math.MaxInt
	var err error
	if from != "" {
		if lo, err = dates.KeyOf(from); err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if hi, err = dates.KeyOf(to); err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
	}
	var out []model.Posting
	for _, p := range postings {
		if k := dates.Key(p.Date); k >= lo && k <= hi {
			out = append(out, p)
		}
	}
	return out, nil
}

func filterType(rows []balance.Row, accounts []model.Account) []balance.Row {
	keep := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		keep[a.ID] = true
	}
	var out []balance.Row
	for _, r := range rows {
		if keep[r.AccountID] {
			out = append(out, r)
		}
	}
	return out
}

func printPostings(w io.Writer, postings []model.Posting) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATA\tHISTÓRICO\tCONTA\tDÉBITO\tCRÉDITO\tSALDO\tID")
	for _, p := range postings {
		var debit, credit string
		if p.Side == model.SideDebit {
			debit = p.Amount.StringFixed(2)
		} else {
			credit = p.Amount.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			dates.FormatDisplay(p.Date), p.Narrative, accountLabel(p.AccountCode, p.AccountName, p.AccountID),
			debit, credit, p.Balance.StringFixed(2), p.ID)
	}
	return tw.Flush()
}

func printTrialBalance(w io.Writer, rows []balance.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTA\tDÉBITO\tCRÉDITO\tSALDO")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			accountLabel(r.AccountCode, r.AccountName, r.AccountID),
			r.Debit.StringFixed(2), r.Credit.StringFixed(2), r.Net().StringFixed(2))
	}
	return tw.Flush()
}

func accountLabel(code, name, id string) string {
	switch {
	case code != "" && name != "":
		return code + " " + name
	case name != "":
		return name
	default:
		return id
	}
}
