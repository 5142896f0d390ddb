// Package export writes the ledger and trial balance as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/razao/internal/balance"
	"github.com/cleared-dev/razao/internal/dates"
	"github.com/cleared-dev/razao/internal/model"
)

// Header is the CSV header of a ledger export.
const Header = "id,data,historico,conta_id,conta_codigo,conta_nome,debito,credito,saldo,tipo,movimentacao_id,parcela_id,favorecido,manual"

const (
	numFields      = 14
	colID          = 0
	colDate        = 1
	colNarrative   = 2
	colAcctID      = 3
	colAcctCode    = 4
	colAcctName    = 5
	colDebit       = 6
	colCredit      = 7
	colBalance     = 8
	colKind        = 9
	colMovement    = 10
	colInstallment = 11
	colFavored     = 12
	colManual      = 13
)

// WriteLedger writes postings, in the order given, with a header row.
func WriteLedger(w io.Writer, postings []model.Posting) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, p := range postings {
		if err := cw.Write(MarshalPosting(p)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalPosting converts a Posting to a CSV row. Dates are DD/MM/YYYY and
// amounts have two decimals.
func MarshalPosting(p model.Posting) []string {
	row := make([]string, numFields)
	row[colID] = p.ID
	row[colDate] = dates.FormatDisplay(p.Date)
	row[colNarrative] = p.Narrative
	row[colAcctID] = p.AccountID
	row[colAcctCode] = p.AccountCode
	row[colAcctName] = p.AccountName

	if p.Side == model.SideDebit {
		row[colDebit] = p.Amount.StringFixed(2)
	} else {
		row[colCredit] = p.Amount.StringFixed(2)
	}
	row[colBalance] = p.Balance.StringFixed(2)

	row[colKind] = string(p.Kind)
	row[colMovement] = p.MovementID
	row[colInstallment] = p.InstallmentID
	row[colFavored] = p.Favored
	if p.Manual {
		row[colManual] = "sim"
	}
	return row
}

// TrialBalanceHeader is the CSV header of a trial balance export.
const TrialBalanceHeader = "conta_id,conta_codigo,conta_nome,debito,credito,saldo"

// WriteTrialBalance writes trial balance rows with a header row.
func WriteTrialBalance(w io.Writer, rows []balance.Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(TrialBalanceHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range rows {
		rec := []string{
			r.AccountID,
			r.AccountCode,
			r.AccountName,
			r.Debit.StringFixed(2),
			r.Credit.StringFixed(2),
			r.Net().StringFixed(2),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
