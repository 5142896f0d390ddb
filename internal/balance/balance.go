// Package balance computes running per-account balances over a set of postings.
package balance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/razao/internal/dates"
	"github.com/cleared-dev/razao/internal/model"
)

// Compute returns a copy of postings ordered by date, each carrying its
// account's running balance after it is applied. Debits add, credits
// subtract. Postings on the same date keep their input order. Every account
// starts from zero.
func Compute(postings []model.Posting) []model.Posting {
	out := make([]model.Posting, len(postings))
	copy(out, postings)
	sort.SliceStable(out, func(i, j int) bool {
		return dates.Key(out[i].Date) < dates.Key(out[j].Date)
	})

	running := make(map[string]decimal.Decimal)
	for i := range out {
		total := running[out[i].AccountID].Add(out[i].Signed())
		running[out[i].AccountID] = total
		out[i].Balance = total
	}
	return out
}

// Totals returns the net debit-minus-credit per account.
func Totals(postings []model.Posting) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, p := range postings {
		totals[p.AccountID] = totals[p.AccountID].Add(p.Signed())
	}
	return totals
}

// Row is one account line of a trial balance.
type Row struct {
	AccountID   string
	AccountCode string
	AccountName string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Net returns debit minus credit.
func (r Row) Net() decimal.Decimal {
	return r.Debit.Sub(r.Credit)
}

// TrialBalance sums debits and credits per account, ordered by account code
// and then id.
func TrialBalance(postings []model.Posting) []Row {
	idx := make(map[string]int)
	var rows []Row
	for _, p := range postings {
		i, ok := idx[p.AccountID]
		if !ok {
			i = len(rows)
			idx[p.AccountID] = i
			rows = append(rows, Row{AccountID: p.AccountID, AccountCode: p.AccountCode, AccountName: p.AccountName})
		}
		if p.Side == model.SideCredit {
			rows[i].Credit = rows[i].Credit.Add(p.Amount)
		} else {
			rows[i].Debit = rows[i].Debit.Add(p.Amount)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AccountCode != rows[j].AccountCode {
			return rows[i].AccountCode < rows[j].AccountCode
		}
		return rows[i].AccountID < rows[j].AccountID
	})
	return rows
}
