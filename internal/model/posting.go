package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/razao/internal/id"
)

// Side is the debit/credit direction of a posting.
type Side string

const (
	SideDebit  Side = "debito"
	SideCredit Side = "credito"
)

// PostingKind tags what part of a transaction a posting records.
type PostingKind string

const (
	PostingPrincipal PostingKind = "principal"
	PostingInterest  PostingKind = "juros"
	PostingPenalty   PostingKind = "multa"
	PostingDiscount  PostingKind = "desconto"
)

// Posting is one side of a double-entry pair. Postings are either read from
// manually entered journal rows or derived from movements; derived ones are
// never persisted. Balance is filled by the balance calculator.
type Posting struct {
	ID            string // "<base>-d" or "<base>-c"
	Date          civil.Date
	Narrative     string
	AccountID     string
	AccountName   string
	AccountCode   string
	Side          Side
	Amount        decimal.Decimal
	Balance       decimal.Decimal
	MovementID    string
	InstallmentID string
	Kind          PostingKind
	Favored       string
	Manual        bool
}

// Group returns the id shared by both sides of the pair.
// "7f3a-d" -> "7f3a"
func (p Posting) Group() string {
	return id.Base(p.ID)
}

// Signed returns the amount with debits positive and credits negative.
func (p Posting) Signed() decimal.Decimal {
	if p.Side == SideCredit {
		return p.Amount.Neg()
	}
	return p.Amount
}

// ManualRow is a persisted, manually entered journal row. One row holds both
// sides of the pair.
type ManualRow struct {
	ID              string          `mapstructure:"id" validate:"required"`
	CompanyID       string          `mapstructure:"empresa_id"`
	Date            civil.Date      `mapstructure:"data"`
	Narrative       string          `mapstructure:"historico"`
	DebitAccountID  string          `mapstructure:"conta_debito_id" validate:"required"`
	CreditAccountID string          `mapstructure:"conta_credito_id" validate:"required"`
	Amount          decimal.Decimal `mapstructure:"valor"`
	Kind            PostingKind     `mapstructure:"tipo"`
}

func (r *ManualRow) check() error {
	if !r.Date.IsValid() {
		return errInvalidDate(r.ID, "data")
	}
	return nil
}
