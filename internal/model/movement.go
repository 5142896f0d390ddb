package model

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// MovementKind is the normalized operation kind of a movement.
type MovementKind string

const (
	KindPayable    MovementKind = "pagar"
	KindReceivable MovementKind = "receber"
	KindTransfer   MovementKind = "transferencia"
)

// ParseMovementKind normalizes the operation tags found in storage.
func ParseMovementKind(s string) (MovementKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pagar", "a_pagar", "payable", "despesa":
		return KindPayable, nil
	case "receber", "a_receber", "receivable", "receita":
		return KindReceivable, nil
	case "transferencia", "transferência", "transfer":
		return KindTransfer, nil
	}
	return "", fmt.Errorf("unknown movement kind %q", s)
}

// Movement is a raw financial movement: a payable, a receivable or a
// transfer between two bank accounts.
type Movement struct {
	ID                string          `mapstructure:"id" validate:"required"`
	CompanyID         string          `mapstructure:"empresa_id"`
	Kind              MovementKind    `mapstructure:"tipo_operacao" validate:"required"`
	Description       string          `mapstructure:"descricao"`
	Amount            decimal.Decimal `mapstructure:"valor"`
	Date              civil.Date      `mapstructure:"data_lancamento"`
	CategoryID        string          `mapstructure:"categoria_id"`
	TitleTypeID       string          `mapstructure:"tipo_titulo_id"`
	Favored           string          `mapstructure:"favorecido"`
	SourceBankID      string          `mapstructure:"conta_origem_id"`
	DestinationBankID string          `mapstructure:"conta_destino_id"`
}

func (m *Movement) check() error {
	if !m.Date.IsValid() {
		return errInvalidDate(m.ID, "data_lancamento")
	}
	return nil
}

// Narrative returns the movement description, or a default text for its kind.
func (m Movement) Narrative() string {
	if d := strings.TrimSpace(m.Description); d != "" {
		return d
	}
	var text string
	switch m.Kind {
	case KindPayable:
		text = "Conta a pagar"
	case KindReceivable:
		text = "Conta a receber"
	case KindTransfer:
		text = "Transferência entre contas"
	default:
		text = "Movimentação"
	}
	if m.Favored != "" {
		text += " - " + m.Favored
	}
	return text
}

// Installment is one parcel of a movement.
type Installment struct {
	ID            string          `mapstructure:"id" validate:"required"`
	MovementID    string          `mapstructure:"movimentacao_id" validate:"required"`
	Number        int             `mapstructure:"numero_parcela"`
	Amount        decimal.Decimal `mapstructure:"valor"`
	DueDate       civil.Date      `mapstructure:"data_vencimento"`
	PaymentDate   *civil.Date     `mapstructure:"data_pagamento"`
	Interest      decimal.Decimal `mapstructure:"juros"`
	Penalty       decimal.Decimal `mapstructure:"multa"`
	Discount      decimal.Decimal `mapstructure:"desconto"`
	BankAccountID string          `mapstructure:"conta_bancaria_id"`
}

// Settled reports whether the installment has been paid. Only settled
// installments produce postings.
func (i Installment) Settled() bool {
	return i.PaymentDate != nil
}

func (i *Installment) check() error {
	if i.PaymentDate != nil && !i.PaymentDate.IsValid() {
		return errInvalidDate(i.ID, "data_pagamento")
	}
	return nil
}
