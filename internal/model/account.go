package model

// AccountType classifies accounts in the chart of accounts (the "tipo" column).
type AccountType string

const (
	AccountTypeAsset     AccountType = "ativo"
	AccountTypeLiability AccountType = "passivo"
	AccountTypeEquity    AccountType = "patrimonio"
	AccountTypeRevenue   AccountType = "receita"
	AccountTypeExpense   AccountType = "despesa"
)

// AccountCategory separates title-level accounts from movement-level ones.
type AccountCategory string

const (
	CategoryTitle    AccountCategory = "titulo"
	CategoryMovement AccountCategory = "movimento"
)

// Status is the active flag shared by configuration records.
type Status string

const (
	StatusActive   Status = "ativo"
	StatusInactive Status = "inativo"
)

// Account is a chart-of-accounts entry.
type Account struct {
	ID              string          `mapstructure:"id" validate:"required"`
	CompanyID       string          `mapstructure:"empresa_id"`
	Code            string          `mapstructure:"codigo" validate:"required"` // hierarchical, e.g. "1.02.01"
	Description     string          `mapstructure:"descricao"`
	Type            AccountType     `mapstructure:"tipo"`
	Category        AccountCategory `mapstructure:"categoria"`
	IncomeStatement bool            `mapstructure:"dre"`
	Status          Status          `mapstructure:"status"`
}

// Direction is the operation side a title type applies to.
type Direction string

const (
	DirectionPayable    Direction = "pagar"
	DirectionReceivable Direction = "receber"
)

// TitleType links a kind of title to the accounts its adjustments post against.
// Any of the account references may be empty.
type TitleType struct {
	ID                string    `mapstructure:"id" validate:"required"`
	CompanyID         string    `mapstructure:"empresa_id"`
	Description       string    `mapstructure:"descricao"`
	Direction         Direction `mapstructure:"operacao"`
	ContraAccountID   string    `mapstructure:"conta_contabil_id"`
	InterestAccountID string    `mapstructure:"conta_juros_id"`
	PenaltyAccountID  string    `mapstructure:"conta_multa_id"`
	DiscountAccountID string    `mapstructure:"conta_desconto_id"`
	Status            Status    `mapstructure:"status"`
}

// BankAccount is a bank or cash account mapped to its ledger account.
type BankAccount struct {
	ID        string `mapstructure:"id" validate:"required"`
	CompanyID string `mapstructure:"empresa_id"`
	Name      string `mapstructure:"nome"`
	AccountID string `mapstructure:"conta_contabil_id"`
	Status    Status `mapstructure:"status"`
}
