package directory

import "github.com/cleared-dev/razao/internal/model"

// DefaultChart returns a starter chart of accounts for a company. It holds
// the fallback codes derivation posts to when nothing more specific is
// configured.
func DefaultChart(companyID string) []model.Account {
	chart := []model.Account{
		{ID: "1.01.01", Code: "1.01.01", Description: "Caixa/Banco", Type: model.AccountTypeAsset, Category: model.CategoryMovement},
		{ID: "1.01.02", Code: "1.01.02", Description: "Banco Conta Movimento", Type: model.AccountTypeAsset, Category: model.CategoryMovement},
		{ID: "1.02.01", Code: "1.02.01", Description: "Contas a Receber", Type: model.AccountTypeAsset, Category: model.CategoryTitle},
		{ID: "2.01.01", Code: "2.01.01", Description: "Contas a Pagar", Type: model.AccountTypeLiability, Category: model.CategoryTitle},
		{ID: "2.03.01", Code: "2.03.01", Description: "Capital Social", Type: model.AccountTypeEquity},
		{ID: "3.01.01", Code: "3.01.01", Description: "Receita de Serviços", Type: model.AccountTypeRevenue, IncomeStatement: true},
		{ID: "3.02.01", Code: "3.02.01", Description: "Juros Recebidos", Type: model.AccountTypeRevenue, IncomeStatement: true},
		{ID: "3.02.02", Code: "3.02.02", Description: "Multas Recebidas", Type: model.AccountTypeRevenue, IncomeStatement: true},
		{ID: "4.01.01", Code: "4.01.01", Description: "Aluguel", Type: model.AccountTypeExpense, IncomeStatement: true},
		{ID: "4.01.02", Code: "4.01.02", Description: "Fornecedores Diversos", Type: model.AccountTypeExpense, IncomeStatement: true},
		{ID: "4.02.01", Code: "4.02.01", Description: "Juros Pagos", Type: model.AccountTypeExpense, IncomeStatement: true},
		{ID: "4.02.02", Code: "4.02.02", Description: "Multas Pagas", Type: model.AccountTypeExpense, IncomeStatement: true},
		{ID: "4.02.03", Code: "4.02.03", Description: "Descontos Obtidos", Type: model.AccountTypeRevenue, IncomeStatement: true},
	}
	for i := range chart {
		chart[i].CompanyID = companyID
		chart[i].Status = model.StatusActive
	}
	return chart
}
