package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/razao/internal/config"
	"github.com/cleared-dev/razao/internal/directory"
	"github.com/cleared-dev/razao/internal/model"
	"github.com/cleared-dev/razao/internal/storage"
)

const demoFixtures = "fixtures.yaml"

func newInitCommand() *cobra.Command {
	var companyID string
	var driver string
	var dsn string
	var demo bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a razao.yaml for a company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, companyID, driver, dsn, demo)
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company (tenant) id (required)")
	_ = cmd.MarkFlagRequired("company")
	cmd.Flags().StringVar(&driver, "driver", "memory", "storage driver: memory, postgres, mysql or sqlite")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN for postgres, mysql or sqlite")
	cmd.Flags().BoolVar(&demo, "demo", false, "seed the memory driver with a demo dataset")

	return cmd
}

func runInit(out io.Writer, dir, companyID, driver, dsn string, demo bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg := config.Default(companyID)
	cfg.Storage.Driver = driver
	cfg.Storage.DSN = dsn

	if demo {
		if driver != "memory" {
			return fmt.Errorf("--demo requires the memory driver")
		}
		if err := storage.WriteFixtures(filepath.Join(dir, demoFixtures), demoData(companyID)); err != nil {
			return err
		}
		cfg.Storage.Fixtures = demoFixtures
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "Initialized razao for company %s at %s\n", companyID, dir)
	return nil
}

// demoData is a small company: a chart of accounts, a supplier and a customer
// title type, two banks, a payable with a late payment, a receivable paid in
// part with interest, a transfer and an opening capital posting.
func demoData(companyID string) map[storage.Entity][]storage.Row {
	chart := directory.DefaultChart(companyID)
	accounts := make([]storage.Row, len(chart))
	for i, a := range chart {
		accounts[i] = model.EncodeAccount(a)
	}

	row := func(kv ...any) storage.Row {
		r := storage.Row{"empresa_id": companyID}
		for i := 0; i+1 < len(kv); i += 2 {
			r[kv[i].(string)] = kv[i+1]
		}
		return r
	}

	return map[storage.Entity][]storage.Row{
		storage.EntityAccounts: accounts,
		storage.EntityTitleTypes: {
			row("id", "tt-fornecedor", "descricao", "Fornecedor", "operacao", "pagar", "status", "ativo",
				"conta_contabil_id", "2.01.01", "conta_juros_id", "4.02.01", "conta_multa_id", "4.02.02", "conta_desconto_id", "4.02.03"),
			row("id", "tt-cliente", "descricao", "Cliente", "operacao", "receber", "status", "ativo",
				"conta_contabil_id", "1.02.01", "conta_juros_id", "3.02.01", "conta_multa_id", "3.02.02"),
		},
		storage.EntityBankAccounts: {
			row("id", "banco-1", "nome", "Banco Conta Movimento", "conta_contabil_id", "1.01.02", "status", "ativo"),
			row("id", "caixa", "nome", "Caixa", "conta_contabil_id", "1.01.01", "status", "ativo"),
		},
		storage.EntityMovements: {
			row("id", "mov-1", "tipo_operacao", "pagar", "descricao", "Aluguel janeiro", "valor", "2500.00",
				"data_lancamento", "2025-01-05", "categoria_id", "4.01.01", "tipo_titulo_id", "tt-fornecedor", "favorecido", "Imobiliária Central"),
			row("id", "mov-2", "tipo_operacao", "receber", "valor", "1800.00", "data_lancamento", "2025-01-12",
				"categoria_id", "3.01.01", "tipo_titulo_id", "tt-cliente", "favorecido", "ACME Ltda"),
			row("id", "mov-3", "tipo_operacao", "transferencia", "valor", "1000.00", "data_lancamento", "2025-01-15",
				"conta_origem_id", "banco-1", "conta_destino_id", "caixa"),
		},
		storage.EntityInstallments: {
			{"id": "parc-1", "movimentacao_id": "mov-1", "numero_parcela": 1, "valor": "2500.00", "multa": "50.00",
				"data_vencimento": "2025-01-08", "data_pagamento": "2025-01-10", "conta_bancaria_id": "banco-1"},
			{"id": "parc-2", "movimentacao_id": "mov-2", "numero_parcela": 1, "valor": "900.00", "juros": "15.00",
				"data_vencimento": "2025-01-18", "data_pagamento": "2025-01-20", "conta_bancaria_id": "banco-1"},
			{"id": "parc-3", "movimentacao_id": "mov-2", "numero_parcela": 2, "valor": "900.00", "data_vencimento": "2025-02-18"},
		},
		storage.EntityManualRows: {
			row("id", "lanc-1", "data", "2025-01-01", "historico", "Integralização de capital", "conta_debito_id", "1.01.02",
				"conta_credito_id", "2.03.01", "valor", "10000.00", "tipo", "principal"),
		},
	}
}
