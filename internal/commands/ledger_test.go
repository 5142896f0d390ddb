package commands_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/razao/internal/export"
)

func TestLedgerShow(t *testing.T) {
	cfg := initDemo(t)

	out, err := runRazao(t, "ledger", "show", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "DATA")
	assert.Contains(t, out, "01/01/2025")
	assert.Contains(t, out, "Aluguel janeiro - Parcela 1")
	assert.Contains(t, out, "Conta a receber - ACME Ltda")
	assert.Contains(t, out, "Transferência entre contas")
	assert.Contains(t, out, "16 postings, 0 skipped transactions")
}

func TestLedgerShow_Account(t *testing.T) {
	cfg := initDemo(t)

	out, err := runRazao(t, "ledger", "show", "-c", cfg, "--account", "1.01.01")
	require.NoError(t, err)
	assert.Contains(t, out, "1.01.01 Caixa/Banco")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "1 postings")
	assert.Contains(t, out, "net movement: 1000.00")
}

func TestLedgerShow_Period(t *testing.T) {
	cfg := initDemo(t)

	out, err := runRazao(t, "ledger", "show", "-c", cfg, "--from", "10/01/2025", "--to", "2025-01-15")
	require.NoError(t, err)
	assert.Contains(t, out, "8 postings")
	assert.NotContains(t, out, "01/01/2025")
	assert.NotContains(t, out, "20/01/2025")

	_, err = runRazao(t, "ledger", "show", "-c", cfg, "--from", "2025-13-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from")
}

func TestLedgerShow_MetricsFile(t *testing.T) {
	cfg := initDemo(t)
	path := filepath.Join(t.TempDir(), "razao.prom")

	_, err := runRazao(t, "ledger", "show", "-c", cfg, "--metrics-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `razao_postings_derived_total{kind="principal"} 10`)
	assert.Contains(t, string(data), `razao_postings_derived_total{kind="multa"} 2`)
	assert.Contains(t, string(data), "razao_ledger_load_seconds_count 1")
}

func TestLedgerExport(t *testing.T) {
	cfg := initDemo(t)

	out, err := runRazao(t, "ledger", "export", "-c", cfg)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 17)
	assert.Equal(t, strings.Split(export.Header, ","), records[0])
	assert.Equal(t, "lanc-1-d", records[1][0])
	assert.Equal(t, "10000.00", records[1][6])
}

func TestLedgerExport_File(t *testing.T) {
	cfg := initDemo(t)
	path := filepath.Join(t.TempDir(), "razao.csv")

	out, err := runRazao(t, "ledger", "export", "-c", cfg, "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.FileExists(t, path)
}

func TestLedgerBalances(t *testing.T) {
	cfg := initDemo(t)

	out, err := runRazao(t, "ledger", "balances", "-c", cfg, "--csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	byAccount := make(map[string][]string)
	for _, r := range records[1:] {
		byAccount[r[0]] = r
	}
	// 10000 capital - 2500 rent - 50 penalty + 900 + 15 received - 1000 transfer
	assert.Equal(t, "7365.00", byAccount["1.01.02"][5])
	assert.Equal(t, "1000.00", byAccount["1.01.01"][5])
	assert.Equal(t, "900.00", byAccount["1.02.01"][5], "second installment still open")
	assert.Equal(t, "0.00", byAccount["2.01.01"][5])

	table, err := runRazao(t, "ledger", "balances", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, table, "1.01.02 Banco Conta Movimento")

	expenses, err := runRazao(t, "ledger", "balances", "-c", cfg, "--type", "despesa")
	require.NoError(t, err)
	assert.Contains(t, expenses, "4.01.01 Aluguel")
	assert.Contains(t, expenses, "4.02.02 Multas Pagas")
	assert.NotContains(t, expenses, "1.01.02")
}

func TestLedger_MissingCompany(t *testing.T) {
	_, err := runRazao(t, "ledger", "show", "-c", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company_id")
}
