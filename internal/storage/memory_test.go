package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *Memory {
	m := NewMemory()
	m.Seed(EntityAccounts,
		Row{"id": "a1", "empresa_id": "emp-1", "codigo": "1.01.01", "status": "ativo"},
		Row{"id": "a2", "empresa_id": "emp-1", "codigo": "2.01.01", "status": "inativo"},
		Row{"id": "a3", "empresa_id": "emp-2", "codigo": "1.01.01", "status": "ativo"},
	)
	m.Seed(EntityInstallments,
		Row{"id": "p2", "movimentacao_id": "m1", "numero_parcela": 2},
		Row{"id": "p1", "movimentacao_id": "m1", "numero_parcela": 1},
		Row{"id": "p3", "movimentacao_id": "m2", "numero_parcela": 1},
		Row{"id": "p4", "movimentacao_id": "m3", "numero_parcela": 1},
	)
	return m
}

func TestMemorySelect_CompanyAndStatus(t *testing.T) {
	m := seeded()
	ctx := context.Background()

	rows, err := m.Select(ctx, Query{Entity: EntityAccounts, CompanyID: "emp-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = m.Select(ctx, Query{Entity: EntityAccounts, CompanyID: "emp-1", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a1", rows[0]["id"])
}

func TestMemorySelect_InAndOrder(t *testing.T) {
	m := seeded()
	rows, err := m.Select(context.Background(), Query{
		Entity:  EntityInstallments,
		In:      &In{Field: "movimentacao_id", Values: []string{"m1", "m3"}},
		OrderBy: "id",
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "p1", rows[0]["id"])
	assert.Equal(t, "p2", rows[1]["id"])
	assert.Equal(t, "p4", rows[2]["id"])
}

func TestMemorySelect_ReturnsCopies(t *testing.T) {
	m := seeded()
	ctx := context.Background()
	rows, err := m.Select(ctx, Query{Entity: EntityAccounts, CompanyID: "emp-1", ActiveOnly: true})
	require.NoError(t, err)
	rows[0]["codigo"] = "changed"

	rows, err = m.Select(ctx, Query{Entity: EntityAccounts, CompanyID: "emp-1", ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "1.01.01", rows[0]["codigo"])
}

func TestMemoryInsertDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	row, err := m.Insert(ctx, EntityManualRows, Row{"empresa_id": "emp-1", "valor": "10.00"})
	require.NoError(t, err)
	id, _ := row["id"].(string)
	require.NotEmpty(t, id, "id should be generated")

	rows, err := m.Select(ctx, Query{Entity: EntityManualRows, CompanyID: "emp-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, m.Delete(ctx, EntityManualRows, id))
	err = m.Delete(ctx, EntityManualRows, id)
	assert.ErrorIs(t, err, ErrNotFound)

	rows, err = m.Select(ctx, Query{Entity: EntityManualRows, CompanyID: "emp-1"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryUnknownEntity(t *testing.T) {
	m := NewMemory()
	_, err := m.Select(context.Background(), Query{Entity: "clientes"})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestMemoryCanceledContext(t *testing.T) {
	m := seeded()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Select(ctx, Query{Entity: EntityAccounts})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	doc := `
plano_contas:
  - id: a1
    empresa_id: emp-1
    codigo: "1.01.01"
    status: ativo
movimentacoes:
  - id: m1
    empresa_id: emp-1
    tipo_operacao: pagar
    valor: "1000.00"
    data_lancamento: "2025-01-15"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	m := NewMemory()
	require.NoError(t, m.LoadFixtures(path))

	rows, err := m.Select(context.Background(), Query{Entity: EntityMovements, CompanyID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1000.00", rows[0]["valor"])
}

func TestLoadFixtures_UnknownEntity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clientes:\n  - id: c1\n"), 0o644))
	err := NewMemory().LoadFixtures(path)
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestOpen_Memory(t *testing.T) {
	s, closer, err := Open(context.Background(), Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
	assert.NoError(t, closer.Close())

	_, _, err = Open(context.Background(), Options{Driver: "oracle"})
	assert.Error(t, err)

	_, _, err = Open(context.Background(), Options{Driver: "postgres"})
	assert.Error(t, err, "postgres without DSN")
}

func TestWriteFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	err := WriteFixtures(path, map[Entity][]Row{
		EntityBankAccounts: {{"id": "bank-1", "empresa_id": "emp-1", "nome": "Banco X", "status": "ativo"}},
	})
	require.NoError(t, err)

	m := NewMemory()
	require.NoError(t, m.LoadFixtures(path))
	rows, err := m.Select(context.Background(), Query{Entity: EntityBankAccounts, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Banco X", rows[0]["nome"])

	err = WriteFixtures(path, map[Entity][]Row{"clientes": nil})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}
