// Package storage is the data-access boundary of the ledger engine. Records
// are addressed by entity name and filter, the way the hosted database
// exposes them; typed decoding happens in the model package.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// Entity names a table of the hosted database.
type Entity string

const (
	EntityAccounts     Entity = "plano_contas"
	EntityTitleTypes   Entity = "tipos_titulo"
	EntityBankAccounts Entity = "contas_bancarias"
	EntityMovements    Entity = "movimentacoes"
	EntityInstallments Entity = "parcelas"
	EntityManualRows   Entity = "lancamentos_contabeis"
)

// Entities lists every entity the engine reads or writes.
var Entities = []Entity{
	EntityAccounts,
	EntityTitleTypes,
	EntityBankAccounts,
	EntityMovements,
	EntityInstallments,
	EntityManualRows,
}

// Well-known columns.
const (
	ColumnID      = "id"
	ColumnCompany = "empresa_id"
	ColumnStatus  = "status"

	// StatusActive is the status value ActiveOnly queries match.
	StatusActive = "ativo"
)

var (
	// ErrNotFound is returned when a row to delete does not exist.
	ErrNotFound = errors.New("row not found")

	// ErrUnknownEntity is returned for entity names outside Entities.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Row is one record as the database returns it.
type Row = map[string]any

// In restricts a query to rows whose Field is one of Values.
type In struct {
	Field  string
	Values []string
}

// Query selects rows of one entity.
type Query struct {
	Entity     Entity
	CompanyID  string // empty: no tenant filter
	ActiveOnly bool
	In         *In
	OrderBy    string // ascending; empty: storage order
}

// Store is the data-access interface the engine depends on.
type Store interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, entity Entity, row Row) (Row, error)
	Delete(ctx context.Context, entity Entity, id string) error
}

// Options selects and configures a backend.
type Options struct {
	Driver   string // "memory", "postgres", "mysql" or "sqlite"
	DSN      string
	Fixtures string // YAML seed file for the memory driver
}

// Open returns the backend described by opts. The returned closer releases
// its resources.
func Open(ctx context.Context, opts Options) (Store, io.Closer, error) {
	switch opts.Driver {
	case "", "memory":
		mem := NewMemory()
		if opts.Fixtures != "" {
			if err := mem.LoadFixtures(opts.Fixtures); err != nil {
				return nil, nil, err
			}
		}
		return mem, mem, nil
	case "postgres", "mysql", "sqlite":
		s, err := OpenSQL(opts.Driver, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}

func checkEntity(e Entity) error {
	for _, known := range Entities {
		if e == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownEntity, e)
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid column name %q", name)
	}
	return nil
}
