package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
	DialectMySQL
)

// SQL is a Store over database/sql. Entity names are table names.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

var _ Store = (*SQL)(nil)

// NewSQL wraps an open database.
func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

// OpenSQL opens a "postgres" (pgx), "mysql" or "sqlite" (go-sqlite3) database.
func OpenSQL(driver, dsn string) (*SQL, error) {
	if dsn == "" {
		return nil, fmt.Errorf("storage driver %s requires a DSN", driver)
	}
	var (
		driverName string
		dialect    Dialect
	)
	switch driver {
	case "postgres":
		driverName, dialect = "pgx", DialectPostgres
	case "mysql":
		driverName, dialect = "mysql", DialectMySQL
	case "sqlite":
		driverName, dialect = "sqlite3", DialectSQLite
	default:
		return nil, fmt.Errorf("unknown SQL driver %q", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", driver, err)
	}
	if dialect != DialectSQLite {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(15 * time.Minute)
	}
	return NewSQL(db, dialect), nil
}

// DB returns the underlying handle.
func (s *SQL) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQL) Close() error { return s.db.Close() }

// Migrate creates the engine's tables if they do not exist.
func (s *SQL) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if s.dialect == DialectMySQL {
			stmt = mysqlColumns(stmt)
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}
	return nil
}

// Select implements Store.
func (s *SQL) Select(ctx context.Context, q Query) ([]Row, error) {
	if q.In != nil && len(q.In.Values) == 0 {
		return nil, nil
	}
	query, args, err := s.buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Entity, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading %s columns: %w", q.Entity, err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", q.Entity, err)
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				r[c] = string(b)
				continue
			}
			r[c] = vals[i]
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", q.Entity, err)
	}
	return out, nil
}

// Insert implements Store. A missing id is generated.
func (s *SQL) Insert(ctx context.Context, entity Entity, row Row) (Row, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	r := cloneRow(row)
	if str(r[ColumnID]) == "" {
		r[ColumnID] = uuid.NewString()
	}

	cols := make([]string, 0, len(r))
	for c := range r {
		if err := checkIdent(c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	phs := make([]string, len(cols))
	for i, c := range cols {
		args[i] = r[c]
		phs[i] = s.placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", entity, strings.Join(cols, ", "), strings.Join(phs, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", entity, err)
	}
	return r, nil
}

// Delete implements Store.
func (s *SQL) Delete(ctx context.Context, entity Entity, id string) error {
	if err := checkEntity(entity); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", entity, ColumnID, s.placeholder(1))
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}

func (s *SQL) buildSelect(q Query) (string, []any, error) {
	if err := checkEntity(q.Entity); err != nil {
		return "", nil, err
	}

	var (
		conds []string
		args  []any
	)
	add := func(cond string, vals ...any) {
		conds = append(conds, cond)
		args = append(args, vals...)
	}

	if q.CompanyID != "" {
		add(ColumnCompany+" = "+s.placeholder(len(args)+1), q.CompanyID)
	}
	if q.ActiveOnly {
		add(ColumnStatus+" = "+s.placeholder(len(args)+1), StatusActive)
	}
	if q.In != nil {
		if err := checkIdent(q.In.Field); err != nil {
			return "", nil, err
		}
		phs := make([]string, len(q.In.Values))
		vals := make([]any, len(q.In.Values))
		for i, v := range q.In.Values {
			phs[i] = s.placeholder(len(args) + i + 1)
			vals[i] = v
		}
		add(q.In.Field+" IN ("+strings.Join(phs, ", ")+")", vals...)
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(string(q.Entity))
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	if q.OrderBy != "" {
		if err := checkIdent(q.OrderBy); err != nil {
			return "", nil, err
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
	}
	return b.String(), args, nil
}

func (s *SQL) placeholder(n int) string {
	if s.dialect != DialectPostgres {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// mysqlColumns rewrites the key and defaulted TEXT columns, which MySQL
// cannot index or default, to VARCHAR. Free-text columns stay TEXT.
func mysqlColumns(stmt string) string {
	stmt = strings.ReplaceAll(stmt, "id TEXT PRIMARY KEY", "id VARCHAR(64) PRIMARY KEY")
	return strings.ReplaceAll(stmt, "TEXT NOT NULL DEFAULT", "VARCHAR(32) NOT NULL DEFAULT")
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS plano_contas (
		id TEXT PRIMARY KEY,
		empresa_id TEXT NOT NULL,
		codigo TEXT NOT NULL,
		descricao TEXT,
		tipo TEXT,
		categoria TEXT,
		dre BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'ativo'
	)`,
	`CREATE TABLE IF NOT EXISTS tipos_titulo (
		id TEXT PRIMARY KEY,
		empresa_id TEXT NOT NULL,
		descricao TEXT,
		operacao TEXT,
		conta_contabil_id TEXT,
		conta_juros_id TEXT,
		conta_multa_id TEXT,
		conta_desconto_id TEXT,
		status TEXT NOT NULL DEFAULT 'ativo'
	)`,
	`CREATE TABLE IF NOT EXISTS contas_bancarias (
		id TEXT PRIMARY KEY,
		empresa_id TEXT NOT NULL,
		nome TEXT,
		conta_contabil_id TEXT,
		status TEXT NOT NULL DEFAULT 'ativo'
	)`,
	`CREATE TABLE IF NOT EXISTS movimentacoes (
		id TEXT PRIMARY KEY,
		empresa_id TEXT NOT NULL,
		tipo_operacao TEXT NOT NULL,
		descricao TEXT,
		valor NUMERIC(18,4) NOT NULL DEFAULT 0,
		data_lancamento DATE NOT NULL,
		categoria_id TEXT,
		tipo_titulo_id TEXT,
		favorecido TEXT,
		conta_origem_id TEXT,
		conta_destino_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS parcelas (
		id TEXT PRIMARY KEY,
		movimentacao_id TEXT NOT NULL,
		numero_parcela INTEGER NOT NULL DEFAULT 1,
		valor NUMERIC(18,4) NOT NULL DEFAULT 0,
		data_vencimento DATE,
		data_pagamento DATE,
		juros NUMERIC(18,4),
		multa NUMERIC(18,4),
		desconto NUMERIC(18,4),
		conta_bancaria_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS lancamentos_contabeis (
		id TEXT PRIMARY KEY,
		empresa_id TEXT NOT NULL,
		data DATE NOT NULL,
		historico TEXT,
		conta_debito_id TEXT NOT NULL,
		conta_credito_id TEXT NOT NULL,
		valor NUMERIC(18,4) NOT NULL,
		tipo TEXT NOT NULL DEFAULT 'principal'
	)`,
}
