package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Memory is an in-process Store. Rows are copied on the way in and out.
type Memory struct {
	mu     sync.Mutex
	tables map[Entity][]Row
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[Entity][]Row)}
}

// Seed appends rows to an entity without id generation.
func (m *Memory) Seed(entity Entity, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.tables[entity] = append(m.tables[entity], cloneRow(r))
	}
}

// LoadFixtures seeds the store from a YAML file mapping entity names to
// lists of rows.
func (m *Memory) LoadFixtures(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading fixtures: %w", err)
	}
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing fixtures: %w", err)
	}
	for name, rows := range doc {
		entity := Entity(name)
		if err := checkEntity(entity); err != nil {
			return fmt.Errorf("fixtures: %w", err)
		}
		for _, r := range rows {
			m.Seed(entity, r)
		}
	}
	return nil
}

// WriteFixtures writes rows in the format LoadFixtures reads.
func WriteFixtures(path string, fixtures map[Entity][]Row) error {
	doc := make(map[string][]Row, len(fixtures))
	for entity, rows := range fixtures {
		if err := checkEntity(entity); err != nil {
			return fmt.Errorf("fixtures: %w", err)
		}
		doc[string(entity)] = rows
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling fixtures: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing fixtures: %w", err)
	}
	return nil
}

// Select implements Store.
func (m *Memory) Select(ctx context.Context, q Query) ([]Row, error) {
	if err := checkEntity(q.Entity); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var in map[string]bool
	if q.In != nil {
		in = make(map[string]bool, len(q.In.Values))
		for _, v := range q.In.Values {
			in[v] = true
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Row
	for _, r := range m.tables[q.Entity] {
		if q.CompanyID != "" && str(r[ColumnCompany]) != q.CompanyID {
			continue
		}
		if q.ActiveOnly && str(r[ColumnStatus]) != StatusActive {
			continue
		}
		if in != nil && !in[str(r[q.In.Field])] {
			continue
		}
		out = append(out, cloneRow(r))
	}

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return str(out[i][q.OrderBy]) < str(out[j][q.OrderBy])
		})
	}
	return out, nil
}

// Insert implements Store. A missing id is generated.
func (m *Memory) Insert(ctx context.Context, entity Entity, row Row) (Row, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := cloneRow(row)
	if str(r[ColumnID]) == "" {
		r[ColumnID] = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[entity] = append(m.tables[entity], r)
	return cloneRow(r), nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, entity Entity, id string) error {
	if err := checkEntity(entity); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[entity]
	for i, r := range rows {
		if str(r[ColumnID]) == id {
			m.tables[entity] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// Close implements io.Closer.
func (m *Memory) Close() error { return nil }

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
