// Package movements loads raw financial movements and their installments.
package movements

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/razao/internal/model"
	"github.com/cleared-dev/razao/internal/obs"
	"github.com/cleared-dev/razao/internal/storage"
)

// DefaultBatchSize is the number of movement ids per installment query.
const DefaultBatchSize = 50

// BatchError reports a failed installment batch. The whole load is aborted.
type BatchError struct {
	Batch int // zero-based
	IDs   []string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("loading installments batch %d (%d movements): %v", e.Batch, len(e.IDs), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Loader reads movements and installments from storage.
type Loader struct {
	store     storage.Store
	batchSize int
	log       logrus.FieldLogger
	metrics   *obs.Metrics
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize overrides DefaultBatchSize. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Loader) { l.log = log }
}

// WithMetrics sets the collectors batch fetches are counted on.
func WithMetrics(m *obs.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a Loader.
func NewLoader(store storage.Store, opts ...Option) *Loader {
	l := &Loader{store: store, batchSize: DefaultBatchSize, log: obs.Discard()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LoadMovements returns the company's movements ordered by date. Rows that
// fail validation are dropped with a warning.
func (l *Loader) LoadMovements(ctx context.Context, companyID string) ([]model.Movement, error) {
	rows, err := l.store.Select(ctx, storage.Query{
		Entity:    storage.EntityMovements,
		CompanyID: companyID,
		OrderBy:   "data_lancamento",
	})
	if err != nil {
		return nil, fmt.Errorf("loading movements: %w", err)
	}

	out := make([]model.Movement, 0, len(rows))
	for _, r := range rows {
		m, err := model.DecodeMovement(r)
		if err != nil {
			l.warnInvalid(storage.EntityMovements, r, err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// LoadInstallments returns the installments of the given movements. The ids
// are queried in sequential chunks of the batch size and the results
// concatenated in chunk order. Duplicate ids are queried once. Any chunk
// failure aborts the load with a *BatchError.
func (l *Loader) LoadInstallments(ctx context.Context, movementIDs []string) ([]model.Installment, error) {
	ids := dedupe(movementIDs)

	var out []model.Installment
	for batch, start := 0, 0; start < len(ids); batch, start = batch+1, start+l.batchSize {
		end := min(start+l.batchSize, len(ids))
		chunk := ids[start:end]

		if err := ctx.Err(); err != nil {
			return nil, &BatchError{Batch: batch, IDs: chunk, Err: err}
		}
		rows, err := l.store.Select(ctx, storage.Query{
			Entity: storage.EntityInstallments,
			In:     &storage.In{Field: "movimentacao_id", Values: chunk},
		})
		if l.metrics != nil {
			l.metrics.InstallmentBatches.Inc()
		}
		if err != nil {
			return nil, &BatchError{Batch: batch, IDs: chunk, Err: err}
		}

		for _, r := range rows {
			inst, err := model.DecodeInstallment(r)
			if err != nil {
				l.warnInvalid(storage.EntityInstallments, r, err)
				continue
			}
			out = append(out, inst)
		}
	}
	return out, nil
}

// IDs returns the ids of movements in order.
func IDs(movements []model.Movement) []string {
	ids := make([]string, len(movements))
	for i, m := range movements {
		ids[i] = m.ID
	}
	return ids
}

func (l *Loader) warnInvalid(entity storage.Entity, r storage.Row, err error) {
	l.log.WithFields(logrus.Fields{
		"module": "movements",
		"entity": entity,
		"id":     r[storage.ColumnID],
	}).Warnf("dropping invalid row: %v", err)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
