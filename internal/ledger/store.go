// Package ledger owns the in-memory ledger: persisted manual postings merged
// with postings derived from movements, annotated with running balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/razao/internal/balance"
	"github.com/cleared-dev/razao/internal/directory"
	"github.com/cleared-dev/razao/internal/id"
	"github.com/cleared-dev/razao/internal/model"
	"github.com/cleared-dev/razao/internal/movements"
	"github.com/cleared-dev/razao/internal/obs"
	"github.com/cleared-dev/razao/internal/posting"
	"github.com/cleared-dev/razao/internal/storage"
)

// Store loads, mutates and publishes one company's ledger. It is safe for
// concurrent use; mutations are serialized.
type Store struct {
	store     storage.Store
	log       logrus.FieldLogger
	notifier  obs.Notifier
	metrics   *obs.Metrics
	cache     posting.Cache
	strict    bool
	batchSize int

	mutate sync.Mutex // serializes Load and mutations

	mu        sync.RWMutex
	companyID string
	loaded    bool
	dir       *directory.Directory
	postings  []model.Posting
	skips     []posting.Skip
	subs      map[int]func([]model.Posting)
	nextSub   int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithNotifier sets where user-facing notices go.
func WithNotifier(n obs.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithMetrics sets the collectors.
func WithMetrics(m *obs.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithCache sets the derivation cache.
func WithCache(c posting.Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithStrict fails loads on unresolved references instead of skipping them.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithBatchSize sets the installment batch size.
func WithBatchSize(n int) Option {
	return func(s *Store) { s.batchSize = n }
}

// New creates an empty Store over st.
func New(st storage.Store, opts ...Option) *Store {
	s := &Store{
		store:     st,
		log:       obs.Discard(),
		batchSize: movements.DefaultBatchSize,
		dir:       directory.Empty(),
		subs:      make(map[int]func([]model.Posting)),
	}
	for _, o := range opts {
		o(s)
	}
	if s.notifier == nil {
		s.notifier = obs.LogNotifier{Log: s.log}
	}
	return s
}

// Load replaces the ledger with companyID's. It loads the directory,
// movements and their installments, and persisted manual rows; derives
// postings for every movement; computes balances and publishes the result.
// On failure it notifies, publishes an empty ledger and returns a *LoadError.
func (s *Store) Load(ctx context.Context, companyID string) error {
	snapshot, err := s.load(ctx, companyID)
	s.notifySubscribers(snapshot)
	return err
}

func (s *Store) load(ctx context.Context, companyID string) ([]model.Posting, error) {
	s.mutate.Lock()
	defer s.mutate.Unlock()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.LoadDuration.Observe(time.Since(start).Seconds())
		}
	}()

	dir, _ := directory.NewLoader(s.store, s.log, s.notifier).Load(ctx, companyID)

	postings, skips, err := s.loadPostings(ctx, companyID, dir)
	if err != nil {
		obs.LogError(s.log, "ledger", "load", err, logrus.Fields{"company_id": companyID})
		s.notifier.Notify(ctx, obs.Notice{
			Level:   obs.LevelError,
			Title:   "Erro ao carregar lançamentos",
			Message: err.Error(),
		})
		return s.publish(companyID, dir, nil, nil), err
	}

	s.log.WithFields(logrus.Fields{
		"module":     "ledger",
		"company_id": companyID,
		"postings":   len(postings),
		"skipped":    len(skips),
	}).Info("ledger loaded")
	return s.publish(companyID, dir, balance.Compute(postings), skips), nil
}

// Reload repeats the last Load.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.RLock()
	companyID, loaded := s.companyID, s.loaded
	s.mu.RUnlock()
	if !loaded {
		return ErrNotLoaded
	}
	return s.Load(ctx, companyID)
}

func (s *Store) loadPostings(ctx context.Context, companyID string, dir *directory.Directory) ([]model.Posting, []posting.Skip, error) {
	loader := movements.NewLoader(s.store,
		movements.WithBatchSize(s.batchSize),
		movements.WithLogger(s.log),
		movements.WithMetrics(s.metrics),
	)

	manual, err := s.loadManual(ctx, companyID, dir)
	if err != nil {
		return nil, nil, &LoadError{Step: "manual postings", Err: err}
	}

	movs, err := loader.LoadMovements(ctx, companyID)
	if err != nil {
		return nil, nil, &LoadError{Step: "movements", Err: err}
	}
	installments, err := loader.LoadInstallments(ctx, movements.IDs(movs))
	if err != nil {
		return nil, nil, &LoadError{Step: "installments", Err: err}
	}

	opts := []posting.Option{
		posting.WithStrict(s.strict),
		posting.WithLogger(s.log),
		posting.WithMetrics(s.metrics),
	}
	if s.cache != nil {
		opts = append(opts, posting.WithCache(s.cache))
	}
	derived, err := posting.NewDeriver(dir, opts...).DeriveAll(ctx, movs, installments)
	if err != nil {
		return nil, nil, &LoadError{Step: "derivation", Err: err}
	}

	all := append(manual, derived.Postings...)
	if err := s.checkPairs(all); err != nil {
		return nil, nil, &LoadError{Step: "validation", Err: err}
	}
	return all, derived.Skips, nil
}

// checkPairs logs and counts unbalanced posting groups. Only strict mode
// rejects them.
func (s *Store) checkPairs(postings []model.Posting) error {
	violations := posting.ValidatePairs(postings)
	if len(violations) == 0 {
		return nil
	}
	errs := make([]error, len(violations))
	for i, v := range violations {
		s.log.WithFields(logrus.Fields{"module": "ledger", "group": v.Group}).
			Warnf("unbalanced posting group: %s", v.Description)
		if s.metrics != nil {
			s.metrics.PairingViolations.Inc()
		}
		errs[i] = v
	}
	if s.strict {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Store) loadManual(ctx context.Context, companyID string, dir *directory.Directory) ([]model.Posting, error) {
	rows, err := s.store.Select(ctx, storage.Query{
		Entity:    storage.EntityManualRows,
		CompanyID: companyID,
		OrderBy:   "data",
	})
	if err != nil {
		return nil, err
	}

	var out []model.Posting
	for _, r := range rows {
		row, err := model.DecodeManualRow(r)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"module": "ledger",
				"id":     r[storage.ColumnID],
			}).Warnf("dropping invalid journal row: %v", err)
			continue
		}
		out = append(out, manualPostings(row, dir)...)
	}
	return out, nil
}

// manualPostings expands a persisted row into its debit and credit views.
func manualPostings(r model.ManualRow, dir *directory.Directory) []model.Posting {
	kind := r.Kind
	if kind == "" {
		kind = model.PostingPrincipal
	}
	mk := func(postingID, accountID string, side model.Side) model.Posting {
		p := model.Posting{
			ID:        postingID,
			Date:      r.Date,
			Narrative: r.Narrative,
			AccountID: accountID,
			Side:      side,
			Amount:    r.Amount,
			Kind:      kind,
			Manual:    true,
		}
		if a, ok := dir.Account(accountID); ok {
			p.AccountName = a.Description
			p.AccountCode = a.Code
		}
		return p
	}
	return []model.Posting{
		mk(id.Debit(r.ID), r.DebitAccountID, model.SideDebit),
		mk(id.Credit(r.ID), r.CreditAccountID, model.SideCredit),
	}
}

// ManualEntry holds the parameters of a manual posting pair.
type ManualEntry struct {
	Date            civil.Date
	Narrative       string
	DebitAccountID  string
	CreditAccountID string
	Amount          decimal.Decimal
}

// AddManualPosting validates e against the directory, persists it as one
// row, appends its two postings and recomputes balances. It returns the
// persisted row id. On failure the ledger is unchanged and the error is a
// *MutationError.
func (s *Store) AddManualPosting(ctx context.Context, e ManualEntry) (string, error) {
	rowID, snapshot, err := s.addManual(ctx, e)
	if err != nil {
		return "", err
	}
	s.notifySubscribers(snapshot)
	return rowID, nil
}

func (s *Store) addManual(ctx context.Context, e ManualEntry) (string, []model.Posting, error) {
	s.mutate.Lock()
	defer s.mutate.Unlock()

	s.mu.RLock()
	companyID, dir := s.companyID, s.dir
	s.mu.RUnlock()

	if err := validateEntry(e, dir); err != nil {
		return "", nil, s.mutationFailed(ctx, "add posting", err)
	}

	row := model.ManualRow{
		CompanyID:       companyID,
		Date:            e.Date,
		Narrative:       e.Narrative,
		DebitAccountID:  e.DebitAccountID,
		CreditAccountID: e.CreditAccountID,
		Amount:          e.Amount,
		Kind:            model.PostingPrincipal,
	}
	inserted, err := s.store.Insert(ctx, storage.EntityManualRows, model.EncodeManualRow(row))
	if err != nil {
		return "", nil, s.mutationFailed(ctx, "add posting", err)
	}
	row.ID = fmt.Sprint(inserted[storage.ColumnID])

	s.mu.Lock()
	next := make([]model.Posting, 0, len(s.postings)+2)
	next = append(next, s.postings...)
	next = append(next, manualPostings(row, dir)...)
	s.postings = balance.Compute(next)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"module": "ledger", "id": row.ID}).Info("manual posting added")
	return row.ID, snapshot, nil
}

func validateEntry(e ManualEntry, dir *directory.Directory) error {
	if !e.Date.IsValid() {
		return fmt.Errorf("invalid date %s", e.Date)
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !dir.Exists(e.DebitAccountID) {
		return fmt.Errorf("debit account %q: %w", e.DebitAccountID, ErrUnknownAccount)
	}
	if !dir.Exists(e.CreditAccountID) {
		return fmt.Errorf("credit account %q: %w", e.CreditAccountID, ErrUnknownAccount)
	}
	return nil
}

// DeletePosting deletes the persisted row behind postingID, which may name
// either side ("7f3a-d") or the row itself, and removes both of its postings.
// On failure the ledger is unchanged and the error is a *MutationError.
func (s *Store) DeletePosting(ctx context.Context, postingID string) error {
	snapshot, err := s.deletePosting(ctx, postingID)
	if err != nil {
		return err
	}
	s.notifySubscribers(snapshot)
	return nil
}

func (s *Store) deletePosting(ctx context.Context, postingID string) ([]model.Posting, error) {
	s.mutate.Lock()
	defer s.mutate.Unlock()

	if id.IsDerived(postingID) {
		return nil, s.mutationFailed(ctx, "delete posting", ErrDerivedPosting)
	}
	base := id.Base(postingID)
	if err := s.store.Delete(ctx, storage.EntityManualRows, base); err != nil {
		return nil, s.mutationFailed(ctx, "delete posting", err)
	}

	s.mu.Lock()
	next := make([]model.Posting, 0, len(s.postings))
	for _, p := range s.postings {
		if p.Group() != base {
			next = append(next, p)
		}
	}
	s.postings = balance.Compute(next)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"module": "ledger", "id": base}).Info("manual posting deleted")
	return snapshot, nil
}

func (s *Store) mutationFailed(ctx context.Context, op string, err error) error {
	merr := &MutationError{Op: op, Err: err}
	obs.LogError(s.log, "ledger", op, merr, nil)
	s.notifier.Notify(ctx, obs.Notice{
		Level:   obs.LevelError,
		Title:   "Erro ao salvar lançamento",
		Message: merr.Error(),
	})
	return merr
}

// Snapshot returns a copy of the current postings in balance order.
func (s *Store) Snapshot() []model.Posting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Skips returns the transactions the last load could not derive.
func (s *Store) Skips() []posting.Skip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]posting.Skip(nil), s.skips...)
}

// Directory returns the directory of the last load.
func (s *Store) Directory() *directory.Directory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Subscribe registers fn to receive a snapshot after every publish. The
// returned func unregisters it.
func (s *Store) Subscribe(fn func([]model.Posting)) (cancel func()) {
	s.mu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, key)
		s.mu.Unlock()
	}
}

// publish swaps in a new ledger and returns its snapshot for the subscribers.
func (s *Store) publish(companyID string, dir *directory.Directory, postings []model.Posting, skips []posting.Skip) []model.Posting {
	s.mu.Lock()
	s.companyID = companyID
	s.loaded = true
	s.dir = dir
	s.postings = postings
	s.skips = skips
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	return snapshot
}

func (s *Store) snapshotLocked() []model.Posting {
	return append([]model.Posting(nil), s.postings...)
}

// notifySubscribers is called with neither s.mu nor s.mutate held, so
// subscribers may call back into the store.
func (s *Store) notifySubscribers(snapshot []model.Posting) {
	s.mu.RLock()
	fns := make([]func([]model.Posting), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(append([]model.Posting(nil), snapshot...))
	}
}
