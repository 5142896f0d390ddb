package directory

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/razao/internal/model"
	"github.com/cleared-dev/razao/internal/obs"
	"github.com/cleared-dev/razao/internal/storage"
)

// LoadError reports a failed configuration query. Loads that hit one carry on
// with an empty collection.
type LoadError struct {
	Entity storage.Entity
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Entity, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads the directory's records from storage.
type Loader struct {
	store    storage.Store
	log      logrus.FieldLogger
	notifier obs.Notifier
}

// NewLoader creates a Loader. A nil logger or notifier discards.
func NewLoader(store storage.Store, log logrus.FieldLogger, notifier obs.Notifier) *Loader {
	if log == nil {
		log = obs.Discard()
	}
	if notifier == nil {
		notifier = obs.LogNotifier{Log: log}
	}
	return &Loader{store: store, log: log, notifier: notifier}
}

// Load reads all three collections and indexes them. It returns the
// recoverable errors it met, if any; the directory is usable either way.
func (l *Loader) Load(ctx context.Context, companyID string) (*Directory, []error) {
	var errs []error
	accounts, err := l.LoadAccounts(ctx, companyID)
	if err != nil {
		errs = append(errs, err)
	}
	titleTypes, err := l.LoadTitleTypes(ctx, companyID)
	if err != nil {
		errs = append(errs, err)
	}
	banks, err := l.LoadBankAccounts(ctx, companyID)
	if err != nil {
		errs = append(errs, err)
	}
	dir := New(accounts, titleTypes, banks)
	n, tts, nb := dir.Len()
	l.log.WithFields(logrus.Fields{
		"module":        "directory",
		"company_id":    companyID,
		"accounts":      n,
		"title_types":   tts,
		"bank_accounts": nb,
	}).Debug("directory loaded")
	return dir, errs
}

// LoadAccounts returns the company's active accounts ordered by code. On a
// query error it reports and returns an empty list with a *LoadError.
func (l *Loader) LoadAccounts(ctx context.Context, companyID string) ([]model.Account, error) {
	return load(ctx, l, storage.EntityAccounts, companyID, "codigo", model.DecodeAccount)
}

// LoadTitleTypes returns the company's active title types.
func (l *Loader) LoadTitleTypes(ctx context.Context, companyID string) ([]model.TitleType, error) {
	return load(ctx, l, storage.EntityTitleTypes, companyID, "", model.DecodeTitleType)
}

// LoadBankAccounts returns the company's active bank accounts.
func (l *Loader) LoadBankAccounts(ctx context.Context, companyID string) ([]model.BankAccount, error) {
	return load(ctx, l, storage.EntityBankAccounts, companyID, "nome", model.DecodeBankAccount)
}

func load[T any](ctx context.Context, l *Loader, entity storage.Entity, companyID, orderBy string, decode func(map[string]any) (T, error)) ([]T, error) {
	rows, err := l.store.Select(ctx, storage.Query{
		Entity:     entity,
		CompanyID:  companyID,
		ActiveOnly: true,
		OrderBy:    orderBy,
	})
	if err != nil {
		lerr := &LoadError{Entity: entity, Err: err}
		obs.LogError(l.log, "directory", "load", lerr, logrus.Fields{"company_id": companyID})
		l.notifier.Notify(ctx, obs.Notice{
			Level:   obs.LevelError,
			Title:   "Erro ao carregar " + string(entity),
			Message: err.Error(),
		})
		return []T{}, lerr
	}

	out := make([]T, 0, len(rows))
	for _, r := range rows {
		rec, err := decode(r)
		if err != nil {
			l.log.WithFields(logrus.Fields{
				"module": "directory",
				"entity": entity,
				"id":     r[storage.ColumnID],
			}).Warnf("dropping invalid row: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
