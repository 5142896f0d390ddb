// Package posting derives balanced debit/credit postings from movements and
// their settled installments. Derived postings are never persisted.
package posting

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/razao/internal/id"
	"github.com/cleared-dev/razao/internal/model"
	"github.com/cleared-dev/razao/internal/obs"
)

// Directory resolves the references a movement carries.
type Directory interface {
	Account(id string) (model.Account, bool)
	AccountByCode(code string) (model.Account, bool)
	TitleType(id string) (model.TitleType, bool)
	BankAccount(id string) (model.BankAccount, bool)
	Fingerprint() string
}

// Fallback names the account a posting goes to when nothing more specific is
// configured.
type Fallback struct {
	Name string
	Code string
}

var (
	FallbackPayable    = Fallback{Name: "Contas a Pagar", Code: "2.01.01"}
	FallbackReceivable = Fallback{Name: "Contas a Receber", Code: "1.02.01"}
	FallbackBank       = Fallback{Name: "Caixa/Banco", Code: "1.01.01"}
)

// Skip reasons.
const (
	ReasonMissingCategory         = "missing_category"
	ReasonUnresolvedSourceBank    = "unresolved_source_bank"
	ReasonUnresolvedDestination   = "unresolved_destination_bank"
	ReasonMissingInterestAccount  = "missing_interest_account"
	ReasonMissingPenaltyAccount   = "missing_penalty_account"
	ReasonMissingDiscountAccount  = "missing_discount_account"
	ReasonUnsupportedMovementKind = "unsupported_kind"
)

// Skip records a transaction whose postings were not emitted.
type Skip struct {
	MovementID    string            `json:"movement_id"`
	InstallmentID string            `json:"installment_id,omitempty"`
	Kind          model.PostingKind `json:"kind"`
	Reason        string            `json:"reason"`
}

// SkipError is returned in strict mode for the first skipped transaction.
type SkipError struct {
	Skip Skip
}

func (e *SkipError) Error() string {
	if e.Skip.InstallmentID != "" {
		return fmt.Sprintf("movement %s installment %s: %s postings skipped: %s",
			e.Skip.MovementID, e.Skip.InstallmentID, e.Skip.Kind, e.Skip.Reason)
	}
	return fmt.Sprintf("movement %s: %s postings skipped: %s", e.Skip.MovementID, e.Skip.Kind, e.Skip.Reason)
}

// Result is the output of a derivation.
type Result struct {
	Postings []model.Posting `json:"postings"`
	Skips    []Skip          `json:"skips,omitempty"`
}

// Deriver applies the posting rules.
type Deriver struct {
	dir     Directory
	strict  bool
	log     logrus.FieldLogger
	metrics *obs.Metrics
	cache   Cache
}

// Option configures a Deriver.
type Option func(*Deriver)

// WithStrict makes unresolved references an error instead of a skip.
func WithStrict(strict bool) Option {
	return func(d *Deriver) { d.strict = strict }
}

// WithLogger sets the logger skips are reported on.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Deriver) { d.log = log }
}

// WithMetrics sets the collectors derivations are counted on.
func WithMetrics(m *obs.Metrics) Option {
	return func(d *Deriver) { d.metrics = m }
}

// WithCache sets a derivation cache consulted by DeriveAll.
func WithCache(c Cache) Option {
	return func(d *Deriver) { d.cache = c }
}

// NewDeriver creates a Deriver resolving against dir.
func NewDeriver(dir Directory, opts ...Option) *Deriver {
	d := &Deriver{dir: dir, log: obs.Discard()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// DeriveAll derives every movement in order. installments may belong to any
// of the movements; they are grouped by movement id.
func (d *Deriver) DeriveAll(ctx context.Context, movements []model.Movement, installments []model.Installment) (Result, error) {
	byMovement := make(map[string][]model.Installment)
	for _, inst := range installments {
		byMovement[inst.MovementID] = append(byMovement[inst.MovementID], inst)
	}

	var all Result
	for _, m := range movements {
		r, err := d.deriveCached(ctx, m, byMovement[m.ID])
		if err != nil {
			return Result{}, err
		}
		all.Postings = append(all.Postings, r.Postings...)
		all.Skips = append(all.Skips, r.Skips...)
	}
	return all, nil
}

func (d *Deriver) deriveCached(ctx context.Context, m model.Movement, installments []model.Installment) (Result, error) {
	if d.cache == nil {
		return d.Derive(m, installments)
	}

	key := Key(m, installments, d.dir.Fingerprint())
	r, ok, err := d.cache.Get(ctx, key)
	switch {
	case err != nil:
		d.countLookup("error")
		d.log.WithFields(logrus.Fields{"module": "posting", "movement_id": m.ID}).
			Warnf("derivation cache read failed: %v", err)
	case ok:
		d.countLookup("hit")
		d.countCached(r)
		if d.strict && len(r.Skips) > 0 {
			return Result{}, &SkipError{Skip: r.Skips[0]}
		}
		return r, nil
	default:
		d.countLookup("miss")
	}

	r, err = d.Derive(m, installments)
	if err != nil {
		return Result{}, err
	}
	if err := d.cache.Set(ctx, key, r); err != nil {
		d.log.WithFields(logrus.Fields{"module": "posting", "movement_id": m.ID}).
			Warnf("derivation cache write failed: %v", err)
	}
	return r, nil
}

// countCached records a cache hit's postings and skips as if derived.
func (d *Deriver) countCached(r Result) {
	if d.metrics == nil {
		return
	}
	for _, p := range r.Postings {
		d.metrics.PostingsDerived.WithLabelValues(string(p.Kind)).Inc()
	}
	for _, sk := range r.Skips {
		d.metrics.DerivationsSkipped.WithLabelValues(sk.Reason).Inc()
	}
}

func (d *Deriver) countLookup(result string) {
	if d.metrics != nil {
		d.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

// Derive produces the postings of one movement and its settled installments,
// as adjacent debit/credit pairs. Transactions that cannot resolve a required
// reference are skipped and listed in Result.Skips; in strict mode the first
// one is returned as a *SkipError instead.
func (d *Deriver) Derive(m model.Movement, installments []model.Installment) (Result, error) {
	b := &builder{d: d, m: m}

	switch m.Kind {
	case model.KindPayable, model.KindReceivable:
		if err := b.titleMovement(installments); err != nil {
			return Result{}, err
		}
	case model.KindTransfer:
		if err := b.transfer(); err != nil {
			return Result{}, err
		}
	default:
		if err := b.skip("", model.PostingPrincipal, ReasonUnsupportedMovementKind); err != nil {
			return Result{}, err
		}
	}
	return b.result, nil
}

// ref is a resolved posting target.
type ref struct {
	id   string
	name string
	code string
}

type builder struct {
	d      *Deriver
	m      model.Movement
	result Result
}

func (b *builder) titleMovement(installments []model.Installment) error {
	m := b.m
	if m.CategoryID == "" {
		return b.skip("", model.PostingPrincipal, ReasonMissingCategory)
	}

	category := b.account(m.CategoryID)
	contra := b.contra()
	narrative := m.Narrative()

	if m.Kind == model.KindPayable {
		b.pair("", model.PostingPrincipal, m.Date, narrative, category, contra, m.Amount)
	} else {
		b.pair("", model.PostingPrincipal, m.Date, narrative, contra, category, m.Amount)
	}

	sorted := append([]model.Installment(nil), installments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	for _, inst := range sorted {
		if !inst.Settled() {
			continue
		}
		if err := b.installment(inst, contra); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) installment(inst model.Installment, contra ref) error {
	m := b.m
	payable := m.Kind == model.KindPayable
	date := *inst.PaymentDate
	narrative := fmt.Sprintf("%s - Parcela %d", m.Narrative(), inst.Number)
	bank := b.bank(inst.BankAccountID)
	tt, _ := b.d.dir.TitleType(m.TitleTypeID)

	if payable {
		b.pair(inst.ID, model.PostingPrincipal, date, narrative, contra, bank, inst.Amount)
	} else {
		b.pair(inst.ID, model.PostingPrincipal, date, narrative, bank, contra, inst.Amount)
	}

	adjustments := []struct {
		kind      model.PostingKind
		amount    decimal.Decimal
		accountID string
		reason    string
	}{
		{model.PostingInterest, inst.Interest, tt.InterestAccountID, ReasonMissingInterestAccount},
		{model.PostingPenalty, inst.Penalty, tt.PenaltyAccountID, ReasonMissingPenaltyAccount},
		{model.PostingDiscount, inst.Discount, tt.DiscountAccountID, ReasonMissingDiscountAccount},
	}
	for _, adj := range adjustments {
		if !adj.amount.IsPositive() {
			continue
		}
		if adj.accountID == "" {
			if err := b.skip(inst.ID, adj.kind, adj.reason); err != nil {
				return err
			}
			continue
		}
		acct := b.account(adj.accountID)

		switch {
		case adj.kind == model.PostingDiscount && payable:
			b.pair(inst.ID, adj.kind, date, narrative, contra, acct, adj.amount)
		case adj.kind == model.PostingDiscount:
			b.pair(inst.ID, adj.kind, date, narrative, acct, contra, adj.amount)
		case payable:
			b.pair(inst.ID, adj.kind, date, narrative, acct, bank, adj.amount)
		default:
			b.pair(inst.ID, adj.kind, date, narrative, bank, acct, adj.amount)
		}
	}
	return nil
}

func (b *builder) transfer() error {
	dest, ok := b.bankLedger(b.m.DestinationBankID)
	if !ok {
		return b.skip("", model.PostingPrincipal, ReasonUnresolvedDestination)
	}
	src, ok := b.bankLedger(b.m.SourceBankID)
	if !ok {
		return b.skip("", model.PostingPrincipal, ReasonUnresolvedSourceBank)
	}
	b.pair("", model.PostingPrincipal, b.m.Date, b.m.Narrative(), dest, src, b.m.Amount)
	return nil
}

// account resolves an account id. Unknown ids still post; name and code are
// left empty.
func (b *builder) account(accountID string) ref {
	if a, ok := b.d.dir.Account(accountID); ok {
		return ref{id: a.ID, name: a.Description, code: a.Code}
	}
	return ref{id: accountID}
}

func (b *builder) fallback(fb Fallback) ref {
	if a, ok := b.d.dir.AccountByCode(fb.Code); ok {
		return ref{id: a.ID, name: a.Description, code: a.Code}
	}
	return ref{id: fb.Code, name: fb.Name, code: fb.Code}
}

// contra resolves the title type's contra account, falling back per kind.
func (b *builder) contra() ref {
	if tt, ok := b.d.dir.TitleType(b.m.TitleTypeID); ok && tt.ContraAccountID != "" {
		return b.account(tt.ContraAccountID)
	}
	if b.m.Kind == model.KindPayable {
		return b.fallback(FallbackPayable)
	}
	return b.fallback(FallbackReceivable)
}

// bank resolves a settlement bank, falling back to the generic cash account.
func (b *builder) bank(bankID string) ref {
	if r, ok := b.bankLedger(bankID); ok {
		return r
	}
	return b.fallback(FallbackBank)
}

// bankLedger resolves a bank account to its linked ledger account.
func (b *builder) bankLedger(bankID string) (ref, bool) {
	if bankID == "" {
		return ref{}, false
	}
	bank, ok := b.d.dir.BankAccount(bankID)
	if !ok || bank.AccountID == "" {
		return ref{}, false
	}
	r := b.account(bank.AccountID)
	if r.name == "" {
		r.name = bank.Name
	}
	return r, true
}

func (b *builder) pair(installmentID string, kind model.PostingKind, date civil.Date, narrative string, debit, credit ref, amount decimal.Decimal) {
	base := id.Derived(b.m.ID, installmentID, string(kind))
	mk := func(postingID string, side model.Side, r ref) model.Posting {
		return model.Posting{
			ID:            postingID,
			Date:          date,
			Narrative:     narrative,
			AccountID:     r.id,
			AccountName:   r.name,
			AccountCode:   r.code,
			Side:          side,
			Amount:        amount,
			MovementID:    b.m.ID,
			InstallmentID: installmentID,
			Kind:          kind,
			Favored:       b.m.Favored,
		}
	}
	b.result.Postings = append(b.result.Postings,
		mk(id.Debit(base), model.SideDebit, debit),
		mk(id.Credit(base), model.SideCredit, credit),
	)
	if b.d.metrics != nil {
		b.d.metrics.PostingsDerived.WithLabelValues(string(kind)).Add(2)
	}
}

func (b *builder) skip(installmentID string, kind model.PostingKind, reason string) error {
	s := Skip{MovementID: b.m.ID, InstallmentID: installmentID, Kind: kind, Reason: reason}
	if b.d.metrics != nil {
		b.d.metrics.DerivationsSkipped.WithLabelValues(reason).Inc()
	}
	if b.d.strict {
		return &SkipError{Skip: s}
	}
	b.d.log.WithFields(logrus.Fields{
		"module":         "posting",
		"movement_id":    s.MovementID,
		"installment_id": s.InstallmentID,
		"kind":           s.Kind,
		"reason":         s.Reason,
	}).Warn("skipping derivation")
	b.result.Skips = append(b.result.Skips, s)
	return nil
}
