package posting

import (
	"fmt"

	"github.com/cleared-dev/razao/internal/model"
)

// ValidationError describes one unbalanced posting group.
type ValidationError struct {
	Group       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s]: %s", e.Group, e.Description)
}

// ValidatePairs checks that postings come in groups of exactly two sharing a
// base id, with one debit and one credit of the same positive amount.
func ValidatePairs(postings []model.Posting) []ValidationError {
	var errs []ValidationError

	groups := make(map[string][]model.Posting)
	var groupOrder []string
	for _, p := range postings {
		g := p.Group()
		if _, seen := groups[g]; !seen {
			groupOrder = append(groupOrder, g)
		}
		groups[g] = append(groups[g], p)
	}

	for _, g := range groupOrder {
		ps := groups[g]
		if len(ps) != 2 {
			errs = append(errs, ValidationError{
				Group:       g,
				Description: fmt.Sprintf("expected 2 postings, got %d", len(ps)),
			})
			continue
		}

		var debits, credits int
		for _, p := range ps {
			switch p.Side {
			case model.SideDebit:
				debits++
			case model.SideCredit:
				credits++
			}
		}
		if debits != 1 || credits != 1 {
			errs = append(errs, ValidationError{
				Group:       g,
				Description: fmt.Sprintf("expected one debit and one credit, got %d and %d", debits, credits),
			})
			continue
		}

		if !ps[0].Amount.Equal(ps[1].Amount) {
			errs = append(errs, ValidationError{
				Group:       g,
				Description: fmt.Sprintf("debit and credit differ: %s != %s", ps[0].Amount.StringFixed(2), ps[1].Amount.StringFixed(2)),
			})
			continue
		}

		if !ps[0].Amount.IsPositive() {
			errs = append(errs, ValidationError{
				Group:       g,
				Description: fmt.Sprintf("amount must be positive, got %s", ps[0].Amount.StringFixed(2)),
			})
		}
	}
	return errs
}
