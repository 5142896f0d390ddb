package id

import (
	"fmt"
	"strings"
)

const (
	// DebitSuffix marks the debit side of a posting pair.
	DebitSuffix = "-d"
	// CreditSuffix marks the credit side of a posting pair.
	CreditSuffix = "-c"
)

// Debit returns the posting id of the debit side: "7f3a" -> "7f3a-d".
func Debit(base string) string {
	return base + DebitSuffix
}

// Credit returns the posting id of the credit side: "7f3a" -> "7f3a-c".
func Credit(base string) string {
	return base + CreditSuffix
}

// Base strips the side suffix from a posting id, recovering the id of the
// persisted row (or derived transaction) both sides share.
// "7f3a-d" -> "7f3a"
func Base(postingID string) string {
	if b, ok := strings.CutSuffix(postingID, DebitSuffix); ok {
		return b
	}
	if b, ok := strings.CutSuffix(postingID, CreditSuffix); ok {
		return b
	}
	return postingID
}

// Derived returns the base id for a derived transaction. Movement-level
// postings have no installment.
// ("42", "", "principal") -> "mov:42:principal"
// ("42", "7", "juros")    -> "mov:42:7:juros"
func Derived(movementID, installmentID, kind string) string {
	if installmentID == "" {
		return fmt.Sprintf("mov:%s:%s", movementID, kind)
	}
	return fmt.Sprintf("mov:%s:%s:%s", movementID, installmentID, kind)
}

// IsDerived reports whether a posting id belongs to a derived transaction.
// Derived postings are recomputed on every load and cannot be deleted.
func IsDerived(postingID string) bool {
	return strings.HasPrefix(postingID, "mov:")
}
