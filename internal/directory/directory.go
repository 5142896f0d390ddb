// Package directory holds the read-only configuration a derivation resolves
// references against: the chart of accounts, title types and bank accounts.
package directory

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/cleared-dev/razao/internal/model"
)

// Directory provides in-memory lookup over one company's configuration.
type Directory struct {
	accounts    []model.Account
	byID        map[string]model.Account
	byCode      map[string]model.Account
	titleTypes  map[string]model.TitleType
	banks       map[string]model.BankAccount
	fingerprint string
}

// New indexes the given records. Later duplicates of an id win.
func New(accounts []model.Account, titleTypes []model.TitleType, banks []model.BankAccount) *Directory {
	d := &Directory{
		accounts:   accounts,
		byID:       make(map[string]model.Account, len(accounts)),
		byCode:     make(map[string]model.Account, len(accounts)),
		titleTypes: make(map[string]model.TitleType, len(titleTypes)),
		banks:      make(map[string]model.BankAccount, len(banks)),
	}
	for _, a := range accounts {
		d.byID[a.ID] = a
		if _, dup := d.byCode[a.Code]; !dup {
			d.byCode[a.Code] = a
		}
	}
	for _, tt := range titleTypes {
		d.titleTypes[tt.ID] = tt
	}
	for _, b := range banks {
		d.banks[b.ID] = b
	}
	d.fingerprint = fingerprint(accounts, titleTypes, banks)
	return d
}

// Empty returns a directory with no records.
func Empty() *Directory {
	return New(nil, nil, nil)
}

// Accounts returns all accounts in load order.
func (d *Directory) Accounts() []model.Account {
	return d.accounts
}

// Account returns an account by id.
func (d *Directory) Account(id string) (model.Account, bool) {
	a, ok := d.byID[id]
	return a, ok
}

// AccountByCode returns the first account loaded with the given code.
func (d *Directory) AccountByCode(code string) (model.Account, bool) {
	a, ok := d.byCode[code]
	return a, ok
}

// Exists reports whether an account id exists.
func (d *Directory) Exists(id string) bool {
	_, ok := d.byID[id]
	return ok
}

// ByType returns all accounts of the given type.
func (d *Directory) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range d.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// TitleType returns a title type by id.
func (d *Directory) TitleType(id string) (model.TitleType, bool) {
	tt, ok := d.titleTypes[id]
	return tt, ok
}

// BankAccount returns a bank account by id.
func (d *Directory) BankAccount(id string) (model.BankAccount, bool) {
	b, ok := d.banks[id]
	return b, ok
}

// Len returns the number of accounts, title types and bank accounts.
func (d *Directory) Len() (accounts, titleTypes, banks int) {
	return len(d.byID), len(d.titleTypes), len(d.banks)
}

// Fingerprint identifies the directory's contents. Any change to a record
// changes it.
func (d *Directory) Fingerprint() string {
	return d.fingerprint
}

func fingerprint(accounts []model.Account, titleTypes []model.TitleType, banks []model.BankAccount) string {
	lines := make([]string, 0, len(accounts)+len(titleTypes)+len(banks))
	for _, a := range accounts {
		lines = append(lines, fmt.Sprintf("a|%+v", a))
	}
	for _, tt := range titleTypes {
		lines = append(lines, fmt.Sprintf("t|%+v", tt))
	}
	for _, b := range banks {
		lines = append(lines, fmt.Sprintf("b|%+v", b))
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
