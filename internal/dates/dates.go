// Package dates converts between the calendar-date forms that cross the ledger's
// boundaries: ISO dates from storage and DD/MM/YYYY dates in narratives.
package dates

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	isoFormat     = "2006-01-02"
	displayFormat = "02/01/2006"
)

// ParseISO parses a storage date ("2025-01-15"). A trailing time part
// ("2025-01-15T03:00:00Z") is ignored; the calendar day is kept as written.
func ParseISO(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(isoFormat) && (s[len(isoFormat)] == 'T' || s[len(isoFormat)] == ' ') {
		s = s[:len(isoFormat)]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("parsing ISO date %q: %w", s, err)
	}
	return d, nil
}

// ParseDisplay parses a display date ("15/01/2025").
func ParseDisplay(s string) (civil.Date, error) {
	t, err := time.Parse(displayFormat, strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("parsing display date %q: %w", s, err)
	}
	return civil.DateOf(t), nil
}

// Parse accepts either form.
func Parse(s string) (civil.Date, error) {
	if strings.Contains(s, "/") {
		return ParseDisplay(s)
	}
	return ParseISO(s)
}

// FormatISO renders d for storage.
func FormatISO(d civil.Date) string {
	return d.String()
}

// FormatDisplay renders d as DD/MM/YYYY.
func FormatDisplay(d civil.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// Key returns a sortable integer YYYYMMDD. Ordering by Key matches calendar order.
func Key(d civil.Date) int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

// KeyOf parses s in either form and returns its sort key.
func KeyOf(s string) (int, error) {
	d, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return Key(d), nil
}

// FromTime returns the calendar date of t as observed in t's own location.
func FromTime(t time.Time) civil.Date {
	return civil.DateOf(t)
}
