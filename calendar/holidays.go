/*
Package calendar provides the working-day calculation that feeds the leave
engine, plus the holiday model it consumes.

PURPOSE:
  A leave request spans a calendar range but only consumes working days:
  weekends and public/company holidays don't count. This package owns that
  calculation and nothing else - it has no knowledge of balances or
  requests.

HOLIDAY MODEL:
  Holidays are tagged public or company and carry an office-status flag.
  Matching is by calendar date only; time-of-day on either side is ignored.

SEE ALSO:
  - workingdays.go: The day-count calculation
*/
package calendar

import "time"

// =============================================================================
// HOLIDAY - A public or company non-working date
// =============================================================================

type HolidayKind string

const (
	KindPublic  HolidayKind = "public"
	KindCompany HolidayKind = "company"
)

type Holiday struct {
	ID   string
	Date time.Time
	Name string
	Kind HolidayKind

	// OfficeClosed distinguishes full closures from observed-but-open days.
	OfficeClosed bool
}

// =============================================================================
// HOLIDAY SET - Date-keyed lookup over both holiday kinds
// =============================================================================

// HolidaySet indexes holidays by calendar date for O(1) membership checks.
type HolidaySet struct {
	dates map[string]Holiday
}

// NewHolidaySet builds a set from the given holidays. Duplicate dates keep
// the last entry.
func NewHolidaySet(holidays ...Holiday) *HolidaySet {
	s := &HolidaySet{dates: make(map[string]Holiday, len(holidays))}
	for _, h := range holidays {
		s.dates[dayKey(h.Date)] = h
	}
	return s
}

// Contains reports whether the given date (time-of-day ignored) is a holiday.
func (s *HolidaySet) Contains(date time.Time) bool {
	if s == nil {
		return false
	}
	_, ok := s.dates[dayKey(date)]
	return ok
}

// Dates returns the raw holiday dates in the set.
func (s *HolidaySet) Dates() []time.Time {
	if s == nil {
		return nil
	}
	out := make([]time.Time, 0, len(s.dates))
	for _, h := range s.dates {
		out = append(out, h.Date)
	}
	return out
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
