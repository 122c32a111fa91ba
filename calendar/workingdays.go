/*
workingdays.go - Working-day count for a leave date range

PURPOSE:
  Computes how many working days a leave request consumes. Iterates every
  calendar day from start to end inclusive; a day counts unless it falls on
  a weekend or matches a holiday (by calendar date, ignoring time of day).
  Each qualifying day contributes 1, or 0.5 for half-day requests.

GUARANTEES:
  - Pure function of its inputs, no side effects
  - start > end yields 0, not an error
  - Result is non-negative, fractional only when halfDay is set
  - A single-day half-day request on a weekend or holiday yields 0
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	fullDay = decimal.NewFromInt(1)
	halfDay = decimal.NewFromFloat(0.5)
)

// WorkingDays counts the working days in [start, end] given the public and
// company holiday dates, contributing 0.5 per day when isHalfDay is set.
func WorkingDays(start, end time.Time, publicHolidays, companyHolidays []time.Time, isHalfDay bool) decimal.Decimal {
	holidays := make(map[string]struct{}, len(publicHolidays)+len(companyHolidays))
	for _, d := range publicHolidays {
		holidays[dayKey(d)] = struct{}{}
	}
	for _, d := range companyHolidays {
		holidays[dayKey(d)] = struct{}{}
	}

	perDay := fullDay
	if isHalfDay {
		perDay = halfDay
	}

	total := decimal.Zero
	for day := dateOnly(start); !day.After(dateOnly(end)); day = day.AddDate(0, 0, 1) {
		if isWeekend(day) {
			continue
		}
		if _, ok := holidays[dayKey(day)]; ok {
			continue
		}
		total = total.Add(perDay)
	}
	return total
}

// WorkingDaysInSet is WorkingDays over a prebuilt HolidaySet.
func WorkingDaysInSet(start, end time.Time, set *HolidaySet, isHalfDay bool) decimal.Decimal {
	perDay := fullDay
	if isHalfDay {
		perDay = halfDay
	}

	total := decimal.Zero
	for day := dateOnly(start); !day.After(dateOnly(end)); day = day.AddDate(0, 0, 1) {
		if isWeekend(day) || set.Contains(day) {
			continue
		}
		total = total.Add(perDay)
	}
	return total
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// dateOnly normalizes to midnight UTC so iteration is immune to DST and
// time-of-day components.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
