/*
seed.go - Default holiday calendar and demo data

PURPOSE:
  Provides the South African public-holiday calendar for a year and a demo
  dataset for local development. Both are reachable through admin endpoints
  so a fresh database can be made useful in two requests.

HOLIDAY NOTES:
  Only the fixed-date public holidays are generated. The Easter-movable
  days (Good Friday, Family Day) shift every year; HR loads those through
  POST /api/holidays. The Public Holidays Act observed-Monday rule (a
  holiday falling on a Sunday moves to the Monday) is applied here.

SEE ALSO:
  - handlers.go: AddDefaultHolidays and LoadDemoData endpoints
*/
package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veldhq/leave-engine/calendar"
	"github.com/veldhq/leave-engine/leave"
)

// =============================================================================
// SOUTH AFRICAN PUBLIC HOLIDAYS
// =============================================================================

// southAfricanPublicHolidays returns the fixed-date public holidays for a
// year, with the Sunday-to-Monday observation rule applied.
func southAfricanPublicHolidays(year int) []calendar.Holiday {
	fixed := []struct {
		month time.Month
		day   int
		name  string
	}{
		{time.January, 1, "New Year's Day"},
		{time.March, 21, "Human Rights Day"},
		{time.April, 27, "Freedom Day"},
		{time.May, 1, "Workers' Day"},
		{time.June, 16, "Youth Day"},
		{time.August, 9, "National Women's Day"},
		{time.September, 24, "Heritage Day"},
		{time.December, 16, "Day of Reconciliation"},
		{time.December, 25, "Christmas Day"},
		{time.December, 26, "Day of Goodwill"},
	}

	holidays := make([]calendar.Holiday, 0, len(fixed))
	for _, f := range fixed {
		date := time.Date(year, f.month, f.day, 0, 0, 0, 0, time.UTC)
		if date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}
		holidays = append(holidays, calendar.Holiday{
			ID:           uuid.NewString(),
			Date:         date,
			Name:         f.name,
			Kind:         calendar.KindPublic,
			OfficeClosed: true,
		})
	}
	return holidays
}

// =============================================================================
// DEMO DATA
// =============================================================================

// LoadDemoData seeds the current year with holidays, three employees and a
// couple of requests. For local development only.
// POST /api/admin/seed
func (h *Handler) LoadDemoData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()
	year := now.Year()

	for _, hol := range southAfricanPublicHolidays(year) {
		_ = h.Store.AddHoliday(ctx, hol) // ignore duplicates on re-seed
	}

	employees := []*leave.BalanceRecord{
		{
			EmployeeEmail:  "thandi@example.com",
			Year:           year,
			StartDate:      time.Date(year-2, time.March, 1, 0, 0, 0, 0, time.UTC),
			BroughtForward: decimal.NewFromInt(5),
		},
		{
			EmployeeEmail: "sipho@example.com",
			Year:          year,
			StartDate:     time.Date(year-1, time.August, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			EmployeeEmail: "anna@example.com",
			Year:          year,
			StartDate:     time.Date(year, time.January, 6, 0, 0, 0, 0, time.UTC),
			AnnualUsed:    decimal.NewFromFloat(1.5),
		},
	}
	for _, rec := range employees {
		if err := h.Store.PutBalanceRecord(ctx, rec); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed balance records", err)
			return
		}
	}

	nextMonday := now.AddDate(0, 0, (8-int(now.Weekday()))%7+7)
	requests := []*leave.Request{
		{
			ID:            uuid.NewString(),
			EmployeeEmail: "thandi@example.com",
			Type:          leave.TypeAnnual,
			StartDate:     nextMonday,
			EndDate:       nextMonday.AddDate(0, 0, 4),
			WorkingDays:   decimal.NewFromInt(5),
			Status:        leave.StatusPending,
			Reason:        "Family trip",
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            uuid.NewString(),
			EmployeeEmail: "anna@example.com",
			Type:          leave.TypeSick,
			StartDate:     now.AddDate(0, 0, -3),
			EndDate:       now.AddDate(0, 0, -3),
			HalfDay:       true,
			WorkingDays:   decimal.NewFromFloat(0.5),
			Status:        leave.StatusApproved,
			CreatedAt:     now.AddDate(0, 0, -4),
			UpdatedAt:     now.AddDate(0, 0, -3),
		},
	}
	for _, req := range requests {
		if err := h.Store.CreateRequest(ctx, req); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed requests", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employees": len(employees),
		"requests":  len(requests),
		"status":    "seeded",
	})
}
