/*
balance.go - Current-balance calculation per leave type

PURPOSE:
  Answers "how much leave does this employee have right now?" from a
  BalanceRecord. This is the central calculation behind the dashboard and
  the submission-time validation.

THE TWO BALANCE SHAPES:
  Annual:
    balance = accruedToDate + broughtForward + adjustments - used

    accruedToDate comes from accrual.go - part-way through the year the
    employee can only draw down what has accrued so far, not the full
    yearly allocation.

  Everything else (sick, maternity, parental, family, adoption, study,
  wellness):
    balance = fixedAllocation - used

    These are statutory/contractual constants; they neither accrue monthly
    nor carry brought-forward amounts.

CLAMPING:
  A negative result is clamped to zero. Over-use past an allocation is an
  approval-policy concern upstream; the display must never show negative
  availability.

UNKNOWN TYPES:
  An unrecognized leave-type key yields a zero balance and a data-quality
  warning on the calculator's logger. It never errors - bad keys come from
  data, not code.

SEE ALSO:
  - accrual.go: Accrued-to-date amount for the annual branch
  - forfeiture.go: Carry-over forfeiture warning for the dashboard ribbon
*/
package leave

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE CALCULATOR
// =============================================================================

// Calculator computes current balances from a BalanceRecord under a Policy.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	Policy Policy

	// Logger receives data-quality warnings (unknown leave-type keys).
	// Nil means use the standard logger.
	Logger *log.Logger
}

// NewCalculator returns a Calculator for the given policy.
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{Policy: policy}
}

// CurrentBalance returns the available balance for one category as of the
// given date, in the category's unit.
//
// asOf drives the annual accrual reference month; a zero asOf means now.
// The result is never negative. A nil record fails fast with ErrNilRecord.
func (c *Calculator) CurrentBalance(rec *BalanceRecord, t Type, asOf time.Time) (decimal.Decimal, error) {
	if rec == nil {
		return decimal.Zero, ErrNilRecord
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var balance decimal.Decimal
	switch {
	case t == TypeAnnual:
		accrued := c.accruedToDate(rec, asOf)
		balance = accrued.
			Add(rec.BroughtForward).
			Add(rec.AnnualAdjustments).
			Sub(rec.AnnualUsed)

	case t.Known():
		balance = c.Policy.FixedAllocationFor(t).Sub(rec.UsedFor(t))

	default:
		c.logf("[Balance] unknown leave type %q for %s, treating as zero allocation", t, rec.EmployeeEmail)
		return decimal.Zero, nil
	}

	if balance.IsNegative() {
		return decimal.Zero, nil
	}
	return balance, nil
}

// accruedToDate returns the annual days accrued within rec's cycle as of the
// reference date, honoring contract termination.
func (c *Calculator) accruedToDate(rec *BalanceRecord, asOf time.Time) decimal.Decimal {
	term := rec.ContractTerminationDate
	if term != nil && !term.IsZero() {
		if term.Year() < asOf.Year() {
			// Terminated before this cycle started - nothing accrues.
			return decimal.Zero
		}
		if term.Year() > asOf.Year() {
			// Termination in a future cycle doesn't cap this one.
			term = nil
		}
	}
	return c.Policy.MonthlyAccrual(int(asOf.Month()), term)
}

func (c *Calculator) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// =============================================================================
// BALANCE SUMMARY - Dashboard display across all categories
// =============================================================================

// TypeBalance is the display state for one category.
type TypeBalance struct {
	Type      Type
	Unit      Unit
	Allocated decimal.Decimal // accrued-to-date for annual, fixed otherwise
	Used      decimal.Decimal
	Available decimal.Decimal
}

// Summary computes the display balance for all eight categories.
func (c *Calculator) Summary(rec *BalanceRecord, asOf time.Time) ([]TypeBalance, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	out := make([]TypeBalance, 0, len(AllTypes()))
	for _, t := range AllTypes() {
		available, err := c.CurrentBalance(rec, t, asOf)
		if err != nil {
			return nil, err
		}

		allocated := c.Policy.FixedAllocationFor(t)
		if t == TypeAnnual {
			allocated = c.accruedToDate(rec, asOf).
				Add(rec.BroughtForward).
				Add(rec.AnnualAdjustments)
		}

		out = append(out, TypeBalance{
			Type:      t,
			Unit:      t.Unit(),
			Allocated: allocated,
			Used:      rec.UsedFor(t),
			Available: available,
		})
	}
	return out, nil
}
