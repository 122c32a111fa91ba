/*
forfeiture.go - Brought-forward forfeiture at the statutory cutoff

PURPOSE:
  Carry-over days from the previous cycle must be used by the forfeiture
  deadline (31 July by default) or they are lost. This file computes how
  many brought-forward days are still at risk.

POLICY:
  Brought-forward days are consumed BEFORE newly accrued days (FIFO by
  origin). Annual usage therefore eats into the carry-over balance first:

    daysToForfeit = max(0, broughtForward - min(broughtForward, annualUsed))

  A zero result means no carry-over existed or usage has already covered
  it; callers suppress the warning ribbon in that case.

SEE ALSO:
  - balance.go: Calculator carrying the Policy with the cutoff date
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaysToForfeit returns how many brought-forward days will be lost if unused
// by the forfeiture cutoff, assuming carry-over is consumed before newly
// accrued days. Negative inputs are treated as zero; the result is always in
// [0, broughtForward].
func DaysToForfeit(broughtForward, annualUsed decimal.Decimal) decimal.Decimal {
	if broughtForward.IsNegative() {
		return decimal.Zero
	}
	if annualUsed.IsNegative() {
		annualUsed = decimal.Zero
	}

	consumed := decimal.Min(broughtForward, annualUsed)
	remaining := broughtForward.Sub(consumed)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ForfeitureWarning is the dashboard ribbon payload: days at risk and the
// deadline they must be used by.
type ForfeitureWarning struct {
	Days     decimal.Decimal
	Deadline time.Time
}

// ForfeitureWarning returns the at-risk carry-over for rec's cycle, or nil
// when there is nothing to warn about (no days at risk, or the cutoff has
// already passed for the as-of date).
func (c *Calculator) ForfeitureWarning(rec *BalanceRecord, asOf time.Time) (*ForfeitureWarning, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	deadline := c.Policy.ForfeitureCutoff(rec.Year)
	if asOf.After(deadline) {
		return nil, nil
	}

	days := DaysToForfeit(rec.BroughtForward, rec.AnnualUsed)
	if days.IsZero() {
		return nil, nil
	}
	return &ForfeitureWarning{Days: days, Deadline: deadline}, nil
}
