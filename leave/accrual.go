/*
accrual.go - Pro-rata annual-leave accrual

PURPOSE:
  Converts a reference month (how far into the leave cycle we are) into the
  number of annual-leave days accrued so far. The cycle is the calendar year
  and accrual is linear: AnnualAllocation/12 per completed month, 1.6667
  days/month at the default 20-day entitlement.

TERMINATION CAPPING:
  If the employee's contract terminates inside the cycle, accrual stops at
  the termination month. A missing or invalid termination date means "no
  termination" - the calculator never errors.

EXAMPLE:
  p := leave.DefaultPolicy()
  p.MonthlyAccrual(12, nil)   // 20     (full year)
  p.MonthlyAccrual(7, nil)    // 11.67  (July reference)
  p.MonthlyAccrual(10, &mar)  // 5      (terminated in March)

SEE ALSO:
  - balance.go: Feeds the accrued-to-date amount into the annual balance
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// MonthlyAccrual returns the annual-leave days accrued after referenceMonth
// completed months of the cycle, at AnnualAllocation/12 per month.
//
// referenceMonth is clamped into [0, 12]. When a termination date is present
// and its month is earlier than the reference month, accrual is capped at the
// termination month. The result is never negative and the function never
// errors; a nil termination date means no capping.
func (p Policy) MonthlyAccrual(referenceMonth int, termination *time.Time) decimal.Decimal {
	m := referenceMonth
	if termination != nil && !termination.IsZero() {
		if tm := int(termination.Month()); tm < m {
			m = tm
		}
	}
	if m < 0 {
		m = 0
	}
	if m > 12 {
		m = 12
	}
	// Multiply before dividing so a full year comes out exact:
	// 20*12/12 = 20, not 1.6667*12.
	return p.AnnualAllocation.Mul(decimal.NewFromInt(int64(m))).Div(twelve)
}
