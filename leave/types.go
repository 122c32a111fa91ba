/*
Package leave implements the leave balance and accrual engine.

PURPOSE:
  This package contains the domain types and pure calculators for tracking
  per-employee leave balances across the eight BCEA leave categories:
  annual, sick, maternity, parental, family responsibility, adoption,
  study, and wellness.

KEY CONCEPTS IN THIS FILE (types.go):
  - Type: One of the eight leave categories, each with its own unit
  - BalanceRecord: The persisted per-employee, per-year balance state
  - Request: A leave application with its lifecycle status
  - Policy: The configurable allocation/accrual/forfeiture ruleset

DESIGN PRINCIPLES:
  1. Purity: All calculators are side-effect-free functions over immutable
     inputs; they can run from any number of request handlers without locks
  2. Precision: Uses decimal.Decimal so half days and the 1.6667 days/month
     accrual rate never drift
  3. Fail-soft: Unknown leave types degrade to a zero balance, never a panic
  4. Explicit config: Policy is injected via constructors - no ambient globals

UNITS:
  Annual, sick, family, study, wellness  -> days
  Maternity                              -> months
  Parental, adoption                     -> weeks

SEE ALSO:
  - balance.go: Current-balance calculation per leave type
  - accrual.go: Pro-rata monthly accrual for annual leave
  - forfeiture.go: Brought-forward forfeiture at the statutory cutoff
  - edit.go: Edit-eligibility rules for pending requests
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEAVE TYPE - The eight BCEA categories
// =============================================================================

type Type string

const (
	TypeAnnual    Type = "annual"
	TypeSick      Type = "sick"
	TypeMaternity Type = "maternity"
	TypeParental  Type = "parental"
	TypeFamily    Type = "family"
	TypeAdoption  Type = "adoption"
	TypeStudy     Type = "study"
	TypeWellness  Type = "wellness"
)

// AllTypes returns the eight categories in display order.
func AllTypes() []Type {
	return []Type{
		TypeAnnual, TypeSick, TypeMaternity, TypeParental,
		TypeFamily, TypeAdoption, TypeStudy, TypeWellness,
	}
}

// Known reports whether t is one of the eight categories.
func (t Type) Known() bool {
	switch t {
	case TypeAnnual, TypeSick, TypeMaternity, TypeParental,
		TypeFamily, TypeAdoption, TypeStudy, TypeWellness:
		return true
	}
	return false
}

type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
)

// Unit returns the unit a category is counted in.
// Unknown types fall back to days.
func (t Type) Unit() Unit {
	switch t {
	case TypeMaternity:
		return UnitMonths
	case TypeParental, TypeAdoption:
		return UnitWeeks
	default:
		return UnitDays
	}
}

// =============================================================================
// POLICY - Allocation, accrual and forfeiture rules
// =============================================================================

// Policy holds the allocation constants and forfeiture cutoff that govern
// balance calculation. DefaultPolicy returns the BCEA statutory values;
// deployments can override them via factory.ParsePolicy.
type Policy struct {
	// Yearly annual-leave entitlement in days, accrued pro-rata monthly.
	AnnualAllocation decimal.Decimal

	// Fixed (non-accruing) allocations per category, in the category's unit.
	FixedAllocations map[Type]decimal.Decimal

	// Brought-forward days unused by this date are forfeited.
	ForfeitMonth time.Month
	ForfeitDay   int
}

// DefaultPolicy returns the BCEA-convention policy:
// 20 annual days accrued at 20/12 per month, fixed allocations for the
// remaining categories, forfeiture of carry-over on 31 July.
func DefaultPolicy() Policy {
	return Policy{
		AnnualAllocation: decimal.NewFromInt(20),
		FixedAllocations: map[Type]decimal.Decimal{
			TypeSick:      decimal.NewFromInt(36), // days, 3-year cycle total
			TypeMaternity: decimal.NewFromInt(3),  // months
			TypeParental:  decimal.NewFromInt(4),  // weeks
			TypeFamily:    decimal.NewFromInt(3),  // days
			TypeAdoption:  decimal.NewFromInt(4),  // weeks
			TypeStudy:     decimal.NewFromInt(6),  // days
			TypeWellness:  decimal.NewFromInt(2),  // days
		},
		ForfeitMonth: time.July,
		ForfeitDay:   31,
	}
}

// FixedAllocationFor returns the fixed allocation for a non-annual category.
// Unknown or unconfigured types yield zero (fail-soft).
func (p Policy) FixedAllocationFor(t Type) decimal.Decimal {
	if a, ok := p.FixedAllocations[t]; ok {
		return a
	}
	return decimal.Zero
}

// ForfeitureCutoff returns the forfeiture deadline within the given cycle year.
func (p Policy) ForfeitureCutoff(year int) time.Time {
	return time.Date(year, p.ForfeitMonth, p.ForfeitDay, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// BALANCE RECORD - One per employee per leave year
// =============================================================================

// BalanceRecord is the persisted balance state for one employee in one leave
// cycle (calendar year). It is created when the employee is provisioned,
// mutated only by the approval workflow (which increments the used amounts),
// and superseded by a new record at year-end rollover - never deleted.
type BalanceRecord struct {
	EmployeeEmail string
	Year          int

	StartDate               time.Time
	ContractTerminationDate *time.Time

	// Annual-leave specific state. BroughtForward is last cycle's unused
	// days; AnnualAdjustments is a signed manual correction.
	BroughtForward    decimal.Decimal
	AnnualAdjustments decimal.Decimal

	// Used amounts per category, in the category's unit.
	AnnualUsed    decimal.Decimal
	SickUsed      decimal.Decimal
	MaternityUsed decimal.Decimal
	ParentalUsed  decimal.Decimal
	FamilyUsed    decimal.Decimal
	AdoptionUsed  decimal.Decimal
	StudyUsed     decimal.Decimal
	WellnessUsed  decimal.Decimal
}

// UsedFor returns the used amount for a category. Unknown types yield zero.
func (r *BalanceRecord) UsedFor(t Type) decimal.Decimal {
	switch t {
	case TypeAnnual:
		return r.AnnualUsed
	case TypeSick:
		return r.SickUsed
	case TypeMaternity:
		return r.MaternityUsed
	case TypeParental:
		return r.ParentalUsed
	case TypeFamily:
		return r.FamilyUsed
	case TypeAdoption:
		return r.AdoptionUsed
	case TypeStudy:
		return r.StudyUsed
	case TypeWellness:
		return r.WellnessUsed
	}
	return decimal.Zero
}

// AddUsed increments the used amount for a category.
// The approval workflow is the single writer of these fields.
func (r *BalanceRecord) AddUsed(t Type, amount decimal.Decimal) {
	switch t {
	case TypeAnnual:
		r.AnnualUsed = r.AnnualUsed.Add(amount)
	case TypeSick:
		r.SickUsed = r.SickUsed.Add(amount)
	case TypeMaternity:
		r.MaternityUsed = r.MaternityUsed.Add(amount)
	case TypeParental:
		r.ParentalUsed = r.ParentalUsed.Add(amount)
	case TypeFamily:
		r.FamilyUsed = r.FamilyUsed.Add(amount)
	case TypeAdoption:
		r.AdoptionUsed = r.AdoptionUsed.Add(amount)
	case TypeStudy:
		r.StudyUsed = r.StudyUsed.Add(amount)
	case TypeWellness:
		r.WellnessUsed = r.WellnessUsed.Add(amount)
	}
}

// =============================================================================
// LEAVE REQUEST - One per submitted application
// =============================================================================

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Request is a submitted leave application.
//
// INVARIANT: WorkingDays is always recomputed server-side from
// (StartDate, EndDate, holiday calendar) - caller-supplied counts are
// never trusted.
type Request struct {
	ID            string
	EmployeeEmail string
	Type          Type

	StartDate time.Time
	EndDate   time.Time
	HalfDay   bool

	// Derived working-day count for the range (0.5 steps when HalfDay).
	WorkingDays decimal.Decimal

	Status RequestStatus
	Reason string

	CreatedAt time.Time
	UpdatedAt time.Time
}
