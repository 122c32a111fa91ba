/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Amounts cross
  the wire as float64; the precise decimal values live only inside the
  domain packages.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/veldhq/leave-engine/calendar"
	"github.com/veldhq/leave-engine/leave"
)

const dateLayout = "2006-01-02"

// =============================================================================
// BALANCE TYPES
// =============================================================================

// CreateBalanceRecordRequest provisions an employee's balance record for a
// leave year. Done by the admin workflow when an employee is onboarded.
type CreateBalanceRecordRequest struct {
	EmployeeEmail           string   `json:"employee_email"`
	Year                    int      `json:"year,omitempty"` // default: current year
	StartDate               string   `json:"start_date"`
	ContractTerminationDate string   `json:"contract_termination_date,omitempty"`
	BroughtForward          *float64 `json:"brought_forward,omitempty"`
	AnnualAdjustments       *float64 `json:"annual_adjustments,omitempty"`
}

// TypeBalanceDTO is one row of the dashboard balance table.
type TypeBalanceDTO struct {
	Type      string  `json:"type"`
	Unit      string  `json:"unit"`
	Allocated float64 `json:"allocated"`
	Used      float64 `json:"used"`
	Available float64 `json:"available"`
}

// ForfeitureWarningDTO is the dashboard ribbon payload.
type ForfeitureWarningDTO struct {
	Days     float64 `json:"days"`
	Deadline string  `json:"deadline"`
}

// BalanceSummaryDTO is the full dashboard response.
type BalanceSummaryDTO struct {
	EmployeeEmail     string                `json:"employee_email"`
	Year              int                   `json:"year"`
	AsOf              string                `json:"as_of"`
	Balances          []TypeBalanceDTO      `json:"balances"`
	ForfeitureWarning *ForfeitureWarningDTO `json:"forfeiture_warning,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SubmitRequestRequest is the body for POST /api/requests.
// The working-day count is always recomputed server-side; clients cannot
// supply it.
type SubmitRequestRequest struct {
	EmployeeEmail string `json:"employee_email"`
	LeaveType     string `json:"leave_type"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	HalfDay       bool   `json:"half_day,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// EditRequestRequest is the body for PUT /api/requests/{id}.
type EditRequestRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	HalfDay   bool   `json:"half_day,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// RejectRequestRequest carries the manager's rejection reason.
type RejectRequestRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RequestDTO is a leave request in API responses.
type RequestDTO struct {
	ID            string  `json:"id"`
	EmployeeEmail string  `json:"employee_email"`
	LeaveType     string  `json:"leave_type"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	HalfDay       bool    `json:"half_day"`
	WorkingDays   float64 `json:"working_days"`
	Status        string  `json:"status"`
	Reason        string  `json:"reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`

	// Edit-eligibility, evaluated against the current date at render time.
	CanEdit         bool   `json:"can_edit"`
	EditRestriction string `json:"edit_restriction,omitempty"`
}

func toRequestDTO(req *leave.Request, today time.Time) RequestDTO {
	workingDays, _ := req.WorkingDays.Float64()
	return RequestDTO{
		ID:              req.ID,
		EmployeeEmail:   req.EmployeeEmail,
		LeaveType:       string(req.Type),
		StartDate:       req.StartDate.Format(dateLayout),
		EndDate:         req.EndDate.Format(dateLayout),
		HalfDay:         req.HalfDay,
		WorkingDays:     workingDays,
		Status:          string(req.Status),
		Reason:          req.Reason,
		CreatedAt:       req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       req.UpdatedAt.UTC().Format(time.RFC3339),
		CanEdit:         leave.CanEdit(req, today),
		EditRestriction: leave.EditRestrictionReason(req, today),
	}
}

// =============================================================================
// HOLIDAY TYPES
// =============================================================================

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	OfficeClosed bool   `json:"office_closed"`
}

// CreateHolidayRequest is the body for POST /api/holidays.
type CreateHolidayRequest struct {
	Date         string `json:"date"`
	Name         string `json:"name"`
	Kind         string `json:"kind,omitempty"` // default: public
	OfficeClosed *bool  `json:"office_closed,omitempty"`
}

func toHolidayDTO(h calendar.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:           h.ID,
		Date:         h.Date.Format(dateLayout),
		Name:         h.Name,
		Kind:         string(h.Kind),
		OfficeClosed: h.OfficeClosed,
	}
}

// =============================================================================
// ADMIN TYPES
// =============================================================================

// CreateAdjustmentRequest applies a signed manual correction to an
// employee's annual-leave balance.
type CreateAdjustmentRequest struct {
	EmployeeEmail string  `json:"employee_email"`
	Year          int     `json:"year,omitempty"` // default: current year
	Days          float64 `json:"days"`
	Reason        string  `json:"reason,omitempty"`
}

// RolloverRequest triggers rollover of the given year into the next.
type RolloverRequest struct {
	Year int `json:"year"`
}

// RolloverResultDTO summarizes a rollover run.
type RolloverResultDTO struct {
	Year       int     `json:"year"`
	RolledOver int     `json:"rolled_over"`
	Forfeited  float64 `json:"forfeited_days"`
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
