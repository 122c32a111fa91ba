/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates to the domain calculators and the store.

ENDPOINTS:
  Employees:
    POST /api/employees                    Provision a balance record
    GET  /api/employees/{email}/balances   Dashboard balances + forfeiture ribbon
    GET  /api/employees/{email}/requests   Employee's request history

  Requests:
    POST /api/requests                     Submit (recomputes working days,
                                           validates against current balance)
    GET  /api/requests                     List (?employee=, ?status=)
    GET  /api/requests/{id}                Request with edit-eligibility
    PUT  /api/requests/{id}                Edit (guarded by edit rules)
    POST /api/requests/{id}/approve        Approve, increments used amount
    POST /api/requests/{id}/reject         Reject
    POST /api/requests/{id}/cancel         Cancel (pending + not started only)

  Holidays:
    GET/POST/DELETE /api/holidays          Calendar CRUD
    POST /api/holidays/defaults            Seed SA public holidays

  Admin:
    POST /api/admin/rollover               Year-end rollover + forfeiture sweep
    POST /api/admin/adjustments            Manual annual-balance correction
    POST /api/admin/seed                   Demo data

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, insufficient balance
  - 403: Edit/cancel restrictions
  - 404: Record or request not found
  - 409: Conflicts (duplicate record/holiday)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/veldhq/leave-engine/calendar"
	"github.com/veldhq/leave-engine/leave"
	"github.com/veldhq/leave-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Calc  *leave.Calculator

	// now is swappable in tests; defaults to time.Now.
	now func() time.Time
}

// NewHandler creates a new handler with the given store and policy.
func NewHandler(store *sqlite.Store, policy leave.Policy) *Handler {
	return &Handler{
		Store: store,
		Calc:  leave.NewCalculator(policy),
		now:   time.Now,
	}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// EMPLOYEE / BALANCE ENDPOINTS
// =============================================================================

// CreateBalanceRecord provisions a balance record for an employee's leave year.
// POST /api/employees
func (h *Handler) CreateBalanceRecord(w http.ResponseWriter, r *http.Request) {
	var body CreateBalanceRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if body.EmployeeEmail == "" {
		writeError(w, http.StatusBadRequest, "employee_email is required", nil)
		return
	}

	startDate, err := time.Parse(dateLayout, body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD", err)
		return
	}

	year := body.Year
	if year == 0 {
		year = h.now().Year()
	}

	rec := &leave.BalanceRecord{
		EmployeeEmail: body.EmployeeEmail,
		Year:          year,
		StartDate:     startDate,
	}
	if body.ContractTerminationDate != "" {
		term, err := time.Parse(dateLayout, body.ContractTerminationDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "contract_termination_date must be YYYY-MM-DD", err)
			return
		}
		rec.ContractTerminationDate = &term
	}
	if body.BroughtForward != nil {
		rec.BroughtForward = decimal.NewFromFloat(*body.BroughtForward)
	}
	if body.AnnualAdjustments != nil {
		rec.AnnualAdjustments = decimal.NewFromFloat(*body.AnnualAdjustments)
	}

	if err := h.Store.PutBalanceRecord(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create balance record", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// GetBalances returns the dashboard balance summary for all eight leave types,
// plus the forfeiture warning ribbon when carry-over days are at risk.
// GET /api/employees/{email}/balances?as_of=YYYY-MM-DD
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	asOf := h.now()
	if q := r.URL.Query().Get("as_of"); q != "" {
		parsed, err := time.Parse(dateLayout, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD", err)
			return
		}
		asOf = parsed
	}

	rec, err := h.Store.GetBalanceRecord(r.Context(), email, asOf.Year())
	if err != nil {
		if leave.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "No balance record for employee", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load balance record", err)
		return
	}

	summary, err := h.Calc.Summary(rec, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to calculate balances", err)
		return
	}

	dto := BalanceSummaryDTO{
		EmployeeEmail: email,
		Year:          rec.Year,
		AsOf:          asOf.Format(dateLayout),
		Balances:      make([]TypeBalanceDTO, 0, len(summary)),
	}
	for _, b := range summary {
		dto.Balances = append(dto.Balances, TypeBalanceDTO{
			Type:      string(b.Type),
			Unit:      string(b.Unit),
			Allocated: toFloat(b.Allocated),
			Used:      toFloat(b.Used),
			Available: toFloat(b.Available),
		})
	}

	warning, err := h.Calc.ForfeitureWarning(rec, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to evaluate forfeiture", err)
		return
	}
	if warning != nil {
		dto.ForfeitureWarning = &ForfeitureWarningDTO{
			Days:     toFloat(warning.Days),
			Deadline: warning.Deadline.Format(dateLayout),
		}
	}

	writeJSON(w, http.StatusOK, dto)
}

// ListEmployeeRequests returns one employee's request history.
// GET /api/employees/{email}/requests
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	h.listRequests(w, r, sqlite.RequestFilter{EmployeeEmail: email})
}

// =============================================================================
// LEAVE REQUEST ENDPOINTS
// =============================================================================

// SubmitRequest creates a pending leave request. The working-day count is
// recomputed from the range and the holiday calendar, then validated against
// the current balance for day-denominated leave types.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if body.EmployeeEmail == "" {
		writeError(w, http.StatusBadRequest, "employee_email is required", nil)
		return
	}

	leaveType := leave.Type(body.LeaveType)
	if !leaveType.Known() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown leave type %q", body.LeaveType), nil)
		return
	}

	startDate, endDate, err := parseRange(body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	workingDays, err := h.workingDays(r, startDate, endDate, body.HalfDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute working days", err)
		return
	}
	if workingDays.IsZero() {
		writeError(w, http.StatusBadRequest, "Request covers no working days", nil)
		return
	}

	if err := h.validateBalance(r, body.EmployeeEmail, leaveType, workingDays); err != nil {
		if leave.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "No balance record for employee", err)
			return
		}
		if leave.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Insufficient balance", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to validate balance", err)
		return
	}

	now := h.now()
	req := &leave.Request{
		ID:            uuid.NewString(),
		EmployeeEmail: body.EmployeeEmail,
		Type:          leaveType,
		StartDate:     startDate,
		EndDate:       endDate,
		HalfDay:       body.HalfDay,
		WorkingDays:   workingDays,
		Status:        leave.StatusPending,
		Reason:        body.Reason,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Store.CreateRequest(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(req, now))
}

// GetRequest returns a request with its edit-eligibility evaluated now.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req, h.now()))
}

// ListRequests returns requests matching the query filters.
// GET /api/requests?employee=&status=
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, sqlite.RequestFilter{
		EmployeeEmail: r.URL.Query().Get("employee"),
		Status:        leave.RequestStatus(r.URL.Query().Get("status")),
	})
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request, filter sqlite.RequestFilter) {
	requests, err := h.Store.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	today := h.now()
	dtos := make([]RequestDTO, 0, len(requests))
	for _, req := range requests {
		dtos = append(dtos, toRequestDTO(req, today))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// EditRequest updates a pending, not-yet-started request. Eligibility is
// re-evaluated against the current date at this moment, never cached.
// PUT /api/requests/{id}
func (h *Handler) EditRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadRequest(w, r)
	if !ok {
		return
	}

	today := h.now()
	if reason := leave.EditRestrictionReason(req, today); reason != "" {
		writeError(w, http.StatusForbidden, reason, nil)
		return
	}

	var body EditRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	startDate, endDate, err := parseRange(body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	workingDays, err := h.workingDays(r, startDate, endDate, body.HalfDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute working days", err)
		return
	}
	if workingDays.IsZero() {
		writeError(w, http.StatusBadRequest, "Request covers no working days", nil)
		return
	}

	if err := h.validateBalance(r, req.EmployeeEmail, req.Type, workingDays); err != nil {
		if leave.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Insufficient balance", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to validate balance", err)
		return
	}

	req.StartDate = startDate
	req.EndDate = endDate
	req.HalfDay = body.HalfDay
	req.WorkingDays = workingDays
	if body.Reason != "" {
		req.Reason = body.Reason
	}
	req.UpdatedAt = today

	if err := h.Store.UpdateRequest(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req, today))
}

// ApproveRequest approves a pending request and increments the employee's
// used amount for the request's leave type. This handler is the single
// writer of used amounts.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadRequest(w, r)
	if !ok {
		return
	}
	if req.Status != leave.StatusPending {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Can only approve pending requests, current status: %s", req.Status), leave.ErrInvalidStatus)
		return
	}

	usage := usageAmount(req)
	if err := h.Store.AddUsage(r.Context(), req.EmployeeEmail, req.StartDate.Year(), req.Type, usage); err != nil {
		if leave.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "No balance record for employee", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record usage", err)
		return
	}

	req.Status = leave.StatusApproved
	req.UpdatedAt = h.now()
	if err := h.Store.UpdateRequest(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req, h.now()))
}

// RejectRequest rejects a pending request.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadRequest(w, r)
	if !ok {
		return
	}
	if req.Status != leave.StatusPending {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Can only reject pending requests, current status: %s", req.Status), leave.ErrInvalidStatus)
		return
	}

	var body RejectRequestRequest
	_ = json.NewDecoder(r.Body).Decode(&body) // body is optional

	req.Status = leave.StatusRejected
	if body.Reason != "" {
		req.Reason = body.Reason
	}
	req.UpdatedAt = h.now()
	if err := h.Store.UpdateRequest(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req, h.now()))
}

// CancelRequest cancels a request. The owning employee may only do this
// while the request is still pending and its first day has not arrived -
// the same window that edit-eligibility defines.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadRequest(w, r)
	if !ok {
		return
	}

	today := h.now()
	if reason := leave.EditRestrictionReason(req, today); reason != "" {
		writeError(w, http.StatusForbidden, reason, nil)
		return
	}

	req.Status = leave.StatusCancelled
	req.UpdatedAt = today
	if err := h.Store.UpdateRequest(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req, today))
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday to the calendar.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var body CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	kind := calendar.HolidayKind(body.Kind)
	switch kind {
	case "":
		kind = calendar.KindPublic
	case calendar.KindPublic, calendar.KindCompany:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown holiday kind %q", body.Kind), nil)
		return
	}

	hol := calendar.Holiday{
		ID:           uuid.NewString(),
		Date:         date,
		Name:         body.Name,
		Kind:         kind,
		OfficeClosed: true,
	}
	if body.OfficeClosed != nil {
		hol.OfficeClosed = *body.OfficeClosed
	}

	if err := h.Store.AddHoliday(r.Context(), hol); err != nil {
		writeError(w, http.StatusConflict, "Failed to add holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hol))
}

// AddDefaultHolidays seeds the South African public holidays for a year.
// POST /api/holidays/defaults?year=2026
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if q := r.URL.Query().Get("year"); q != "" {
		if _, err := fmt.Sscanf(q, "%d", &year); err != nil {
			writeError(w, http.StatusBadRequest, "year must be numeric", err)
			return
		}
	}

	added := 0
	for _, hol := range southAfricanPublicHolidays(year) {
		if err := h.Store.AddHoliday(r.Context(), hol); err != nil {
			continue // already present
		}
		added++
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// DeleteHoliday removes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// CreateAdjustment applies a signed manual correction to an employee's
// annual-leave balance.
// POST /api/admin/adjustments
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var body CreateAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if body.EmployeeEmail == "" {
		writeError(w, http.StatusBadRequest, "employee_email is required", nil)
		return
	}

	year := body.Year
	if year == 0 {
		year = h.now().Year()
	}

	rec, err := h.Store.GetBalanceRecord(r.Context(), body.EmployeeEmail, year)
	if err != nil {
		if leave.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "No balance record for employee", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load balance record", err)
		return
	}

	rec.AnnualAdjustments = rec.AnnualAdjustments.Add(decimal.NewFromFloat(body.Days))
	if err := h.Store.PutBalanceRecord(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save adjustment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "adjusted"})
}

// TriggerRollover runs the year-end rollover manually.
// POST /api/admin/rollover
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	var body RolloverRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if body.Year == 0 {
		writeError(w, http.StatusBadRequest, "year is required", nil)
		return
	}

	result, err := RolloverYear(r.Context(), h.Store, h.Calc, body.Year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Rollover failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadRequest(w http.ResponseWriter, r *http.Request) (*leave.Request, bool) {
	req, err := h.Store.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if leave.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Request not found", err)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load request", err)
		return nil, false
	}
	return req, true
}

// workingDays recomputes the working-day count from the holiday calendar.
func (h *Handler) workingDays(r *http.Request, start, end time.Time, halfDay bool) (decimal.Decimal, error) {
	public, company, err := h.Store.HolidayDates(r.Context())
	if err != nil {
		return decimal.Zero, err
	}
	return calendar.WorkingDays(start, end, public, company, halfDay), nil
}

// validateBalance rejects requests that overdraw the current balance.
// Only day-denominated types are comparable to a working-day count;
// month/week-denominated types (maternity, parental, adoption) are
// validated in their own unit at approval time.
func (h *Handler) validateBalance(r *http.Request, email string, t leave.Type, workingDays decimal.Decimal) error {
	if t.Unit() != leave.UnitDays {
		return nil
	}

	rec, err := h.Store.GetBalanceRecord(r.Context(), email, h.now().Year())
	if err != nil {
		return err
	}

	available, err := h.Calc.CurrentBalance(rec, t, h.now())
	if err != nil {
		return err
	}
	if workingDays.GreaterThan(available) {
		return &leave.InsufficientBalanceError{
			EmployeeEmail: email,
			Type:          t,
			Available:     available,
			Requested:     workingDays,
		}
	}
	return nil
}

// usageAmount converts an approved request into the amount recorded against
// the balance, in the leave type's own unit.
func usageAmount(req *leave.Request) decimal.Decimal {
	switch req.Type.Unit() {
	case leave.UnitWeeks:
		days := int(req.EndDate.Sub(req.StartDate).Hours()/24) + 1
		return decimal.NewFromInt(int64((days + 6) / 7))
	case leave.UnitMonths:
		months := (req.EndDate.Year()-req.StartDate.Year())*12 +
			int(req.EndDate.Month()) - int(req.StartDate.Month()) + 1
		return decimal.NewFromInt(int64(months))
	default:
		return req.WorkingDays
	}
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must be YYYY-MM-DD")
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date is after end_date")
	}
	return startDate, endDate, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
