/*
handlers_test.go - HTTP-level tests for the leave engine API

Each test drives the full router against an in-memory store with the clock
pinned to Tuesday 2025-06-10, so accrual months, edit windows and the
forfeiture cutoff are deterministic.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veldhq/leave-engine/leave"
	"github.com/veldhq/leave-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) *Handler {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, leave.DefaultPolicy())
	h.now = func() time.Time { return testNow }
	return h
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v (body: %s)", err, rec.Body.String())
	}
	return out
}

func provisionEmployee(t *testing.T, router http.Handler, email string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/employees", CreateBalanceRecordRequest{
		EmployeeEmail: email,
		Year:          2025,
		StartDate:     "2023-03-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Failed to provision employee: %d %s", rec.Code, rec.Body.String())
	}
}

func annualBalance(t *testing.T, router http.Handler, email string) TypeBalanceDTO {
	t.Helper()
	rec := do(t, router, http.MethodGet, "/api/employees/"+email+"/balances", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Failed to get balances: %d %s", rec.Code, rec.Body.String())
	}
	summary := decode[BalanceSummaryDTO](t, rec)
	for _, b := range summary.Balances {
		if b.Type == string(leave.TypeAnnual) {
			return b
		}
	}
	t.Fatal("annual balance missing from summary")
	return TypeBalanceDTO{}
}

// =============================================================================
// BALANCE ENDPOINT TESTS
// =============================================================================

func TestGetBalances_AnnualAndForfeitureRibbon(t *testing.T) {
	// GIVEN: 5 days brought forward, 4 used, as of June
	// WHEN: Fetching the dashboard
	// THEN: annual available = accrued(10) + 5 - 4 = 11, and 1 carried day
	//       is still at risk until 31 July

	h := newTestHandler(t)
	router := NewRouter(h)

	rec := do(t, router, http.MethodPost, "/api/employees", CreateBalanceRecordRequest{
		EmployeeEmail:  "thandi@example.com",
		Year:           2025,
		StartDate:      "2023-03-01",
		BroughtForward: ptr(5.0),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if err := h.Store.AddUsage(context.Background(), "thandi@example.com", 2025, leave.TypeAnnual, decimal.NewFromInt(4)); err != nil {
		t.Fatalf("Failed to add usage: %v", err)
	}

	resp := do(t, router, http.MethodGet, "/api/employees/thandi@example.com/balances", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	summary := decode[BalanceSummaryDTO](t, resp)

	if len(summary.Balances) != 8 {
		t.Errorf("expected 8 categories, got %d", len(summary.Balances))
	}
	annual := annualBalance(t, router, "thandi@example.com")
	if annual.Available != 11 {
		t.Errorf("expected 11 annual days available, got %v", annual.Available)
	}

	if summary.ForfeitureWarning == nil {
		t.Fatal("expected a forfeiture warning before the cutoff")
	}
	if summary.ForfeitureWarning.Days != 1 {
		t.Errorf("expected 1 day at risk, got %v", summary.ForfeitureWarning.Days)
	}
	if summary.ForfeitureWarning.Deadline != "2025-07-31" {
		t.Errorf("expected 2025-07-31 deadline, got %s", summary.ForfeitureWarning.Deadline)
	}
}

func TestGetBalances_UnknownEmployee(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)

	resp := do(t, router, http.MethodGet, "/api/employees/nobody@example.com/balances", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.Code)
	}
}

func TestGetBalances_AsOfParameter(t *testing.T) {
	// The as_of date drives the accrual month: March means 3 months accrued.
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodGet,
		"/api/employees/thandi@example.com/balances?as_of=2025-03-31", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	summary := decode[BalanceSummaryDTO](t, resp)
	for _, b := range summary.Balances {
		if b.Type == string(leave.TypeAnnual) && b.Available != 5 {
			t.Errorf("expected 5 accrued days by end of March, got %v", b.Available)
		}
	}
}

// =============================================================================
// REQUEST SUBMISSION TESTS
// =============================================================================

func TestSubmitRequest_RecomputesWorkingDays(t *testing.T) {
	// GIVEN: A Monday-to-Friday range in late June
	// WHEN: Submitting annual leave
	// THEN: 5 working days, pending, editable

	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, "/api/requests", SubmitRequestRequest{
		EmployeeEmail: "thandi@example.com",
		LeaveType:     "annual",
		StartDate:     "2025-06-23",
		EndDate:       "2025-06-27",
		Reason:        "Winter break",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	dto := decode[RequestDTO](t, resp)
	if dto.WorkingDays != 5 {
		t.Errorf("expected 5 working days, got %v", dto.WorkingDays)
	}
	if dto.Status != string(leave.StatusPending) {
		t.Errorf("expected pending status, got %s", dto.Status)
	}
	if !dto.CanEdit {
		t.Errorf("future pending request should be editable: %s", dto.EditRestriction)
	}
}

func TestSubmitRequest_HolidayReducesWorkingDays(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	hol := do(t, router, http.MethodPost, "/api/holidays", CreateHolidayRequest{
		Date: "2025-06-25",
		Name: "Company day",
		Kind: "company",
	})
	if hol.Code != http.StatusCreated {
		t.Fatalf("Failed to create holiday: %d %s", hol.Code, hol.Body.String())
	}

	resp := do(t, router, http.MethodPost, "/api/requests", SubmitRequestRequest{
		EmployeeEmail: "thandi@example.com",
		LeaveType:     "annual",
		StartDate:     "2025-06-23",
		EndDate:       "2025-06-27",
	})
	dto := decode[RequestDTO](t, resp)
	if dto.WorkingDays != 4 {
		t.Errorf("expected 4 working days with the holiday excluded, got %v", dto.WorkingDays)
	}
}

func TestSubmitRequest_WeekendOnlyRejected(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, "/api/requests", SubmitRequestRequest{
		EmployeeEmail: "thandi@example.com",
		LeaveType:     "annual",
		StartDate:     "2025-06-14", // Saturday
		EndDate:       "2025-06-15", // Sunday
	})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a zero-working-day request, got %d", resp.Code)
	}
}

func TestSubmitRequest_InsufficientBalance(t *testing.T) {
	// GIVEN: 10 accrued days by June, nothing carried over
	// WHEN: Requesting 3 full weeks (15 working days)
	// THEN: 400 with the shortfall in the error details

	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, "/api/requests", SubmitRequestRequest{
		EmployeeEmail: "thandi@example.com",
		LeaveType:     "annual",
		StartDate:     "2025-07-07",
		EndDate:       "2025-07-25",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	errResp := decode[ErrorResponse](t, resp)
	if errResp.Error != "Insufficient balance" {
		t.Errorf("unexpected error message: %q", errResp.Error)
	}
}

func TestSubmitRequest_Validation(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	tests := []struct {
		name string
		body SubmitRequestRequest
		want int
	}{
		{
			"unknown leave type",
			SubmitRequestRequest{EmployeeEmail: "thandi@example.com", LeaveType: "sabbatical",
				StartDate: "2025-06-23", EndDate: "2025-06-27"},
			http.StatusBadRequest,
		},
		{
			"inverted range",
			SubmitRequestRequest{EmployeeEmail: "thandi@example.com", LeaveType: "annual",
				StartDate: "2025-06-27", EndDate: "2025-06-23"},
			http.StatusBadRequest,
		},
		{
			"missing employee",
			SubmitRequestRequest{LeaveType: "annual", StartDate: "2025-06-23", EndDate: "2025-06-27"},
			http.StatusBadRequest,
		},
		{
			"no balance record",
			SubmitRequestRequest{EmployeeEmail: "nobody@example.com", LeaveType: "annual",
				StartDate: "2025-06-23", EndDate: "2025-06-27"},
			http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, router, http.MethodPost, "/api/requests", tt.body)
			if resp.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestSubmitRequest_MaternityNotDayValidated(t *testing.T) {
	// Month-denominated types aren't comparable to a working-day count, so a
	// long maternity range must not trip the day-balance check.
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, "/api/requests", SubmitRequestRequest{
		EmployeeEmail: "thandi@example.com",
		LeaveType:     "maternity",
		StartDate:     "2025-07-01",
		EndDate:       "2025-09-30",
	})
	if resp.Code != http.StatusCreated {
		t.Errorf("expected 201 for maternity leave, got %d: %s", resp.Code, resp.Body.String())
	}
}

// =============================================================================
// REQUEST LIFECYCLE TESTS
// =============================================================================

func submitTestRequest(t *testing.T, router http.Handler, email string) RequestDTO {
	t.Helper()
	resp := do(t, router, http.MethodPost, "/api/requests", SubmitRequestRequest{
		EmployeeEmail: email,
		LeaveType:     "annual",
		StartDate:     "2025-06-23",
		EndDate:       "2025-06-27",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Failed to submit request: %d %s", resp.Code, resp.Body.String())
	}
	return decode[RequestDTO](t, resp)
}

func TestApproveRequest_IncrementsUsage(t *testing.T) {
	// GIVEN: A pending 5-day annual request and an 11.67-day June balance
	// WHEN: Approving it
	// THEN: Status approved and the annual balance drops by 5

	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	before := annualBalance(t, router, "thandi@example.com")
	req := submitTestRequest(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/approve", req.ID), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	approved := decode[RequestDTO](t, resp)
	if approved.Status != string(leave.StatusApproved) {
		t.Errorf("expected approved status, got %s", approved.Status)
	}
	if approved.CanEdit {
		t.Error("approved request must not be editable")
	}

	after := annualBalance(t, router, "thandi@example.com")
	if after.Available != before.Available-5 {
		t.Errorf("expected balance to drop from %v by 5, got %v", before.Available, after.Available)
	}
	if after.Used != 5 {
		t.Errorf("expected 5 used days, got %v", after.Used)
	}
}

func TestApproveRequest_OnlyPending(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")
	req := submitTestRequest(t, router, "thandi@example.com")

	do(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/approve", req.ID), nil)
	resp := do(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/approve", req.ID), nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("double approval should fail with 400, got %d", resp.Code)
	}
}

func TestRejectRequest(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")
	req := submitTestRequest(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/reject", req.ID),
		RejectRequestRequest{Reason: "Team capacity"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	rejected := decode[RequestDTO](t, resp)
	if rejected.Status != string(leave.StatusRejected) {
		t.Errorf("expected rejected status, got %s", rejected.Status)
	}
	if rejected.Reason != "Team capacity" {
		t.Errorf("expected rejection reason recorded, got %q", rejected.Reason)
	}

	// Rejection must not consume balance.
	if used := annualBalance(t, router, "thandi@example.com").Used; used != 0 {
		t.Errorf("rejected request consumed %v days", used)
	}
}

func TestEditRequest_RecomputesAndSaves(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")
	req := submitTestRequest(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPut, "/api/requests/"+req.ID, EditRequestRequest{
		StartDate: "2025-06-23",
		EndDate:   "2025-06-25",
		HalfDay:   true,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	edited := decode[RequestDTO](t, resp)
	if edited.WorkingDays != 1.5 {
		t.Errorf("expected 1.5 working days after the half-day edit, got %v", edited.WorkingDays)
	}
}

func TestEditRequest_GuardedByStatus(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")
	req := submitTestRequest(t, router, "thandi@example.com")

	do(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/approve", req.ID), nil)

	resp := do(t, router, http.MethodPut, "/api/requests/"+req.ID, EditRequestRequest{
		StartDate: "2025-06-24",
		EndDate:   "2025-06-26",
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 editing an approved request, got %d", resp.Code)
	}
	errResp := decode[ErrorResponse](t, resp)
	if errResp.Error != "Cannot edit approved requests" {
		t.Errorf("unexpected restriction message: %q", errResp.Error)
	}
}

func TestEditRequest_GuardedByStartDate(t *testing.T) {
	// A pending request whose first day is today is already locked.
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, "/api/requests", SubmitRequestRequest{
		EmployeeEmail: "thandi@example.com",
		LeaveType:     "annual",
		StartDate:     "2025-06-10", // today in the pinned clock
		EndDate:       "2025-06-11",
	})
	req := decode[RequestDTO](t, resp)
	if req.CanEdit {
		t.Error("request starting today must not be editable")
	}

	edit := do(t, router, http.MethodPut, "/api/requests/"+req.ID, EditRequestRequest{
		StartDate: "2025-06-11",
		EndDate:   "2025-06-12",
	})
	if edit.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", edit.Code)
	}
	errResp := decode[ErrorResponse](t, edit)
	if errResp.Error != "Cannot edit requests where the first day has passed" {
		t.Errorf("unexpected restriction message: %q", errResp.Error)
	}
}

func TestCancelRequest_SameWindowAsEdit(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")
	req := submitTestRequest(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/cancel", req.ID), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	cancelled := decode[RequestDTO](t, resp)
	if cancelled.Status != string(leave.StatusCancelled) {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}

	// A cancelled request can't be cancelled (or edited) again.
	again := do(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/cancel", req.ID), nil)
	if again.Code != http.StatusForbidden {
		t.Errorf("expected 403 on double cancel, got %d", again.Code)
	}
}

func TestListRequests_Filters(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")
	provisionEmployee(t, router, "sipho@example.com")

	submitTestRequest(t, router, "thandi@example.com")
	req := submitTestRequest(t, router, "sipho@example.com")
	do(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/approve", req.ID), nil)

	all := decode[[]RequestDTO](t, do(t, router, http.MethodGet, "/api/requests", nil))
	if len(all) != 2 {
		t.Errorf("expected 2 requests, got %d", len(all))
	}

	approved := decode[[]RequestDTO](t, do(t, router, http.MethodGet, "/api/requests?status=approved", nil))
	if len(approved) != 1 || approved[0].EmployeeEmail != "sipho@example.com" {
		t.Errorf("status filter returned %+v", approved)
	}

	mine := decode[[]RequestDTO](t, do(t, router, http.MethodGet,
		"/api/employees/thandi@example.com/requests", nil))
	if len(mine) != 1 || mine[0].EmployeeEmail != "thandi@example.com" {
		t.Errorf("employee filter returned %+v", mine)
	}
}

// =============================================================================
// HOLIDAY AND ADMIN TESTS
// =============================================================================

func TestHolidayDefaults_Idempotent(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)

	first := decode[map[string]int](t, do(t, router, http.MethodPost, "/api/holidays/defaults?year=2025", nil))
	if first["added"] != 10 {
		t.Errorf("expected 10 fixed-date holidays, got %d", first["added"])
	}

	second := decode[map[string]int](t, do(t, router, http.MethodPost, "/api/holidays/defaults?year=2025", nil))
	if second["added"] != 0 {
		t.Errorf("re-seeding should add nothing, got %d", second["added"])
	}
}

func TestCreateAdjustment_ShiftsAnnualBalance(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	provisionEmployee(t, router, "thandi@example.com")

	before := annualBalance(t, router, "thandi@example.com")

	resp := do(t, router, http.MethodPost, "/api/admin/adjustments", CreateAdjustmentRequest{
		EmployeeEmail: "thandi@example.com",
		Year:          2025,
		Days:          2,
		Reason:        "Onboarding credit",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	after := annualBalance(t, router, "thandi@example.com")
	if after.Available != before.Available+2 {
		t.Errorf("expected balance %v, got %v", before.Available+2, after.Available)
	}
}

func TestLoadDemoData(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)

	resp := do(t, router, http.MethodPost, "/api/admin/seed", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	balances := do(t, router, http.MethodGet, "/api/employees/thandi@example.com/balances", nil)
	if balances.Code != http.StatusOK {
		t.Errorf("seeded employee should have balances, got %d", balances.Code)
	}
}

func ptr(f float64) *float64 { return &f }
