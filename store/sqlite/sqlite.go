/*
Package sqlite provides the SQLite-backed balance record gateway and the
request/holiday stores.

PURPOSE:
  Persists the raw data the leave engine consumes: per-employee balance
  records, leave requests, and the holiday calendar. The core packages
  (leave, calendar) never import this package - they are handed plain
  structs and compute from them.

KEY TABLES:
  balance_records:  One row per employee per leave year
  leave_requests:   Request lifecycle (pending/approved/rejected/cancelled)
  holidays:         Public and company holidays with an office-status flag

SINGLE WRITER:
  The approval workflow is the only mutator of the used amounts; AddUsage
  performs the increment in a single UPDATE so concurrent readers never see
  a read-modify-write window. The rest of the API is whole-row upserts.

DECIMALS:
  All amounts are stored as TEXT and parsed with shopspring/decimal so
  half days survive round-trips exactly.

CONCURRENCY:
  sync.RWMutex for in-process safety; SQLite runs in WAL mode so readers
  don't block the single writer.

USAGE:
  store, err := sqlite.New("./leave.db")   // ":memory:" for tests
  defer store.Close()

SEE ALSO:
  - leave/types.go: The structs persisted here
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/veldhq/leave-engine/calendar"
	"github.com/veldhq/leave-engine/leave"
)

const (
	dateLayout = "2006-01-02"
)

// Store persists balance records, leave requests and holidays.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Balance records: one per employee per leave year
	CREATE TABLE IF NOT EXISTS balance_records (
		employee_email     TEXT NOT NULL,
		year               INTEGER NOT NULL,
		start_date         TEXT NOT NULL,
		termination_date   TEXT,
		brought_forward    TEXT NOT NULL DEFAULT '0',
		annual_adjustments TEXT NOT NULL DEFAULT '0',
		annual_used        TEXT NOT NULL DEFAULT '0',
		sick_used          TEXT NOT NULL DEFAULT '0',
		maternity_used     TEXT NOT NULL DEFAULT '0',
		parental_used      TEXT NOT NULL DEFAULT '0',
		family_used        TEXT NOT NULL DEFAULT '0',
		adoption_used      TEXT NOT NULL DEFAULT '0',
		study_used         TEXT NOT NULL DEFAULT '0',
		wellness_used      TEXT NOT NULL DEFAULT '0',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL,
		PRIMARY KEY (employee_email, year)
	);

	-- Leave requests (approval workflow)
	CREATE TABLE IF NOT EXISTS leave_requests (
		id             TEXT PRIMARY KEY,
		employee_email TEXT NOT NULL,
		leave_type     TEXT NOT NULL,
		start_date     TEXT NOT NULL,
		end_date       TEXT NOT NULL,
		half_day       BOOLEAN NOT NULL DEFAULT FALSE,
		working_days   TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		reason         TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_email);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	-- Holidays (public and company)
	CREATE TABLE IF NOT EXISTS holidays (
		id            TEXT PRIMARY KEY,
		date          TEXT NOT NULL,
		name          TEXT NOT NULL,
		kind          TEXT NOT NULL,
		office_closed BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);
	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BALANCE RECORD GATEWAY
// =============================================================================

// GetBalanceRecord loads the record for an employee's leave year.
// Returns leave.ErrRecordNotFound when absent.
func (s *Store) GetBalanceRecord(ctx context.Context, email string, year int) (*leave.BalanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT employee_email, year, start_date, termination_date,
		       brought_forward, annual_adjustments,
		       annual_used, sick_used, maternity_used, parental_used,
		       family_used, adoption_used, study_used, wellness_used
		FROM balance_records
		WHERE employee_email = ? AND year = ?`, email, year)

	rec, err := scanBalanceRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrRecordNotFound
	}
	return rec, err
}

// ListBalanceRecords returns all records for a leave year (rollover input).
func (s *Store) ListBalanceRecords(ctx context.Context, year int) ([]*leave.BalanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_email, year, start_date, termination_date,
		       brought_forward, annual_adjustments,
		       annual_used, sick_used, maternity_used, parental_used,
		       family_used, adoption_used, study_used, wellness_used
		FROM balance_records
		WHERE year = ?
		ORDER BY employee_email`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance records: %w", err)
	}
	defer rows.Close()

	var records []*leave.BalanceRecord
	for rows.Next() {
		rec, err := scanBalanceRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PutBalanceRecord inserts or replaces the record for (email, year).
func (s *Store) PutBalanceRecord(ctx context.Context, rec *leave.BalanceRecord) error {
	if rec == nil {
		return leave.ErrNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var termination any
	if rec.ContractTerminationDate != nil && !rec.ContractTerminationDate.IsZero() {
		termination = rec.ContractTerminationDate.Format(dateLayout)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balance_records
		(employee_email, year, start_date, termination_date,
		 brought_forward, annual_adjustments,
		 annual_used, sick_used, maternity_used, parental_used,
		 family_used, adoption_used, study_used, wellness_used,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_email, year) DO UPDATE SET
			start_date = excluded.start_date,
			termination_date = excluded.termination_date,
			brought_forward = excluded.brought_forward,
			annual_adjustments = excluded.annual_adjustments,
			annual_used = excluded.annual_used,
			sick_used = excluded.sick_used,
			maternity_used = excluded.maternity_used,
			parental_used = excluded.parental_used,
			family_used = excluded.family_used,
			adoption_used = excluded.adoption_used,
			study_used = excluded.study_used,
			wellness_used = excluded.wellness_used,
			updated_at = excluded.updated_at`,
		rec.EmployeeEmail, rec.Year,
		rec.StartDate.Format(dateLayout), termination,
		rec.BroughtForward.String(), rec.AnnualAdjustments.String(),
		rec.AnnualUsed.String(), rec.SickUsed.String(),
		rec.MaternityUsed.String(), rec.ParentalUsed.String(),
		rec.FamilyUsed.String(), rec.AdoptionUsed.String(),
		rec.StudyUsed.String(), rec.WellnessUsed.String(),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to put balance record: %w", err)
	}
	return nil
}

// AddUsage increments the used amount for one category in a single UPDATE.
// This is the approval workflow's only write path into the record.
func (s *Store) AddUsage(ctx context.Context, email string, year int, t leave.Type, amount decimal.Decimal) error {
	column, ok := usedColumn(t)
	if !ok {
		return fmt.Errorf("unknown leave type %q", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// decimal arithmetic happens in Go; the single UPDATE keeps it atomic.
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM balance_records WHERE employee_email = ? AND year = ?`, column),
		email, year)

	var current string
	if err := row.Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.ErrRecordNotFound
		}
		return fmt.Errorf("failed to read usage: %w", err)
	}

	used, err := decimal.NewFromString(current)
	if err != nil {
		return fmt.Errorf("corrupt usage value %q: %w", current, err)
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE balance_records SET %s = ?, updated_at = ? WHERE employee_email = ? AND year = ?`, column),
		used.Add(amount).String(), time.Now().UTC().Format(time.RFC3339), email, year)
	if err != nil {
		return fmt.Errorf("failed to update usage: %w", err)
	}
	return nil
}

func usedColumn(t leave.Type) (string, bool) {
	switch t {
	case leave.TypeAnnual:
		return "annual_used", true
	case leave.TypeSick:
		return "sick_used", true
	case leave.TypeMaternity:
		return "maternity_used", true
	case leave.TypeParental:
		return "parental_used", true
	case leave.TypeFamily:
		return "family_used", true
	case leave.TypeAdoption:
		return "adoption_used", true
	case leave.TypeStudy:
		return "study_used", true
	case leave.TypeWellness:
		return "wellness_used", true
	}
	return "", false
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBalanceRecord(row rowScanner) (*leave.BalanceRecord, error) {
	var (
		rec         leave.BalanceRecord
		startDate   string
		termination sql.NullString
		amounts     [10]string
	)
	err := row.Scan(
		&rec.EmployeeEmail, &rec.Year, &startDate, &termination,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3], &amounts[4],
		&amounts[5], &amounts[6], &amounts[7], &amounts[8], &amounts[9],
	)
	if err != nil {
		return nil, err
	}

	if rec.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return nil, fmt.Errorf("corrupt start_date %q: %w", startDate, err)
	}
	if termination.Valid && termination.String != "" {
		t, err := time.Parse(dateLayout, termination.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt termination_date %q: %w", termination.String, err)
		}
		rec.ContractTerminationDate = &t
	}

	fields := []*decimal.Decimal{
		&rec.BroughtForward, &rec.AnnualAdjustments,
		&rec.AnnualUsed, &rec.SickUsed, &rec.MaternityUsed, &rec.ParentalUsed,
		&rec.FamilyUsed, &rec.AdoptionUsed, &rec.StudyUsed, &rec.WellnessUsed,
	}
	for i, field := range fields {
		if *field, err = decimal.NewFromString(amounts[i]); err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amounts[i], err)
		}
	}
	return &rec, nil
}

// =============================================================================
// LEAVE REQUEST STORE
// =============================================================================

// CreateRequest persists a new request.
func (s *Store) CreateRequest(ctx context.Context, req *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests
		(id, employee_email, leave_type, start_date, end_date, half_day,
		 working_days, status, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeEmail, req.Type,
		req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout),
		req.HalfDay, req.WorkingDays.String(), req.Status, req.Reason,
		req.CreatedAt.UTC().Format(time.RFC3339), req.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetRequest loads a request by ID. Returns leave.ErrRequestNotFound when absent.
func (s *Store) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_email, leave_type, start_date, end_date, half_day,
		       working_days, status, reason, created_at, updated_at
		FROM leave_requests WHERE id = ?`, id)

	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrRequestNotFound
	}
	return req, err
}

// UpdateRequest replaces the mutable fields of an existing request.
func (s *Store) UpdateRequest(ctx context.Context, req *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_requests
		SET leave_type = ?, start_date = ?, end_date = ?, half_day = ?,
		    working_days = ?, status = ?, reason = ?, updated_at = ?
		WHERE id = ?`,
		req.Type, req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout),
		req.HalfDay, req.WorkingDays.String(), req.Status, req.Reason,
		time.Now().UTC().Format(time.RFC3339), req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrRequestNotFound
	}
	return nil
}

// RequestFilter narrows ListRequests. Zero values mean "no filter".
type RequestFilter struct {
	EmployeeEmail string
	Status        leave.RequestStatus
}

// ListRequests returns requests matching the filter, newest first.
func (s *Store) ListRequests(ctx context.Context, filter RequestFilter) ([]*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_email, leave_type, start_date, end_date, half_day,
		       working_days, status, reason, created_at, updated_at
		FROM leave_requests`
	var (
		clauses []string
		args    []any
	)
	if filter.EmployeeEmail != "" {
		clauses = append(clauses, "employee_email = ?")
		args = append(args, filter.EmployeeEmail)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*leave.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (*leave.Request, error) {
	var (
		req                  leave.Request
		start, end           string
		workingDays          string
		createdAt, updatedAt string
		reason               sql.NullString
	)
	err := row.Scan(&req.ID, &req.EmployeeEmail, &req.Type, &start, &end,
		&req.HalfDay, &workingDays, &req.Status, &reason, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if req.StartDate, err = time.Parse(dateLayout, start); err != nil {
		return nil, fmt.Errorf("corrupt start_date %q: %w", start, err)
	}
	if req.EndDate, err = time.Parse(dateLayout, end); err != nil {
		return nil, fmt.Errorf("corrupt end_date %q: %w", end, err)
	}
	if req.WorkingDays, err = decimal.NewFromString(workingDays); err != nil {
		return nil, fmt.Errorf("corrupt working_days %q: %w", workingDays, err)
	}
	req.Reason = reason.String
	req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	req.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &req, nil
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

// AddHoliday persists a holiday. Duplicate (date, name) pairs are rejected.
func (s *Store) AddHoliday(ctx context.Context, h calendar.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, kind, office_closed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, h.Date.Format(dateLayout), h.Name, h.Kind, h.OfficeClosed,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("holiday %q on %s already exists", h.Name, h.Date.Format(dateLayout))
		}
		return fmt.Errorf("failed to add holiday: %w", err)
	}
	return nil
}

// DeleteHoliday removes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, kind, office_closed FROM holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var (
			h    calendar.Holiday
			date string
		)
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.Kind, &h.OfficeClosed); err != nil {
			return nil, err
		}
		if h.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("corrupt holiday date %q: %w", date, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// HolidayDates returns the public and company holiday dates separately,
// in the shape the working-days calculator takes.
func (s *Store) HolidayDates(ctx context.Context) (public, company []time.Time, err error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, h := range holidays {
		if h.Kind == calendar.KindCompany {
			company = append(company, h.Date)
		} else {
			public = append(public, h.Date)
		}
	}
	return public, company, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
