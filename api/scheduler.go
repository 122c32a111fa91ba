/*
scheduler.go - Background rollover and forfeiture scheduler

PURPOSE:
  Runs the two calendar-driven balance mutations without manual triggering:

  1. Forfeiture sweep: once the statutory cutoff (31 July by default) has
     passed, any brought-forward days not yet consumed are written off so
     balances stop counting them.

  2. Year-end rollover: in January, every employee with a prior-year record
     and no current-year record gets a new record whose brought-forward is
     the clamped annual balance at 31 December of the prior year.

  Both operations are idempotent, so the scheduler can re-run them on every
  tick without double-applying:
  - The sweep sets broughtForward = min(broughtForward, annualUsed), after
    which daysToForfeit is zero.
  - Rollover skips employees who already have a record for the new year.

LIFECYCLE:
  scheduler := NewRolloverScheduler(store, calc)
  scheduler.Start()
  defer scheduler.Stop()

SEE ALSO:
  - leave/forfeiture.go: DaysToForfeit calculation
  - handlers.go: TriggerRollover exposes RolloverYear manually
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veldhq/leave-engine/leave"
	"github.com/veldhq/leave-engine/store/sqlite"
)

// =============================================================================
// SCHEDULER
// =============================================================================

// RolloverScheduler periodically applies forfeiture and year-end rollover.
type RolloverScheduler struct {
	Store *sqlite.Store
	Calc  *leave.Calculator

	// CheckInterval is how often the calendar checks run. Default: 6h.
	CheckInterval time.Duration

	// Enabled gates the background loop; Start is a no-op when false.
	Enabled bool

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewRolloverScheduler creates an enabled scheduler with the default interval.
func NewRolloverScheduler(store *sqlite.Store, calc *leave.Calculator) *RolloverScheduler {
	return &RolloverScheduler{
		Store:         store,
		Calc:          calc,
		CheckInterval: 6 * time.Hour,
		Enabled:       true,
	}
}

// Start launches the background loop. Safe to call once.
func (s *RolloverScheduler) Start() {
	if !s.Enabled {
		log.Printf("[Scheduler] disabled, not starting")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.loop()
	log.Printf("[Scheduler] started, checking every %s", s.CheckInterval)
}

// Stop terminates the background loop and waits for it to exit.
func (s *RolloverScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("[Scheduler] stopped")
}

func (s *RolloverScheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.CheckInterval)
	defer ticker.Stop()

	// Run once at startup so a restarted server catches up immediately.
	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

// RunOnce applies whichever calendar mutations are due right now.
func (s *RolloverScheduler) RunOnce(ctx context.Context) {
	now := time.Now()

	if now.After(s.Calc.Policy.ForfeitureCutoff(now.Year())) {
		forfeited, err := SweepForfeitures(ctx, s.Store, s.Calc, now.Year())
		if err != nil {
			log.Printf("[Scheduler] forfeiture sweep failed: %v", err)
		} else if !forfeited.IsZero() {
			log.Printf("[Scheduler] forfeited %s carry-over days for %d", forfeited, now.Year())
		}
	}

	if now.Month() == time.January {
		result, err := RolloverYear(ctx, s.Store, s.Calc, now.Year()-1)
		if err != nil {
			log.Printf("[Scheduler] rollover failed: %v", err)
		} else if result.RolledOver > 0 {
			log.Printf("[Scheduler] rolled over %d records from %d", result.RolledOver, result.Year)
		}
	}
}

// =============================================================================
// FORFEITURE SWEEP
// =============================================================================

// SweepForfeitures writes off the at-risk carry-over for every record in the
// given year. After the sweep, broughtForward = min(broughtForward, annualUsed)
// so a re-run forfeits nothing. Returns the total days written off.
func SweepForfeitures(ctx context.Context, store *sqlite.Store, calc *leave.Calculator, year int) (decimal.Decimal, error) {
	records, err := store.ListBalanceRecords(ctx, year)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, rec := range records {
		days := leave.DaysToForfeit(rec.BroughtForward, rec.AnnualUsed)
		if days.IsZero() {
			continue
		}

		rec.BroughtForward = decimal.Min(rec.BroughtForward, rec.AnnualUsed)
		if err := store.PutBalanceRecord(ctx, rec); err != nil {
			return total, err
		}
		total = total.Add(days)
	}
	return total, nil
}

// =============================================================================
// YEAR-END ROLLOVER
// =============================================================================

// RolloverYear creates year+1 records for every employee with a record in
// year, carrying the clamped annual balance at 31 December forward. The
// forfeiture sweep runs first so stale carry-over never survives into the
// new cycle. Employees already holding a year+1 record, and employees whose
// contract ended in or before year, are skipped.
func RolloverYear(ctx context.Context, store *sqlite.Store, calc *leave.Calculator, year int) (*RolloverResultDTO, error) {
	forfeited, err := SweepForfeitures(ctx, store, calc, year)
	if err != nil {
		return nil, err
	}

	records, err := store.ListBalanceRecords(ctx, year)
	if err != nil {
		return nil, err
	}

	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	result := &RolloverResultDTO{Year: year, Forfeited: toFloat(forfeited)}

	for _, rec := range records {
		if rec.ContractTerminationDate != nil && rec.ContractTerminationDate.Year() <= year {
			continue
		}
		if _, err := store.GetBalanceRecord(ctx, rec.EmployeeEmail, year+1); err == nil {
			continue // already rolled over
		} else if !leave.IsNotFound(err) {
			return nil, err
		}

		carryOver, err := calc.CurrentBalance(rec, leave.TypeAnnual, yearEnd)
		if err != nil {
			return nil, err
		}

		next := &leave.BalanceRecord{
			EmployeeEmail:           rec.EmployeeEmail,
			Year:                    year + 1,
			StartDate:               rec.StartDate,
			ContractTerminationDate: rec.ContractTerminationDate,
			BroughtForward:          carryOver,
		}
		if err := store.PutBalanceRecord(ctx, next); err != nil {
			return nil, err
		}
		result.RolledOver++
	}
	return result, nil
}
