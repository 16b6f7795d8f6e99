/*
scheduler.go - Day-rollover sweeper

PURPOSE:
  Keeps every user's current month fresh as days pass without writes.
  The summary chain only advances when something recomputes it; without a
  sweep, a user who writes nothing for a week has no row for "today" and
  savings reads fall back to the newest stale row.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - On each tick, detects whether the calendar day has rolled over
  - On rollover, recomputes the current month for every registered user
    (idempotent, so sweeping an already-fresh month changes nothing)

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewRolloverSweeper(store, svc)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - ledger/service.go: RefreshMonth
  - cmd/server/main.go: Startup wiring
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/savings-engine/ledger"
	"github.com/warp/savings-engine/store/sqlite"
)

// RolloverSweeper refreshes each user's current month when the day changes.
type RolloverSweeper struct {
	Store         *sqlite.Store
	Service       *ledger.Service
	Clock         ledger.Clock
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex

	// lastDay has its own lock: sweep() runs on the background goroutine,
	// and taking rs.mu there would deadlock against a Stop() waiting for
	// that same goroutine to finish.
	dayMu   sync.Mutex
	lastDay ledger.Date
}

// NewRolloverSweeper creates a new sweeper.
func NewRolloverSweeper(store *sqlite.Store, svc *ledger.Service) *RolloverSweeper {
	return &RolloverSweeper{
		Store:         store,
		Service:       svc,
		Clock:         ledger.SystemClock{},
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (rs *RolloverSweeper) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Sweeper] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
func (rs *RolloverSweeper) Stop() {
	rs.mu.Lock()
	started := rs.ticker != nil
	if started {
		rs.ticker.Stop()
		close(rs.stop)
		rs.ticker = nil
	}
	// Wait outside the lock: the goroutine may be mid-sweep and must not
	// be blocked from completing.
	rs.mu.Unlock()

	if started {
		rs.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (rs *RolloverSweeper) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RolloverSweeper) sweep() {
	ctx := context.Background()
	today := rs.Clock.Today()

	rs.dayMu.Lock()
	rolled := rs.lastDay.IsZero() || !rs.lastDay.Equal(today)
	if rolled {
		rs.lastDay = today
	}
	rs.dayMu.Unlock()

	if !rolled {
		return
	}

	userIDs, err := rs.Store.ListUserIDs(ctx)
	if err != nil {
		log.Printf("[Sweeper] Error listing users: %v", err)
		return
	}

	ym := ledger.MonthOf(today)
	refreshed := 0
	for _, id := range userIDs {
		if err := rs.Service.RefreshMonth(ctx, id, ym); err != nil {
			log.Printf("[Sweeper] Error refreshing %s for %s: %v", ym, id, err)
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		log.Printf("[Sweeper] Refreshed %s for %d user(s)", ym, refreshed)
	}
}
