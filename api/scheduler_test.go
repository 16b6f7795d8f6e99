/*
scheduler_test.go - Rollover sweeper tests
*/
package api

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/savings-engine/ledger"
	"github.com/warp/savings-engine/store/sqlite"
)

// gateClock parks Today() until released, so a test can hold a sweep
// in flight at a chosen point.
type gateClock struct {
	day     ledger.Date
	entered chan struct{}
	release chan struct{}
}

func newGateClock(day string) *gateClock {
	return &gateClock{
		day:     ledger.MustDate(day),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (c *gateClock) Today() ledger.Date {
	select {
	case c.entered <- struct{}{}:
	default:
	}
	<-c.release
	return c.day
}

func (c *gateClock) Now() time.Time { return c.day.Time() }

func newSweeperFixture(t *testing.T) (*sqlite.Store, *ledger.Service) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, ledger.NewService(store)
}

func TestRolloverSweeper_StopReturnsWhileSweepInFlight(t *testing.T) {
	// GIVEN: A sweep parked mid-flight, before it reaches its own state
	// WHEN: Stop is called and the sweep then resumes
	// THEN: Stop returns instead of hanging on the in-flight goroutine

	store, svc := newSweeperFixture(t)

	clock := newGateClock("2025-03-15")
	rs := NewRolloverSweeper(store, svc)
	rs.Clock = clock
	rs.CheckInterval = time.Hour
	rs.Start()

	<-clock.entered // startup sweep is now inside Today()

	stopped := make(chan struct{})
	go func() {
		rs.Stop()
		close(stopped)
	}()

	// Give Stop a moment to reach its wait before releasing the sweep.
	time.Sleep(50 * time.Millisecond)
	close(clock.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while a sweep was in flight")
	}
}

func TestRolloverSweeper_RefreshesCurrentMonthForEveryUser(t *testing.T) {
	// GIVEN: Two registered users with no summary rows
	// WHEN: A sweep runs
	// THEN: Both users have a row for today

	store, svc := newSweeperFixture(t)
	ctx := context.Background()
	for _, id := range []ledger.UserID{"user-a", "user-b"} {
		require.NoError(t, store.SaveUser(ctx, ledger.User{ID: id, OpeningBalance: decimal.Zero}))
	}

	today := ledger.MustDate("2025-03-15")
	rs := NewRolloverSweeper(store, svc)
	rs.Clock = ledger.FixedClock{Day: today}
	rs.CheckInterval = time.Hour
	rs.Start()
	rs.Stop()

	for _, id := range []ledger.UserID{"user-a", "user-b"} {
		row, err := svc.GetDaySummary(ctx, id, today)
		require.NoError(t, err, "user %s has no row for today", id)
		assert.True(t, row.Savings.IsZero())
	}
}

func TestRolloverSweeper_Disabled_StartAndStopAreNoOps(t *testing.T) {
	store, svc := newSweeperFixture(t)
	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, ledger.User{ID: "user-a", OpeningBalance: decimal.Zero}))

	rs := NewRolloverSweeper(store, svc)
	rs.Enabled = false
	rs.Clock = ledger.FixedClock{Day: ledger.MustDate("2025-03-15")}
	rs.Start()
	rs.Stop()

	_, err := svc.GetDaySummary(ctx, "user-a", ledger.MustDate("2025-03-15"))
	assert.True(t, ledger.IsNotFound(err), "disabled sweeper must not sweep")
}
