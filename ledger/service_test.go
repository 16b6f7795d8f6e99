package ledger_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/savings-engine/ledger"
	"github.com/warp/savings-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newServiceFixture(t *testing.T) (*ledger.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.PutUser(ledger.User{ID: testUser, OpeningBalance: decimal.Zero})

	var seq int
	svc := ledger.NewService(mem,
		ledger.WithClock(ledger.FixedClock{Day: ledger.MustDate("2025-03-15")}),
		ledger.WithIDGenerator(func() ledger.GroupID {
			seq++
			return ledger.GroupID(fmt.Sprintf("grp-%d", seq))
		}),
	)
	return svc, mem
}

func singleExpense(name, date, amount string) ledger.EntryRequest {
	return ledger.EntryRequest{
		Name:       name,
		Amount:     dec(amount),
		Kind:       ledger.KindExpense,
		StartDate:  ledger.MustDate(date),
		Recurrence: ledger.RecurSingle,
	}
}

func daySavings(t *testing.T, mem *store.Memory, date string) decimal.Decimal {
	t.Helper()
	row, err := mem.FindSummary(context.Background(), testUser, ledger.MustDate(date))
	require.NoError(t, err)
	return row.Savings
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveEntry_SingleExpense_UpdatesDaySummary(t *testing.T) {
	// GIVEN: A single expense of 50 on 2025-03-10
	// WHEN: Saving it
	// THEN: That day's summary shows expenses=50 and the following day
	//       carries the savings forward unchanged

	svc, mem := newServiceFixture(t)
	ctx := context.Background()

	entry, err := svc.SaveEntry(ctx, testUser, singleExpense("Groceries", "2025-03-10", "50"))
	require.NoError(t, err)
	assert.Equal(t, ledger.RecurSingle, entry.Recurrence)
	require.NotNil(t, entry.EndDate)
	assert.True(t, entry.EndDate.Equal(entry.StartDate))

	row, err := mem.FindSummary(ctx, testUser, ledger.MustDate("2025-03-10"))
	require.NoError(t, err)
	assert.True(t, row.Expenses.Equal(dec("50")))
	assert.True(t, row.Savings.Equal(dec("-50")))

	assert.True(t, daySavings(t, mem, "2025-03-11").Equal(dec("-50")),
		"next day carries savings forward unchanged")
}

func TestSaveEntry_MonthlyIncome_MaterializesSiblingsAndRecomputesEachMonth(t *testing.T) {
	// GIVEN: Monthly income of 1000 from 2025-01-01 until 2025-04-01
	// WHEN: Saving it
	// THEN: Three sibling rows exist (Jan-Mar) sharing one group, and each
	//       month's summaries reflect the cumulative chain

	svc, mem := newServiceFixture(t)
	ctx := context.Background()

	end := ledger.MustDate("2025-04-01")
	_, err := svc.SaveEntry(ctx, testUser, ledger.EntryRequest{
		Name:       "Salary",
		Amount:     dec("1000"),
		Kind:       ledger.KindIncome,
		StartDate:  ledger.MustDate("2025-01-01"),
		EndDate:    &end,
		Recurrence: ledger.RecurMonthly,
	})
	require.NoError(t, err)

	siblings, err := mem.FindEntriesInRange(ctx, testUser, ledger.MustDate("2025-01-01"), ledger.MustDate("2025-12-31"))
	require.NoError(t, err)
	require.Len(t, siblings, 3)
	for _, s := range siblings {
		assert.Equal(t, siblings[0].GroupID, s.GroupID)
		assert.Equal(t, "Salary", s.Name)
		require.NotNil(t, s.EndDate)
		assert.True(t, s.EndDate.Equal(end), "siblings keep the family end date")
	}

	assert.True(t, daySavings(t, mem, "2025-01-31").Equal(dec("1000")))
	assert.True(t, daySavings(t, mem, "2025-02-28").Equal(dec("2000")))
	assert.True(t, daySavings(t, mem, "2025-03-31").Equal(dec("3000")))
}

func TestSaveEntry_DuplicateNameAndKind_Rejected(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	_, err := svc.SaveEntry(ctx, testUser, singleExpense("Rent", "2025-03-01", "900"))
	require.NoError(t, err)

	_, err = svc.SaveEntry(ctx, testUser, singleExpense("Rent", "2025-04-01", "950"))
	require.Error(t, err)
	assert.True(t, ledger.IsDuplicate(err))

	// Same name with the other kind is a different identity.
	_, err = svc.SaveEntry(ctx, testUser, ledger.EntryRequest{
		Name:       "Rent",
		Amount:     dec("900"),
		Kind:       ledger.KindIncome,
		StartDate:  ledger.MustDate("2025-03-01"),
		Recurrence: ledger.RecurSingle,
	})
	assert.NoError(t, err)
}

func TestSaveEntry_Validation(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  ledger.EntryRequest
	}{
		{"missing name", ledger.EntryRequest{
			Amount: dec("10"), Kind: ledger.KindExpense,
			StartDate: ledger.MustDate("2025-03-01"), Recurrence: ledger.RecurSingle,
		}},
		{"zero amount", ledger.EntryRequest{
			Name: "x", Amount: decimal.Zero, Kind: ledger.KindExpense,
			StartDate: ledger.MustDate("2025-03-01"), Recurrence: ledger.RecurSingle,
		}},
		{"negative amount", ledger.EntryRequest{
			Name: "x", Amount: dec("-5"), Kind: ledger.KindExpense,
			StartDate: ledger.MustDate("2025-03-01"), Recurrence: ledger.RecurSingle,
		}},
		{"missing start date", ledger.EntryRequest{
			Name: "x", Amount: dec("10"), Kind: ledger.KindExpense,
			Recurrence: ledger.RecurSingle,
		}},
		{"missing recurrence", ledger.EntryRequest{
			Name: "x", Amount: dec("10"), Kind: ledger.KindExpense,
			StartDate: ledger.MustDate("2025-03-01"),
		}},
		{"single with mismatched end date", func() ledger.EntryRequest {
			end := ledger.MustDate("2025-03-05")
			return ledger.EntryRequest{
				Name: "x", Amount: dec("10"), Kind: ledger.KindExpense,
				StartDate: ledger.MustDate("2025-03-01"), EndDate: &end,
				Recurrence: ledger.RecurSingle,
			}
		}()},
		{"recurring with end before start", func() ledger.EntryRequest {
			end := ledger.MustDate("2025-02-01")
			return ledger.EntryRequest{
				Name: "x", Amount: dec("10"), Kind: ledger.KindExpense,
				StartDate: ledger.MustDate("2025-03-01"), EndDate: &end,
				Recurrence: ledger.RecurMonthly,
			}
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SaveEntry(ctx, testUser, tc.req)
			require.Error(t, err)
			assert.True(t, ledger.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestSaveEntry_UnknownUser_Rejected(t *testing.T) {
	svc, _ := newServiceFixture(t)

	_, err := svc.SaveEntry(context.Background(), "ghost", singleExpense("x", "2025-03-01", "10"))
	require.Error(t, err)
	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// UPDATE
// =============================================================================

func TestUpdateEntry_AmountChange_RepairsDay(t *testing.T) {
	// Scenario: amount edited from 50 to 75 on the same day.
	svc, mem := newServiceFixture(t)
	ctx := context.Background()

	entry, err := svc.SaveEntry(ctx, testUser, singleExpense("Groceries", "2025-03-10", "50"))
	require.NoError(t, err)

	req := singleExpense("Groceries", "2025-03-10", "75")
	_, err = svc.UpdateEntry(ctx, testUser, entry.ID, req)
	require.NoError(t, err)

	row, err := mem.FindSummary(ctx, testUser, ledger.MustDate("2025-03-10"))
	require.NoError(t, err)
	assert.True(t, row.Expenses.Equal(dec("75")))
	assert.True(t, row.Savings.Equal(dec("-75")))
}

func TestUpdateEntry_DateChange_RepairsBothDays(t *testing.T) {
	// GIVEN: An expense on 2025-03-10
	// WHEN: Moving it to 2025-04-02
	// THEN: The old day is zeroed out and the new day carries the movement

	svc, mem := newServiceFixture(t)
	ctx := context.Background()

	entry, err := svc.SaveEntry(ctx, testUser, singleExpense("Groceries", "2025-03-10", "50"))
	require.NoError(t, err)

	_, err = svc.UpdateEntry(ctx, testUser, entry.ID, singleExpense("Groceries", "2025-04-02", "50"))
	require.NoError(t, err)

	oldDay, err := mem.FindSummary(ctx, testUser, ledger.MustDate("2025-03-10"))
	require.NoError(t, err)
	assert.True(t, oldDay.Expenses.IsZero(), "stale contribution zeroed out")
	assert.True(t, oldDay.Savings.IsZero())

	newDay, err := mem.FindSummary(ctx, testUser, ledger.MustDate("2025-04-02"))
	require.NoError(t, err)
	assert.True(t, newDay.Expenses.Equal(dec("50")))
	assert.True(t, newDay.Savings.Equal(dec("-50")))
}

func TestUpdateEntry_DoesNotReexpand(t *testing.T) {
	// Editing one sibling of a recurring family must not create or touch
	// other rows.

	svc, mem := newServiceFixture(t)
	ctx := context.Background()

	end := ledger.MustDate("2025-04-01")
	first, err := svc.SaveEntry(ctx, testUser, ledger.EntryRequest{
		Name:       "Salary",
		Amount:     dec("1000"),
		Kind:       ledger.KindIncome,
		StartDate:  ledger.MustDate("2025-01-01"),
		EndDate:    &end,
		Recurrence: ledger.RecurMonthly,
	})
	require.NoError(t, err)

	req := ledger.EntryRequest{
		Name:       "Salary",
		Amount:     dec("1100"),
		Kind:       ledger.KindIncome,
		StartDate:  first.StartDate,
		EndDate:    first.EndDate,
		Recurrence: first.Recurrence,
	}
	_, err = svc.UpdateEntry(ctx, testUser, first.ID, req)
	require.NoError(t, err)

	siblings, err := mem.FindEntriesInRange(ctx, testUser, ledger.MustDate("2025-01-01"), ledger.MustDate("2025-12-31"))
	require.NoError(t, err)
	require.Len(t, siblings, 3, "edit must not materialize new rows")
	assert.True(t, siblings[0].Amount.Equal(dec("1100")))
	assert.True(t, siblings[1].Amount.Equal(dec("1000")), "other siblings untouched")
}

func TestUpdateEntry_NotFound(t *testing.T) {
	svc, _ := newServiceFixture(t)

	_, err := svc.UpdateEntry(context.Background(), testUser, "missing", singleExpense("x", "2025-03-01", "10"))
	require.Error(t, err)
	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteEntry_SingleSibling_LeavesRestOfFamily(t *testing.T) {
	// Deleting one recurring family member only repairs that date; the
	// rest of the family keeps contributing.

	svc, mem := newServiceFixture(t)
	ctx := context.Background()

	end := ledger.MustDate("2025-04-01")
	_, err := svc.SaveEntry(ctx, testUser, ledger.EntryRequest{
		Name:       "Salary",
		Amount:     dec("1000"),
		Kind:       ledger.KindIncome,
		StartDate:  ledger.MustDate("2025-01-01"),
		EndDate:    &end,
		Recurrence: ledger.RecurMonthly,
	})
	require.NoError(t, err)

	siblings, err := mem.FindEntriesInRange(ctx, testUser, ledger.MustDate("2025-01-01"), ledger.MustDate("2025-12-31"))
	require.NoError(t, err)
	require.Len(t, siblings, 3)

	// Remove only February's occurrence.
	require.NoError(t, svc.DeleteEntry(ctx, testUser, siblings[1].ID, false))

	remaining, err := mem.FindEntriesInRange(ctx, testUser, ledger.MustDate("2025-01-01"), ledger.MustDate("2025-12-31"))
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	assert.True(t, daySavings(t, mem, "2025-02-01").Equal(dec("1000")), "February no longer adds income")
	// March was not an affected month of the February row, so its stored
	// chain still reflects the old February until something touches it.
	assert.True(t, daySavings(t, mem, "2025-01-31").Equal(dec("1000")))
}

func TestDeleteEntry_WholeFamily_RemovesFromDateOnward(t *testing.T) {
	svc, mem := newServiceFixture(t)
	ctx := context.Background()

	end := ledger.MustDate("2025-04-01")
	_, err := svc.SaveEntry(ctx, testUser, ledger.EntryRequest{
		Name:       "Salary",
		Amount:     dec("1000"),
		Kind:       ledger.KindIncome,
		StartDate:  ledger.MustDate("2025-01-01"),
		EndDate:    &end,
		Recurrence: ledger.RecurMonthly,
	})
	require.NoError(t, err)

	siblings, err := mem.FindEntriesInRange(ctx, testUser, ledger.MustDate("2025-01-01"), ledger.MustDate("2025-12-31"))
	require.NoError(t, err)
	require.Len(t, siblings, 3)

	// Family delete anchored at February removes February and March but
	// keeps January.
	require.NoError(t, svc.DeleteEntry(ctx, testUser, siblings[1].ID, true))

	remaining, err := mem.FindEntriesInRange(ctx, testUser, ledger.MustDate("2025-01-01"), ledger.MustDate("2025-12-31"))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, ledger.MustDate("2025-01-01"), remaining[0].StartDate)

	assert.True(t, daySavings(t, mem, "2025-02-28").Equal(dec("1000")))
	assert.True(t, daySavings(t, mem, "2025-03-31").Equal(dec("1000")))
}

func TestDeleteEntry_FamilyDeleteDoesNotTouchUnrelatedSameName(t *testing.T) {
	// Group-scoped deletion must leave an unrelated entry that merely
	// shares the name alone.

	svc, mem := newServiceFixture(t)
	ctx := context.Background()

	end := ledger.MustDate("2025-03-01")
	recurring, err := svc.SaveEntry(ctx, testUser, ledger.EntryRequest{
		Name:       "Gym",
		Amount:     dec("30"),
		Kind:       ledger.KindExpense,
		StartDate:  ledger.MustDate("2025-01-05"),
		EndDate:    &end,
		Recurrence: ledger.RecurMonthly,
	})
	require.NoError(t, err)

	unrelated, err := svc.SaveEntry(ctx, testUser, ledger.EntryRequest{
		Name:       "Gym",
		Amount:     dec("30"),
		Kind:       ledger.KindIncome, // refund, different kind
		StartDate:  ledger.MustDate("2025-01-20"),
		Recurrence: ledger.RecurSingle,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, testUser, recurring.ID, true))

	_, err = mem.FindEntry(ctx, unrelated.ID, testUser)
	assert.NoError(t, err, "unrelated same-name entry survives the family delete")
}

// =============================================================================
// SUMMARY READS
// =============================================================================

func TestGetMonthSummary_RecomputesAndReturnsFullMonth(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	_, err := svc.SaveEntry(ctx, testUser, singleExpense("Groceries", "2025-03-10", "50"))
	require.NoError(t, err)

	rows, err := svc.GetMonthSummary(ctx, testUser, ledger.YearMonth{Year: 2025, Month: 3})
	require.NoError(t, err)
	require.Len(t, rows, 31)
	assert.True(t, rows[9].Expenses.Equal(dec("50")))
}

func TestGetDaySummary_MissingDay_NotFound(t *testing.T) {
	svc, _ := newServiceFixture(t)

	_, err := svc.GetDaySummary(context.Background(), testUser, ledger.MustDate("2030-01-01"))
	require.Error(t, err)
	assert.True(t, ledger.IsNotFound(err))
}

func TestGetSavings_FallsBackToOpeningBalance(t *testing.T) {
	mem := store.NewMemory()
	mem.PutUser(ledger.User{ID: testUser, OpeningBalance: dec("250")})
	svc := ledger.NewService(mem, ledger.WithClock(ledger.FixedClock{Day: ledger.MustDate("2025-03-15")}))

	savings, err := svc.GetSavings(context.Background(), testUser)
	require.NoError(t, err)
	assert.True(t, savings.Equal(dec("250")))
}

func TestGetSavings_UsesLatestSummary(t *testing.T) {
	svc, _ := newServiceFixture(t)
	ctx := context.Background()

	_, err := svc.SaveEntry(ctx, testUser, singleExpense("Groceries", "2025-03-10", "50"))
	require.NoError(t, err)

	savings, err := svc.GetSavings(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, savings.Equal(dec("-50")))
}

func TestGetSavings_SummaryOlderThanAYear(t *testing.T) {
	mem := store.NewMemory()
	mem.PutUser(ledger.User{ID: testUser, OpeningBalance: dec("250")})
	svc := ledger.NewService(mem, ledger.WithClock(ledger.FixedClock{Day: ledger.MustDate("2025-03-15")}))
	ctx := context.Background()

	// The user's only recorded activity is nearly three years old.
	_, err := svc.SaveEntry(ctx, testUser, singleExpense("Laptop", "2022-05-10", "50"))
	require.NoError(t, err)

	savings, err := svc.GetSavings(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, savings.Equal(dec("200")),
		"resumes from the last known savings, not the opening balance")
}
