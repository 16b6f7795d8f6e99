/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario registers a demo user and
	saves entries through the normal write path, so recurrences expand and
	summaries recompute exactly as they would for real traffic.

AVAILABLE SCENARIOS:

	fresh-start:     A user with an opening balance and no entries
	monthly-budget:  Recurring salary plus recurring fixed costs
	irregular-month: Scattered one-off movements in the current month

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Register the demo user with an opening balance
 3. Save entries through the service (expansion + recompute included)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "monthly-budget"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - server.go: Route registration
  - ledger/service.go: The write path the loaders go through
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/savings-engine/ledger"
)

// DemoUserID is the user every scenario seeds.
const DemoUserID = ledger.UserID("demo")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-start",
		Name:        "Fresh Start",
		Description: "A user with an opening balance and no entries yet",
	},
	{
		ID:          "monthly-budget",
		Name:        "Monthly Budget",
		Description: "Recurring salary, rent and subscriptions across several months",
	},
	{
		ID:          "irregular-month",
		Name:        "Irregular Month",
		Description: "One-off expenses and income scattered over the current month",
	},
}

// LoadScenarioRequest selects which scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-start":
		err = h.loadFreshStart(ctx)
	case "monthly-budget":
		err = h.loadMonthlyBudget(ctx)
	case "irregular-month":
		err = h.loadIrregularMonth(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, ConfirmationDTO{
		Success: true,
		Message: fmt.Sprintf("Scenario %q loaded for user %q", req.ScenarioID, DemoUserID),
	})
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) registerDemoUser(ctx context.Context, opening string) error {
	balance, err := decimal.NewFromString(opening)
	if err != nil {
		return err
	}
	return h.Store.SaveUser(ctx, ledger.User{ID: DemoUserID, OpeningBalance: balance})
}

func (h *Handler) seed(ctx context.Context, reqs ...ledger.EntryRequest) error {
	for _, req := range reqs {
		if _, err := h.Service.SaveEntry(ctx, DemoUserID, req); err != nil {
			return fmt.Errorf("seeding %q: %w", req.Name, err)
		}
	}
	return nil
}

func (h *Handler) loadFreshStart(ctx context.Context) error {
	return h.registerDemoUser(ctx, "1500")
}

func (h *Handler) loadMonthlyBudget(ctx context.Context) error {
	if err := h.registerDemoUser(ctx, "800"); err != nil {
		return err
	}

	// Anchored two months back so the current month already has history
	// behind it.
	anchor := ledger.SystemClock{}.Today().StartOfMonth().AddMonths(-2)
	return h.seed(ctx,
		ledger.EntryRequest{
			Name: "Salary", Category: "work",
			Amount: dec("3200"), Kind: ledger.KindIncome,
			StartDate: anchor, Recurrence: ledger.RecurMonthly,
		},
		ledger.EntryRequest{
			Name: "Rent", Category: "housing",
			Amount: dec("1100"), Kind: ledger.KindExpense,
			StartDate: anchor.AddDays(2), Recurrence: ledger.RecurMonthly,
		},
		ledger.EntryRequest{
			Name: "Streaming", Category: "leisure",
			Amount: dec("15.99"), Kind: ledger.KindExpense,
			StartDate: anchor.AddDays(11), Recurrence: ledger.RecurMonthly,
		},
		ledger.EntryRequest{
			Name: "Gym", Category: "health",
			Amount: dec("42"), Kind: ledger.KindExpense,
			StartDate: anchor.AddDays(4), Recurrence: ledger.RecurMonthly,
		},
	)
}

func (h *Handler) loadIrregularMonth(ctx context.Context) error {
	if err := h.registerDemoUser(ctx, "600"); err != nil {
		return err
	}

	first := ledger.SystemClock{}.Today().StartOfMonth()
	return h.seed(ctx,
		ledger.EntryRequest{
			Name: "Freelance invoice", Category: "work",
			Amount: dec("950"), Kind: ledger.KindIncome,
			StartDate: first.AddDays(3), Recurrence: ledger.RecurSingle,
		},
		ledger.EntryRequest{
			Name: "Groceries", Category: "food",
			Amount: dec("86.40"), Kind: ledger.KindExpense,
			StartDate: first.AddDays(5), Recurrence: ledger.RecurSingle,
		},
		ledger.EntryRequest{
			Name: "Bike repair", Category: "transport",
			Amount: dec("134"), Kind: ledger.KindExpense,
			StartDate: first.AddDays(9), Recurrence: ledger.RecurSingle,
		},
		ledger.EntryRequest{
			Name: "Concert tickets", Category: "leisure",
			Amount: dec("72"), Kind: ledger.KindExpense,
			StartDate: first.AddDays(14), Recurrence: ledger.RecurSingle,
		},
		ledger.EntryRequest{
			Name: "Sold old laptop", Category: "other",
			Amount: dec("300"), Kind: ledger.KindIncome,
			StartDate: first.AddDays(17), Recurrence: ledger.RecurSingle,
		},
	)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
