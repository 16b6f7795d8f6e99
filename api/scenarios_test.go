/*
scenarios_test.go - Demo scenario loader tests
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_List(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/scenarios", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody[[]ScenarioDTO](t, rec)
	require.Len(t, list, 3)
	for _, s := range list {
		assert.NotEmpty(t, s.ID)
		assert.NotEmpty(t, s.Description)
	}
}

func TestScenarios_LoadUnknown_400(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/scenarios/load", "",
		LoadScenarioRequest{ScenarioID: "does-not-exist"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenarios_LoadFreshStart(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/scenarios/load", "",
		LoadScenarioRequest{ScenarioID: "fresh-start"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/entries", string(DemoUserID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]EntryDTO](t, rec))

	// No entries yet, so savings is the opening balance.
	rec = doJSON(t, srv, http.MethodGet, "/api/savings", string(DemoUserID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1500", decodeBody[SavingsDTO](t, rec).Savings)
}

func TestScenarios_LoadMonthlyBudget(t *testing.T) {
	// GIVEN: A database holding unrelated data
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/entries", testUserID, groceriesRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Loading the monthly-budget scenario
	rec = doJSON(t, srv, http.MethodPost, "/api/scenarios/load", "",
		LoadScenarioRequest{ScenarioID: "monthly-budget"})
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: The demo user has materialized recurring entries and the old
	// data is gone
	rec = doJSON(t, srv, http.MethodGet, "/api/entries?kind=INCOME", string(DemoUserID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	incomes := decodeBody[[]EntryDTO](t, rec)
	assert.NotEmpty(t, incomes, "recurring salary expanded into sibling rows")
	for _, e := range incomes {
		assert.Equal(t, "Salary", e.Name)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/entries", testUserID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]EntryDTO](t, rec), "reset removed the previous data")

	rec = doJSON(t, srv, http.MethodGet, "/api/savings", testUserID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "reset removed the previous user")
}
