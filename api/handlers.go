/*
handlers.go - HTTP API handlers for the savings engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates to the ledger service.

ENDPOINTS:
  Entries:
    POST   /api/entries             Save an entry (expands recurrences)
    GET    /api/entries             List entries (paged, ?kind= filter)
    GET    /api/entries/month/{yearMonth}  Entries dated within the month
    GET    /api/entries/day/{date}         Entries dated on the day
    GET    /api/entries/{id}        Get one entry
    PUT    /api/entries/{id}        Edit one entry (no re-expansion)
    DELETE /api/entries/{id}        Delete (?family=true for whole family)

  Summaries:
    GET    /api/summary/month/{yearMonth}  One row per day of the month
    GET    /api/summary/day/{date}         One day's row
    GET    /api/savings                    Current running savings

  Users:
    POST   /api/users               Register a user's opening balance

IDENTITY:
  The requesting user comes from the X-User-ID header. Authentication is
  out of scope here; a gateway in front of this service owns it.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Entry/summary/user not found (or not owned by the caller)
  - 409: Duplicate entry (same name and kind)
  - 500: Internal errors, including unknown recurrences reaching the engine

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/savings-engine/ledger"
	"github.com/warp/savings-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *ledger.Service
	Store   *sqlite.Store
}

// NewHandler creates a new handler.
func NewHandler(service *ledger.Service, store *sqlite.Store) *Handler {
	return &Handler{Service: service, Store: store}
}

const userHeader = "X-User-ID"

func requestUser(r *http.Request) (ledger.UserID, bool) {
	id := r.Header.Get(userHeader)
	return ledger.UserID(id), id != ""
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// CreateUser registers a user and their opening balance.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "User id is required", nil)
		return
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid opening balance", err)
			return
		}
	}

	user := ledger.User{ID: ledger.UserID(req.ID), OpeningBalance: opening}
	if err := h.Store.SaveUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", err)
		return
	}
	writeJSON(w, http.StatusCreated, ConfirmationDTO{Success: true, Message: "User saved"})
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// SaveEntry creates an entry, expanding recurrences into sibling rows.
func (h *Handler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	req, err := h.parseEntryRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry request", err)
		return
	}

	entry, err := h.Service.SaveEntry(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// GetEntry returns one entry owned by the requesting user.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	id := ledger.EntryID(chi.URLParam(r, "id"))
	entry, err := h.Service.GetEntry(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// ListEntries returns a page of entries, optionally filtered by kind.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	var kind ledger.EntryKind
	if k := r.URL.Query().Get("kind"); k != "" {
		parsed, err := ledger.ParseEntryKind(k)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid kind filter", err)
			return
		}
		kind = parsed
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.Service.ListEntries(r.Context(), userID, kind, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMonthEntries returns every entry dated within the month. Calendar
// views fetch this per rendered month.
func (h *Handler) GetMonthEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	ym, err := ledger.ParseYearMonth(chi.URLParam(r, "yearMonth"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM", err)
		return
	}

	entries, err := h.Service.ListEntriesForMonth(r.Context(), userID, ym)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDayEntries returns every entry dated on the given day.
func (h *Handler) GetDayEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	date, err := ledger.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	entries, err := h.Service.ListEntriesForDay(r.Context(), userID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateEntry edits one entry in place and repairs the affected summaries.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	req, err := h.parseEntryRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry request", err)
		return
	}

	id := ledger.EntryID(chi.URLParam(r, "id"))
	entry, err := h.Service.UpdateEntry(r.Context(), userID, id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// DeleteEntry removes one entry, or the whole family from that entry's
// date onward when ?family=true.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	id := ledger.EntryID(chi.URLParam(r, "id"))
	wholeFamily := r.URL.Query().Get("family") == "true"

	if err := h.Service.DeleteEntry(r.Context(), userID, id, wholeFamily); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfirmationDTO{Success: true, Message: "Entry deleted"})
}

// =============================================================================
// SUMMARY HANDLERS
// =============================================================================

// GetMonthSummary returns one summary row per day of the month, recomputing
// the month first.
func (h *Handler) GetMonthSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	ym, err := ledger.ParseYearMonth(chi.URLParam(r, "yearMonth"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM", err)
		return
	}

	rows, err := h.Service.GetMonthSummary(r.Context(), userID, ym)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]DaySummaryDTO, len(rows))
	for i, s := range rows {
		dtos[i] = toSummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDaySummary returns one day's row.
func (h *Handler) GetDaySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	date, err := ledger.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	row, err := h.Service.GetDaySummary(r.Context(), userID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(row))
}

// GetSavings returns the current running savings for the requesting user.
func (h *Handler) GetSavings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing "+userHeader+" header", nil)
		return
	}

	savings, err := h.Service.GetSavings(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SavingsDTO{Savings: savings.String()})
}

// =============================================================================
// PARSING AND ERROR MAPPING
// =============================================================================

func (h *Handler) parseEntryRequest(r *http.Request) (ledger.EntryRequest, error) {
	var body EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ledger.EntryRequest{}, err
	}

	kind, err := ledger.ParseEntryKind(body.Kind)
	if err != nil {
		return ledger.EntryRequest{}, err
	}
	recurrence, err := ledger.ParseRecurrence(body.Recurrence)
	if err != nil {
		return ledger.EntryRequest{}, err
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return ledger.EntryRequest{}, &ledger.ValidationError{Field: "amount", Message: "invalid amount: " + body.Amount}
	}
	start, err := ledger.ParseDate(body.StartDate)
	if err != nil {
		return ledger.EntryRequest{}, &ledger.ValidationError{Field: "start_date", Message: err.Error()}
	}

	var end *ledger.Date
	if body.EndDate != nil && *body.EndDate != "" {
		d, err := ledger.ParseDate(*body.EndDate)
		if err != nil {
			return ledger.EntryRequest{}, &ledger.ValidationError{Field: "end_date", Message: err.Error()}
		}
		end = &d
	}

	return ledger.EntryRequest{
		Name:        body.Name,
		Description: body.Description,
		Category:    body.Category,
		Amount:      amount,
		Kind:        kind,
		StartDate:   start,
		EndDate:     end,
		Recurrence:  recurrence,
	}, nil
}

// writeServiceError maps engine errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case ledger.IsDuplicate(err):
		writeError(w, http.StatusConflict, "Duplicate entry", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
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
