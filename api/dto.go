/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ENCODING:
  Dates travel as 2006-01-02 strings, months as 2006-01, and amounts as
  decimal strings so clients never see float artifacts on money.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/savings-engine/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// EntryRequest is the request body for creating or updating an entry.
type EntryRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Amount      string  `json:"amount"`
	Kind        string  `json:"kind"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	Recurrence  string  `json:"recurrence"`
}

// UserRequest registers a user's opening balance.
type UserRequest struct {
	ID             string `json:"id"`
	OpeningBalance string `json:"opening_balance"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EntryDTO represents a ledger entry in API responses.
type EntryDTO struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"group_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Amount      string  `json:"amount"`
	Kind        string  `json:"kind"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	Recurrence  string  `json:"recurrence"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// DaySummaryDTO represents one day's derived totals.
type DaySummaryDTO struct {
	Date      string `json:"date"`
	Income    string `json:"income"`
	Expenses  string `json:"expenses"`
	Savings   string `json:"savings"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// SavingsDTO carries the current running savings.
type SavingsDTO struct {
	Savings string `json:"savings"`
}

// ConfirmationDTO acknowledges a write without a body to return.
type ConfirmationDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEntryDTO(e ledger.Entry) EntryDTO {
	dto := EntryDTO{
		ID:          string(e.ID),
		GroupID:     string(e.GroupID),
		Name:        e.Name,
		Description: e.Description,
		Category:    e.Category,
		Amount:      e.Amount.String(),
		Kind:        string(e.Kind),
		StartDate:   e.StartDate.String(),
		Recurrence:  string(e.Recurrence),
	}
	if e.EndDate != nil {
		s := e.EndDate.String()
		dto.EndDate = &s
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toSummaryDTO(s ledger.DaySummary) DaySummaryDTO {
	dto := DaySummaryDTO{
		Date:     s.Date.String(),
		Income:   s.Income.String(),
		Expenses: s.Expenses.String(),
		Savings:  s.Savings.String(),
	}
	if !s.UpdatedAt.IsZero() {
		dto.UpdatedAt = s.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}
