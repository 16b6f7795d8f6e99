// Package store provides in-memory implementations of the ledger store
// interfaces, for tests and development.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/savings-engine/ledger"
)

// =============================================================================
// MEMORY - In-memory EntryStore + SummaryStore + UserStore + TxStore
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	entries   map[ledger.EntryID]ledger.Entry
	summaries map[summaryKey]ledger.DaySummary
	users     map[ledger.UserID]ledger.User
	nextID    int
}

type summaryKey struct {
	UserID ledger.UserID
	Date   ledger.Date
}

func NewMemory() *Memory {
	return &Memory{
		entries:   make(map[ledger.EntryID]ledger.Entry),
		summaries: make(map[summaryKey]ledger.DaySummary),
		users:     make(map[ledger.UserID]ledger.User),
	}
}

// PutUser registers a user. Tests seed users through this; lookups for
// unregistered users fail with ErrUserNotFound.
func (m *Memory) PutUser(u ledger.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// =============================================================================
// TX STORE
// =============================================================================

// WithTx runs fn directly. The memory store has no rollback; it exists for
// engine tests where every step is expected to succeed or the test fails.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Stores) error) error {
	return fn(ledger.Stores{Entries: m, Summaries: m, Users: m})
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (m *Memory) SaveEntry(_ context.Context, e ledger.Entry) (ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	e.ID = ledger.EntryID(fmt.Sprintf("ent-%d", m.nextID))
	m.entries[e.ID] = e
	return e, nil
}

func (m *Memory) FindEntry(_ context.Context, id ledger.EntryID, userID ledger.UserID) (ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return ledger.Entry{}, &ledger.NotFoundError{ID: id, UserID: userID}
	}
	return e, nil
}

func (m *Memory) FindEntriesByDate(_ context.Context, userID ledger.UserID, date ledger.Date) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Entry
	for _, e := range m.entries {
		if e.UserID == userID && e.StartDate.Equal(date) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *Memory) FindEntriesInRange(_ context.Context, userID ledger.UserID, from, to ledger.Date) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.Entry
	for _, e := range m.entries {
		if e.UserID == userID && e.StartDate.AfterOrEqual(from) && e.StartDate.BeforeOrEqual(to) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *Memory) ListEntries(_ context.Context, userID ledger.UserID, kind ledger.EntryKind, limit, offset int) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []ledger.Entry
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		all = append(all, e)
	}
	sortEntries(all)

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *Memory) EntryExists(_ context.Context, userID ledger.UserID, name string, kind ledger.EntryKind) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.UserID == userID && e.Name == name && e.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) UpdateEntry(_ context.Context, e ledger.Entry) (ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.entries[e.ID]
	if !ok || existing.UserID != e.UserID {
		return ledger.Entry{}, &ledger.NotFoundError{ID: e.ID, UserID: e.UserID}
	}
	m.entries[e.ID] = e
	return e, nil
}

func (m *Memory) DeleteEntry(_ context.Context, id ledger.EntryID, userID ledger.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || e.UserID != userID {
		return &ledger.NotFoundError{ID: id, UserID: userID}
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) DeleteGroupOnOrAfter(_ context.Context, userID ledger.UserID, groupID ledger.GroupID, onOrAfter ledger.Date) ([]ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []ledger.Entry
	for id, e := range m.entries {
		if e.UserID == userID && e.GroupID == groupID && e.StartDate.AfterOrEqual(onOrAfter) {
			removed = append(removed, e)
			delete(m.entries, id)
		}
	}
	sortEntries(removed)
	return removed, nil
}

func sortEntries(entries []ledger.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].StartDate.Equal(entries[j].StartDate) {
			return entries[i].StartDate.Before(entries[j].StartDate)
		}
		return entries[i].ID < entries[j].ID
	})
}

// =============================================================================
// SUMMARY STORE
// =============================================================================

func (m *Memory) FindSummary(_ context.Context, userID ledger.UserID, date ledger.Date) (ledger.DaySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.summaries[summaryKey{UserID: userID, Date: date}]
	if !ok {
		return ledger.DaySummary{}, ledger.ErrSummaryNotFound
	}
	return s, nil
}

func (m *Memory) FindSummariesInRange(_ context.Context, userID ledger.UserID, from, to ledger.Date) ([]ledger.DaySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ledger.DaySummary
	for k, s := range m.summaries {
		if k.UserID == userID && k.Date.AfterOrEqual(from) && k.Date.BeforeOrEqual(to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) FindLatestSummaryOnOrBefore(_ context.Context, userID ledger.UserID, date ledger.Date) (ledger.DaySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest ledger.DaySummary
	found := false
	for k, s := range m.summaries {
		if k.UserID != userID || !k.Date.BeforeOrEqual(date) {
			continue
		}
		if !found || k.Date.After(latest.Date) {
			latest = s
			found = true
		}
	}
	if !found {
		return ledger.DaySummary{}, ledger.ErrSummaryNotFound
	}
	return latest, nil
}

func (m *Memory) SaveSummary(_ context.Context, s ledger.DaySummary) (ledger.DaySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := summaryKey{UserID: s.UserID, Date: s.Date}
	if existing, ok := m.summaries[k]; ok {
		s.CreatedAt = existing.CreatedAt
	}
	m.summaries[k] = s
	return s, nil
}

// =============================================================================
// USER STORE
// =============================================================================

func (m *Memory) FindUser(_ context.Context, id ledger.UserID) (ledger.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return ledger.User{}, fmt.Errorf("%w: %s", ledger.ErrUserNotFound, id)
}
