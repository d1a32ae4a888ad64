package store

import (
	"context"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

// Expenses is the observable expense collection.
type Expenses struct {
	observable
	mu    sync.Mutex
	local *storage.Store
	items []core.Expense
}

// ExpensePatch is a partial update; nil fields are left unchanged. A
// non-nil Tags slice replaces the existing tags, empty clears them.
type ExpensePatch struct {
	Amount      *core.Money
	Description *string
	CategoryID  *string
	Date        *core.Date
	Merchant    *string
	Payment     *core.PaymentMethod
	Notes       *string
	Tags        []string
}

func NewExpenses(local *storage.Store) *Expenses {
	return &Expenses{local: local}
}

func (s *Expenses) reset(items []core.Expense) {
	s.mu.Lock()
	s.items = append([]core.Expense(nil), items...)
	s.mu.Unlock()
	s.changed()
}

// All returns a copy of the collection.
func (s *Expenses) All() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...)
}

func (s *Expenses) Get(id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// Add appends the expense, assigning an ID and timestamps when missing,
// and persists the collection. Tags are normalized to trimmed lowercase.
func (s *Expenses) Add(ctx context.Context, e core.Expense) core.Expense {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = core.GenerateID("exp")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.Tags = core.NormalizeTags(e.Tags)

	s.mu.Lock()
	s.items = append(s.items, e)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
	return e
}

// Update applies the patch to the expense with the given ID. Returns false
// when no such expense exists.
func (s *Expenses) Update(ctx context.Context, id string, patch ExpensePatch) (core.Expense, bool) {
	s.mu.Lock()
	idx := -1
	for i, e := range s.items {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.Expense{}, false
	}

	e := &s.items[idx]
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		e.CategoryID = *patch.CategoryID
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Merchant != nil {
		e.Merchant = *patch.Merchant
	}
	if patch.Payment != nil {
		e.Payment = *patch.Payment
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}
	if patch.Tags != nil {
		e.Tags = core.NormalizeTags(patch.Tags)
	}
	e.UpdatedAt = time.Now().UTC()
	updated := *e

	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
	return updated, true
}

// Delete removes the expense with the given ID. Returns false when no such
// expense exists, leaving the collection untouched.
func (s *Expenses) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	idx := -1
	for i, e := range s.items {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
	return true
}

// Replace swaps the whole collection, used when a remote snapshot wins.
func (s *Expenses) Replace(ctx context.Context, items []core.Expense) {
	s.mu.Lock()
	s.items = append([]core.Expense(nil), items...)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
}

func (s *Expenses) persistLocked(ctx context.Context) {
	s.local.SaveExpenses(ctx, append([]core.Expense(nil), s.items...))
}
