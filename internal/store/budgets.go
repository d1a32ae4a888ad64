package store

import (
	"context"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

// Budgets is the observable budget collection.
type Budgets struct {
	observable
	mu    sync.Mutex
	local *storage.Store
	items []core.Budget
}

// BudgetPatch is a partial update; nil fields are left unchanged. Overall
// moves the budget to all-categories scope, ClearEnd makes it open-ended.
type BudgetPatch struct {
	Amount     *core.Money
	Period     *core.Period
	StartDate  *core.Date
	EndDate    *core.Date
	ClearEnd   bool
	CategoryID *string
	Overall    bool
}

func NewBudgets(local *storage.Store) *Budgets {
	return &Budgets{local: local}
}

func (s *Budgets) reset(items []core.Budget) {
	s.mu.Lock()
	s.items = append([]core.Budget(nil), items...)
	s.mu.Unlock()
	s.changed()
}

// All returns a copy of the collection.
func (s *Budgets) All() []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.items...)
}

func (s *Budgets) Get(id string) (core.Budget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.items {
		if b.ID == id {
			return b, true
		}
	}
	return core.Budget{}, false
}

// Add appends the budget, assigning an ID and timestamps when missing. A
// zero start date defaults to the beginning of the budget's period.
func (s *Budgets) Add(ctx context.Context, b core.Budget) core.Budget {
	now := time.Now().UTC()
	if b.ID == "" {
		b.ID = core.GenerateID("budget")
	}
	if b.StartDate.IsZero() {
		b.StartDate = core.DateOf(core.PeriodStart(b.Period, now))
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	s.mu.Lock()
	s.items = append(s.items, b)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
	return b
}

// Update applies the patch to the budget with the given ID. Returns false
// when no such budget exists.
func (s *Budgets) Update(ctx context.Context, id string, patch BudgetPatch) (core.Budget, bool) {
	s.mu.Lock()
	idx := -1
	for i, b := range s.items {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.Budget{}, false
	}

	b := &s.items[idx]
	if patch.Amount != nil {
		b.Amount = *patch.Amount
	}
	if patch.Period != nil {
		b.Period = *patch.Period
	}
	if patch.StartDate != nil {
		b.StartDate = *patch.StartDate
	}
	if patch.ClearEnd {
		b.EndDate = nil
	} else if patch.EndDate != nil {
		end := *patch.EndDate
		b.EndDate = &end
	}
	if patch.Overall {
		b.CategoryID = nil
	} else if patch.CategoryID != nil {
		id := *patch.CategoryID
		b.CategoryID = &id
	}
	b.UpdatedAt = time.Now().UTC()
	updated := *b

	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
	return updated, true
}

// Delete removes the budget with the given ID.
func (s *Budgets) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	idx := -1
	for i, b := range s.items {
		if b.ID == id {
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
func (s *Budgets) Replace(ctx context.Context, items []core.Budget) {
	s.mu.Lock()
	s.items = append([]core.Budget(nil), items...)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
}

func (s *Budgets) persistLocked(ctx context.Context) {
	s.local.SaveBudgets(ctx, append([]core.Budget(nil), s.items...))
}
