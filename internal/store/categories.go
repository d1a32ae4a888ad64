package store

import (
	"context"
	"sync"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

// Categories is the observable category collection. Default categories
// (nil UserID) are shared system entries: they cannot be deleted, and an
// edit by an authenticated user converts them to user-owned copies.
type Categories struct {
	observable
	mu    sync.Mutex
	local *storage.Store
	items []core.Category
}

// CategoryPatch is a partial update; nil fields are left unchanged.
// UserID is applied only when SetUserID is true, so a patch can tell
// "leave ownership alone" apart from "set it, possibly to nil".
type CategoryPatch struct {
	Name         *string
	Icon         *string
	Color        *string
	ParentID     *string
	Budget       *core.Money
	ClearBudget  bool
	BudgetPeriod *core.Period
	UserID       *string
	SetUserID    bool
}

func NewCategories(local *storage.Store) *Categories {
	return &Categories{local: local}
}

// reset installs the loaded collection, falling back to the seed set when
// the stored one is empty.
func (s *Categories) reset(items []core.Category) {
	if len(items) == 0 {
		items = core.SeedCategories()
	}
	s.mu.Lock()
	s.items = append([]core.Category(nil), items...)
	s.mu.Unlock()
	s.changed()
}

// All returns a copy of the collection.
func (s *Categories) All() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.items...)
}

func (s *Categories) Get(id string) (core.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.items {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// Add appends the category, assigning an ID and creation time when missing.
func (s *Categories) Add(ctx context.Context, c core.Category) core.Category {
	if c.ID == "" {
		c.ID = core.GenerateID("cat")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.items = append(s.items, c)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
	return c
}

// Update applies the patch to the category with the given ID. When a
// default category is edited by an authenticated user and the patch does
// not set ownership itself, the category becomes owned by that user.
func (s *Categories) Update(ctx context.Context, id, userID string, patch CategoryPatch) (core.Category, bool) {
	s.mu.Lock()
	idx := -1
	for i, c := range s.items {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.Category{}, false
	}

	c := &s.items[idx]
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if patch.ParentID != nil {
		c.ParentID = *patch.ParentID
	}
	if patch.ClearBudget {
		c.Budget = nil
		c.BudgetPeriod = ""
	} else if patch.Budget != nil {
		b := *patch.Budget
		c.Budget = &b
	}
	if patch.BudgetPeriod != nil {
		c.BudgetPeriod = *patch.BudgetPeriod
	}
	switch {
	case patch.SetUserID:
		c.UserID = patch.UserID
	case c.IsDefault() && userID != "":
		owner := userID
		c.UserID = &owner
	}
	updated := *c

	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
	return updated, true
}

// Delete removes the category with the given ID. Default categories are
// protected: the call returns false and the collection is untouched.
func (s *Categories) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	idx := -1
	for i, c := range s.items {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || s.items[idx].IsDefault() {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
	return true
}

// Replace swaps the whole collection, used when a merged remote snapshot
// wins.
func (s *Categories) Replace(ctx context.Context, items []core.Category) {
	s.mu.Lock()
	s.items = append([]core.Category(nil), items...)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.changed()
}

func (s *Categories) persistLocked(ctx context.Context) {
	s.local.SaveCategories(ctx, append([]core.Category(nil), s.items...))
}
