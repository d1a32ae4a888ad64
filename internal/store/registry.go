package store

import (
	"context"

	"tally/internal/core"
	"tally/internal/storage"
)

// Registry bundles the four collection stores over one local store. It is
// passed explicitly to the layers that need it; there are no package-level
// singletons.
type Registry struct {
	Expenses    *Expenses
	Categories  *Categories
	Budgets     *Budgets
	Preferences *Preferences

	local *storage.Store
}

func NewRegistry(local *storage.Store) *Registry {
	return &Registry{
		Expenses:    NewExpenses(local),
		Categories:  NewCategories(local),
		Budgets:     NewBudgets(local),
		Preferences: NewPreferences(local),
		local:       local,
	}
}

// Init loads the persisted document once and distributes it to the stores.
// Calling it again re-reads from disk and replaces the in-memory state.
func (r *Registry) Init(ctx context.Context) {
	data := r.local.Load(ctx)
	r.Expenses.reset(data.Expenses)
	r.Categories.reset(data.Categories)
	r.Budgets.reset(data.Budgets)
	r.Preferences.reset(data.Preferences)
}

// Snapshot assembles the current in-memory state as a storage document.
func (r *Registry) Snapshot() core.StorageData {
	return core.StorageData{
		Expenses:    r.Expenses.All(),
		Categories:  r.Categories.All(),
		Budgets:     r.Budgets.All(),
		Preferences: r.Preferences.Get(),
		Version:     core.StorageVersion,
	}
}

// Import replaces the full state with an imported document and persists it.
func (r *Registry) Import(ctx context.Context, data core.StorageData) {
	r.Expenses.Replace(ctx, data.Expenses)
	categories := data.Categories
	if len(categories) == 0 {
		categories = core.SeedCategories()
	}
	r.Categories.Replace(ctx, categories)
	r.Budgets.Replace(ctx, data.Budgets)
	r.Preferences.Replace(ctx, data.Preferences)
}
