package store

import (
	"fmt"
	"sync"
	"time"

	"tally/internal/core"
)

// Views are memoized recomputation pipelines over the registry. Each view
// caches its last result keyed by the versions of the stores it reads (and
// the calendar day, for time-bounded views), so repeated reads between
// mutations cost nothing.
type Views struct {
	mu  sync.Mutex
	reg *Registry

	// Now is replaceable in tests.
	Now func() time.Time

	filtered memo[[]core.Expense]
	today    memo[PeriodSummary]
	week     memo[PeriodSummary]
	month    memo[PeriodSummary]
	progress memo[[]core.BudgetProgress]
	byCat    memo[[]core.CategoryStats]
}

// PeriodSummary is a time-bounded expense subset with its statistics.
type PeriodSummary struct {
	Expenses []core.Expense    `json:"expenses"`
	Stats    core.ExpenseStats `json:"stats"`
}

type memo[T any] struct {
	key string
	ok  bool
	val T
}

func (m *memo[T]) get(key string, compute func() T) T {
	if m.ok && m.key == key {
		return m.val
	}
	m.val = compute()
	m.key = key
	m.ok = true
	return m.val
}

func NewViews(reg *Registry) *Views {
	return &Views{reg: reg, Now: func() time.Time { return time.Now().UTC() }}
}

// Filtered returns the expense list narrowed by filters and sorted. The
// last result is cached, so repeating the same query against an unchanged
// store is free.
func (v *Views) Filtered(f core.ExpenseFilters, field core.SortField, dir core.SortDirection) []core.Expense {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := fmt.Sprintf("%d|%s|%s|%s", v.reg.Expenses.Version(), filterKey(f), field, dir)
	return v.filtered.get(key, func() []core.Expense {
		return core.SortExpenses(core.ApplyFilters(v.reg.Expenses.All(), f), field, dir)
	})
}

// Today returns today's expenses and their stats.
func (v *Views) Today() PeriodSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.Now()
	key := fmt.Sprintf("%d|%s", v.reg.Expenses.Version(), now.Format("2006-01-02"))
	return v.today.get(key, func() PeriodSummary {
		return summarize(core.TodayExpenses(v.reg.Expenses.All(), now))
	})
}

// Week returns this week's expenses (Sunday start) and their stats.
func (v *Views) Week() PeriodSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.Now()
	key := fmt.Sprintf("%d|%s", v.reg.Expenses.Version(), now.Format("2006-01-02"))
	return v.week.get(key, func() PeriodSummary {
		return summarize(core.WeekExpenses(v.reg.Expenses.All(), now))
	})
}

// Month returns this month's expenses and their stats.
func (v *Views) Month() PeriodSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.Now()
	key := fmt.Sprintf("%d|%s", v.reg.Expenses.Version(), now.Format("2006-01-02"))
	return v.month.get(key, func() PeriodSummary {
		return summarize(core.MonthExpenses(v.reg.Expenses.All(), now))
	})
}

// Progress returns the derived spending state of every budget, recomputed
// whenever budgets or expenses change.
func (v *Views) Progress() []core.BudgetProgress {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.progressLocked()
}

func (v *Views) progressLocked() []core.BudgetProgress {
	now := v.Now()
	key := fmt.Sprintf("%d|%d|%s",
		v.reg.Budgets.Version(), v.reg.Expenses.Version(), now.Format("2006-01-02"))
	return v.progress.get(key, func() []core.BudgetProgress {
		expenses := v.reg.Expenses.All()
		budgets := v.reg.Budgets.All()
		out := make([]core.BudgetProgress, 0, len(budgets))
		for _, b := range budgets {
			spent := core.SpentForBudget(b, expenses, now)
			out = append(out, core.CalculateBudgetProgress(b, spent))
		}
		return out
	})
}

// Alerts returns the budgets currently in warning or danger state.
func (v *Views) Alerts() []core.BudgetProgress {
	v.mu.Lock()
	defer v.mu.Unlock()
	all := v.progressLocked()
	out := make([]core.BudgetProgress, 0, len(all))
	for _, p := range all {
		if p.Status != core.StatusSafe {
			out = append(out, p)
		}
	}
	return out
}

// ByCategory returns the per-category spending breakdown.
func (v *Views) ByCategory() []core.CategoryStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := fmt.Sprintf("%d|%d", v.reg.Expenses.Version(), v.reg.Categories.Version())
	return v.byCat.get(key, func() []core.CategoryStats {
		return core.CalculateCategoryStats(v.reg.Expenses.All(), v.reg.Categories.All())
	})
}

func summarize(expenses []core.Expense) PeriodSummary {
	return PeriodSummary{Expenses: expenses, Stats: core.CalculateStats(expenses)}
}

// filterKey flattens the filter struct into a cache key. Pointer fields
// contribute their values, not their addresses.
func filterKey(f core.ExpenseFilters) string {
	min, max := "", ""
	if f.AmountMin != nil {
		min = f.AmountMin.String()
	}
	if f.AmountMax != nil {
		max = f.AmountMax.String()
	}
	return fmt.Sprintf("%s|%s|%d|%d|%s|%s|%s",
		f.Search, f.CategoryID,
		f.DateFrom.UnixMilli(), f.DateTo.UnixMilli(),
		min, max, f.Payment)
}
