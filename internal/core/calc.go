package core

import (
	"sort"
	"strings"
	"time"
)

// Budget progress thresholds, in percent.
const (
	WarningThreshold = 80.0
	DangerThreshold  = 100.0
)

const (
	StatusSafe    BudgetStatus = "safe"
	StatusWarning BudgetStatus = "warning"
	StatusDanger  BudgetStatus = "danger"
)

const (
	SortByDate        SortField = "date"
	SortByAmount      SortField = "amount"
	SortByDescription SortField = "description"
)

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// UnknownCategoryName and UnknownCategoryColor are used when an expense
// references a category that no longer exists.
const (
	UnknownCategoryName  = "Unknown"
	UnknownCategoryColor = "#64748B"
)

type (
	BudgetStatus  string
	SortField     string
	SortDirection string

	// ExpenseStats summarizes a set of expenses. The zero value is the
	// correct answer for an empty set.
	ExpenseStats struct {
		Total   Money `json:"total"`
		Count   int   `json:"count"`
		Average Money `json:"average"`
		Highest Money `json:"highest"`
		Lowest  Money `json:"lowest"`
	}

	// CategoryStats is one row of the per-category breakdown.
	CategoryStats struct {
		CategoryID   string  `json:"categoryId"`
		CategoryName string  `json:"categoryName"`
		Total        Money   `json:"total"`
		Count        int     `json:"count"`
		Percentage   float64 `json:"percentage"`
		Color        string  `json:"color"`
	}

	// BudgetProgress is the derived spending state of one budget.
	BudgetProgress struct {
		Budget     Budget       `json:"budget"`
		Spent      Money        `json:"spent"`
		Remaining  Money        `json:"remaining"`
		Percentage float64      `json:"percentage"`
		Status     BudgetStatus `json:"status"`
	}

	// ExpenseFilters narrows an expense listing. Zero values mean "no
	// constraint"; CategoryID and Payment accept "all" as a synonym.
	ExpenseFilters struct {
		Search     string
		CategoryID string
		DateFrom   Date
		DateTo     Date
		AmountMin  *Money
		AmountMax  *Money
		Payment    string
	}
)

// CalculateTotal sums the amounts of the given expenses.
func CalculateTotal(expenses []Expense) Money {
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return Money{Cents: total}
}

// CalculateStats computes total, count, average, highest and lowest. An
// empty input yields the all-zero result, not an error. The average is
// rounded half-up to the cent.
func CalculateStats(expenses []Expense) ExpenseStats {
	if len(expenses) == 0 {
		return ExpenseStats{}
	}
	total := CalculateTotal(expenses)
	highest := expenses[0].Amount.Cents
	lowest := expenses[0].Amount.Cents
	for _, e := range expenses[1:] {
		if e.Amount.Cents > highest {
			highest = e.Amount.Cents
		}
		if e.Amount.Cents < lowest {
			lowest = e.Amount.Cents
		}
	}
	n := int64(len(expenses))
	average := (total.Cents + n/2) / n
	return ExpenseStats{
		Total:   total,
		Count:   len(expenses),
		Average: Money{Cents: average},
		Highest: Money{Cents: highest},
		Lowest:  Money{Cents: lowest},
	}
}

// CalculateCategoryStats groups expenses by category, resolving names and
// colors through the category list and falling back to a neutral "Unknown"
// entry for dangling references. Rows are ordered by descending total, ties
// by category ID for determinism.
func CalculateCategoryStats(expenses []Expense, categories []Category) []CategoryStats {
	grandTotal := CalculateTotal(expenses)

	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	type group struct {
		total int64
		count int
	}
	groups := make(map[string]*group)
	order := make([]string, 0)
	for _, e := range expenses {
		g, ok := groups[e.CategoryID]
		if !ok {
			g = &group{}
			groups[e.CategoryID] = g
			order = append(order, e.CategoryID)
		}
		g.total += e.Amount.Cents
		g.count++
	}

	stats := make([]CategoryStats, 0, len(groups))
	for _, id := range order {
		g := groups[id]
		row := CategoryStats{
			CategoryID:   id,
			CategoryName: UnknownCategoryName,
			Color:        UnknownCategoryColor,
			Total:        Money{Cents: g.total},
			Count:        g.count,
		}
		if cat, ok := byID[id]; ok {
			row.CategoryName = cat.Name
			row.Color = cat.Color
		}
		if grandTotal.Cents > 0 {
			row.Percentage = float64(g.total) / float64(grandTotal.Cents) * 100
		}
		stats = append(stats, row)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Total.Cents != stats[j].Total.Cents {
			return stats[i].Total.Cents > stats[j].Total.Cents
		}
		return stats[i].CategoryID < stats[j].CategoryID
	})
	return stats
}

// CalculateBudgetProgress applies the progress formula: remaining clamps at
// zero, percentage clamps at 100, and a zero budget amount always reads 0%.
func CalculateBudgetProgress(b Budget, spent Money) BudgetProgress {
	remaining := b.Amount.Cents - spent.Cents
	if remaining < 0 {
		remaining = 0
	}
	percentage := 0.0
	if b.Amount.Cents > 0 {
		percentage = float64(spent.Cents) / float64(b.Amount.Cents) * 100
	}
	status := StatusSafe
	if percentage >= DangerThreshold {
		status = StatusDanger
	} else if percentage >= WarningThreshold {
		status = StatusWarning
	}
	if percentage > 100 {
		percentage = 100
	}
	return BudgetProgress{
		Budget:     b,
		Spent:      spent,
		Remaining:  Money{Cents: remaining},
		Percentage: percentage,
		Status:     status,
	}
}

// SpentForBudget sums expenses dated within [StartDate, EndDate or now],
// restricted to the budget's category when one is set.
func SpentForBudget(b Budget, expenses []Expense, now time.Time) Money {
	end := now
	if b.EndDate != nil && !b.EndDate.IsZero() {
		end = b.EndDate.Time
	}
	matching := FilterByDateRange(expenses, b.StartDate.Time, end)
	if b.CategoryID != nil {
		filtered := matching[:0:0]
		for _, e := range matching {
			if e.CategoryID == *b.CategoryID {
				filtered = append(filtered, e)
			}
		}
		matching = filtered
	}
	return CalculateTotal(matching)
}

// FilterByDateRange keeps expenses dated within [start, end], inclusive on
// both ends at day granularity regardless of the precision of the bounds.
func FilterByDateRange(expenses []Expense, start, end time.Time) []Expense {
	from := StartOfDay(start)
	to := EndOfDay(end)
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		d := e.Date.Time
		if !d.Before(from) && !d.After(to) {
			out = append(out, e)
		}
	}
	return out
}

// TodayExpenses returns expenses dated today.
func TodayExpenses(expenses []Expense, now time.Time) []Expense {
	return FilterByDateRange(expenses, now, now)
}

// WeekExpenses returns expenses from the start of the current week
// (Sunday) through now.
func WeekExpenses(expenses []Expense, now time.Time) []Expense {
	return FilterByDateRange(expenses, StartOfWeek(now), now)
}

// MonthExpenses returns expenses from the first of the current month
// through now.
func MonthExpenses(expenses []Expense, now time.Time) []Expense {
	return FilterByDateRange(expenses, StartOfMonth(now), now)
}

// SearchExpenses keeps expenses whose description, merchant, notes or any
// tag contains the query, case-insensitively. A blank query returns the
// input unchanged.
func SearchExpenses(expenses []Expense, query string) []Expense {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return expenses
	}
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if matchesQuery(e, q) {
			out = append(out, e)
		}
	}
	return out
}

func matchesQuery(e Expense, q string) bool {
	if strings.Contains(strings.ToLower(e.Description), q) ||
		strings.Contains(strings.ToLower(e.Merchant), q) ||
		strings.Contains(strings.ToLower(e.Notes), q) {
		return true
	}
	for _, t := range e.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// SortExpenses returns a stably sorted copy. Date and amount compare
// numerically, descriptions case-insensitively; desc negates the comparator.
func SortExpenses(expenses []Expense, field SortField, dir SortDirection) []Expense {
	out := append([]Expense(nil), expenses...)
	cmp := func(a, b Expense) int {
		switch field {
		case SortByAmount:
			switch {
			case a.Amount.Cents < b.Amount.Cents:
				return -1
			case a.Amount.Cents > b.Amount.Cents:
				return 1
			}
			return 0
		case SortByDescription:
			return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		default:
			switch {
			case a.Date.Time.Before(b.Date.Time):
				return -1
			case a.Date.Time.After(b.Date.Time):
				return 1
			}
			return 0
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// ApplyFilters runs the full filter pipeline: search, category, date range,
// amount range, payment method.
func ApplyFilters(expenses []Expense, f ExpenseFilters) []Expense {
	result := SearchExpenses(expenses, f.Search)

	if f.CategoryID != "" && f.CategoryID != "all" {
		kept := make([]Expense, 0, len(result))
		for _, e := range result {
			if e.CategoryID == f.CategoryID {
				kept = append(kept, e)
			}
		}
		result = kept
	}

	if !f.DateFrom.IsZero() || !f.DateTo.IsZero() {
		from := f.DateFrom.Time
		if f.DateFrom.IsZero() {
			from = time.Unix(0, 0).UTC()
		}
		to := f.DateTo.Time
		if f.DateTo.IsZero() {
			to = time.Now().UTC()
		}
		result = FilterByDateRange(result, from, to)
	}

	if f.AmountMin != nil || f.AmountMax != nil {
		kept := make([]Expense, 0, len(result))
		for _, e := range result {
			if f.AmountMin != nil && e.Amount.Cents < f.AmountMin.Cents {
				continue
			}
			if f.AmountMax != nil && e.Amount.Cents > f.AmountMax.Cents {
				continue
			}
			kept = append(kept, e)
		}
		result = kept
	}

	if f.Payment != "" && f.Payment != "all" {
		kept := make([]Expense, 0, len(result))
		for _, e := range result {
			if string(e.Payment) == f.Payment {
				kept = append(kept, e)
			}
		}
		result = kept
	}

	return result
}
