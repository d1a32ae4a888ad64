package store

import (
	"context"
	"testing"
	"time"

	"tally/internal/core"
)

// fixedNow is a Wednesday so week and month windows are distinct.
var fixedNow = time.Date(2024, time.March, 20, 15, 0, 0, 0, time.UTC)

func testViews(t *testing.T) (*Registry, *Views) {
	t.Helper()
	reg := testRegistry(t)
	v := NewViews(reg)
	v.Now = func() time.Time { return fixedNow }
	return reg, v
}

func seedPeriods(t *testing.T, reg *Registry) {
	t.Helper()
	ctx := context.Background()
	add := func(desc string, cents int64, d core.Date) {
		reg.Expenses.Add(ctx, core.Expense{
			Description: desc,
			Amount:      core.Money{Cents: cents},
			CategoryID:  "cat_groceries",
			Date:        d,
		})
	}
	add("today", 1000, core.NewDate(2024, time.March, 20))
	add("this week", 2000, core.NewDate(2024, time.March, 18))
	add("this month", 3000, core.NewDate(2024, time.March, 2))
	add("last month", 4000, core.NewDate(2024, time.February, 10))
}

func TestPeriodViews(t *testing.T) {
	reg, v := testViews(t)
	seedPeriods(t, reg)

	if got := v.Today(); len(got.Expenses) != 1 || got.Stats.Total.Cents != 1000 {
		t.Errorf("today = %d expenses / %d cents", len(got.Expenses), got.Stats.Total.Cents)
	}
	if got := v.Week(); len(got.Expenses) != 2 || got.Stats.Total.Cents != 3000 {
		t.Errorf("week = %d expenses / %d cents", len(got.Expenses), got.Stats.Total.Cents)
	}
	if got := v.Month(); len(got.Expenses) != 3 || got.Stats.Total.Cents != 6000 {
		t.Errorf("month = %d expenses / %d cents", len(got.Expenses), got.Stats.Total.Cents)
	}
}

func TestViewsRecomputeOnMutation(t *testing.T) {
	reg, v := testViews(t)
	seedPeriods(t, reg)

	first := v.Month()
	if again := v.Month(); len(again.Expenses) != len(first.Expenses) {
		t.Fatal("repeated read should return the same result")
	}

	reg.Expenses.Add(context.Background(), core.Expense{
		Description: "fresh",
		Amount:      core.Money{Cents: 500},
		Date:        core.NewDate(2024, time.March, 19),
	})
	if got := v.Month(); len(got.Expenses) != len(first.Expenses)+1 {
		t.Error("view should recompute after a mutation")
	}
}

func TestFilteredView(t *testing.T) {
	reg, v := testViews(t)
	seedPeriods(t, reg)

	got := v.Filtered(core.ExpenseFilters{Search: "week"}, core.SortByDate, core.SortDesc)
	if len(got) != 1 || got[0].Description != "this week" {
		t.Errorf("filtered = %+v", got)
	}

	// distinct filters are distinct cache entries
	all := v.Filtered(core.ExpenseFilters{}, core.SortByAmount, core.SortAsc)
	if len(all) != 4 {
		t.Errorf("unfiltered view returned %d expenses", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Amount.Cents < all[i-1].Amount.Cents {
			t.Error("view should be sorted ascending by amount")
		}
	}
}

func TestProgressAndAlerts(t *testing.T) {
	reg, v := testViews(t)
	ctx := context.Background()

	cat := "cat_groceries"
	reg.Budgets.Add(ctx, core.Budget{
		Amount:     core.Money{Cents: 10000},
		Period:     core.Monthly,
		CategoryID: &cat,
		StartDate:  core.NewDate(2024, time.March, 1),
	})

	reg.Expenses.Add(ctx, core.Expense{
		Description: "groceries",
		Amount:      core.Money{Cents: 8000},
		CategoryID:  cat,
		Date:        core.NewDate(2024, time.March, 10),
	})

	progress := v.Progress()
	if len(progress) != 1 {
		t.Fatalf("got %d progress rows", len(progress))
	}
	if progress[0].Percentage != 80 || progress[0].Status != core.StatusWarning {
		t.Errorf("progress = %.1f%% %s", progress[0].Percentage, progress[0].Status)
	}

	alerts := v.Alerts()
	if len(alerts) != 1 || alerts[0].Status != core.StatusWarning {
		t.Errorf("alerts = %+v", alerts)
	}

	// spending past the limit flips to danger
	reg.Expenses.Add(ctx, core.Expense{
		Description: "more groceries",
		Amount:      core.Money{Cents: 5000},
		CategoryID:  cat,
		Date:        core.NewDate(2024, time.March, 11),
	})
	progress = v.Progress()
	if progress[0].Status != core.StatusDanger || progress[0].Percentage != 100 {
		t.Errorf("progress after overspend = %.1f%% %s", progress[0].Percentage, progress[0].Status)
	}
	if progress[0].Remaining.Cents != 0 {
		t.Error("remaining should clamp at zero")
	}
}

func TestByCategoryView(t *testing.T) {
	reg, v := testViews(t)
	ctx := context.Background()

	reg.Expenses.Add(ctx, core.Expense{
		Description: "apples", Amount: core.Money{Cents: 3000},
		CategoryID: "cat_groceries", Date: core.NewDate(2024, time.March, 10),
	})
	reg.Expenses.Add(ctx, core.Expense{
		Description: "ghost", Amount: core.Money{Cents: 1000},
		CategoryID: "cat_gone", Date: core.NewDate(2024, time.March, 11),
	})

	got := v.ByCategory()
	if len(got) != 2 {
		t.Fatalf("got %d rows", len(got))
	}
	if got[0].CategoryName != "Groceries" || got[0].Percentage != 75 {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].CategoryName != core.UnknownCategoryName {
		t.Errorf("dangling category should read %q, got %q", core.UnknownCategoryName, got[1].CategoryName)
	}
}
