package core

import "time"

var seedCreatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func money(cents int64) *Money { return &Money{Cents: cents} }

// seedCategories is the fixed default set present for every installation
// until customized. All entries carry a nil UserID and must never be
// physically deleted.
var seedCategories = []Category{
	{ID: "cat_groceries", Name: "Groceries", Icon: "🛒", Color: "#10B981", CreatedAt: seedCreatedAt, Budget: money(40000), BudgetPeriod: Monthly},
	{ID: "cat_food", Name: "Food & Dining", Icon: "🍔", Color: "#F97316", CreatedAt: seedCreatedAt, Budget: money(30000), BudgetPeriod: Monthly},
	{ID: "cat_travel", Name: "Travel", Icon: "✈️", Color: "#06B6D4", CreatedAt: seedCreatedAt, Budget: money(25000), BudgetPeriod: Monthly},
	{ID: "cat_shopping", Name: "Shopping", Icon: "🛍️", Color: "#EC4899", CreatedAt: seedCreatedAt, Budget: money(20000), BudgetPeriod: Monthly},
	{ID: "cat_entertainment", Name: "Entertainment", Icon: "🎬", Color: "#8B5CF6", CreatedAt: seedCreatedAt, Budget: money(15000), BudgetPeriod: Monthly},
	{ID: "cat_housing", Name: "Housing", Icon: "🏠", Color: "#6366F1", CreatedAt: seedCreatedAt, Budget: money(120000), BudgetPeriod: Monthly},
	{ID: "cat_health", Name: "Health", Icon: "💊", Color: "#10B981", CreatedAt: seedCreatedAt, Budget: money(15000), BudgetPeriod: Monthly},
	{ID: "cat_subscriptions", Name: "Subscriptions", Icon: "📺", Color: "#A855F7", CreatedAt: seedCreatedAt, Budget: money(5000), BudgetPeriod: Monthly},
	{ID: "cat_other", Name: "Other", Icon: "📋", Color: "#64748B", CreatedAt: seedCreatedAt},
}

// SeedCategories returns a fresh copy of the 9 default categories.
func SeedCategories() []Category {
	out := make([]Category, len(seedCategories))
	copy(out, seedCategories)
	for i := range out {
		if out[i].Budget != nil {
			b := *out[i].Budget
			out[i].Budget = &b
		}
	}
	return out
}

// IsSeedCategoryID reports whether the ID belongs to the default set.
func IsSeedCategoryID(id string) bool {
	for _, c := range seedCategories {
		if c.ID == id {
			return true
		}
	}
	return false
}
