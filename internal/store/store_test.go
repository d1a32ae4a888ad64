package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	local := storage.Open(filepath.Join(t.TempDir(), "tally.db"))
	t.Cleanup(func() { local.Close() })
	reg := NewRegistry(local)
	reg.Init(context.Background())
	return reg
}

func TestInitSeedsCategories(t *testing.T) {
	reg := testRegistry(t)

	got := reg.Categories.All()
	want := core.SeedCategories()
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d seed categories", len(got), len(want))
	}
	for i := range got {
		if got[i].ID != want[i].ID {
			t.Errorf("category[%d] = %s, want %s", i, got[i].ID, want[i].ID)
		}
		if !got[i].IsDefault() {
			t.Errorf("seed category %s should be a default", got[i].ID)
		}
	}
}

func TestAddExpensePersistsAndNotifies(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	notified := 0
	unsub := reg.Expenses.Subscribe(func() { notified++ })
	defer unsub()

	before := reg.Expenses.Version()
	added := reg.Expenses.Add(ctx, core.Expense{
		Amount:      core.Money{Cents: 1250},
		Description: "Lunch",
		CategoryID:  "cat_dining",
		Date:        core.NewDate(2024, time.March, 15),
		Tags:        []string{" Work ", "CLIENT"},
	})

	if added.ID == "" {
		t.Error("add should assign an id")
	}
	if added.CreatedAt.IsZero() || added.UpdatedAt.IsZero() {
		t.Error("add should stamp timestamps")
	}
	if added.Tags[0] != "work" || added.Tags[1] != "client" {
		t.Errorf("tags should be normalized, got %v", added.Tags)
	}
	if reg.Expenses.Version() != before+1 {
		t.Error("add should bump the version")
	}
	if notified != 1 {
		t.Errorf("subscriber ran %d times, want 1", notified)
	}

	// a fresh registry over the same database sees the write
	reg2 := NewRegistry(reg.local)
	reg2.Init(ctx)
	if got := reg2.Expenses.All(); len(got) != 1 || got[0].ID != added.ID {
		t.Errorf("expense did not persist: %+v", got)
	}
}

func TestUpdateExpensePatch(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	added := reg.Expenses.Add(ctx, core.Expense{
		Amount:      core.Money{Cents: 1000},
		Description: "Lunch",
		CategoryID:  "cat_dining",
		Date:        core.NewDate(2024, time.March, 15),
	})

	desc := "Team lunch"
	amount := core.Money{Cents: 4200}
	got, ok := reg.Expenses.Update(ctx, added.ID, ExpensePatch{
		Description: &desc,
		Amount:      &amount,
	})
	if !ok {
		t.Fatal("update should find the expense")
	}
	if got.Description != "Team lunch" || got.Amount.Cents != 4200 {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.CategoryID != "cat_dining" {
		t.Error("unpatched fields should be untouched")
	}
	if got.ID != added.ID || !got.CreatedAt.Equal(added.CreatedAt) {
		t.Error("identity fields should be immutable")
	}

	if _, ok := reg.Expenses.Update(ctx, "exp_missing", ExpensePatch{Description: &desc}); ok {
		t.Error("updating a missing expense should report false")
	}
}

func TestDeleteExpense(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	added := reg.Expenses.Add(ctx, core.Expense{Description: "x", Amount: core.Money{Cents: 1}})
	if !reg.Expenses.Delete(ctx, added.ID) {
		t.Fatal("delete should succeed")
	}
	if reg.Expenses.Delete(ctx, added.ID) {
		t.Error("double delete should report false")
	}
	if len(reg.Expenses.All()) != 0 {
		t.Error("expense should be gone")
	}
}

func TestDefaultCategoryProtection(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	before := reg.Categories.Version()
	if reg.Categories.Delete(ctx, "cat_groceries") {
		t.Error("deleting a default category should report false")
	}
	if reg.Categories.Version() != before {
		t.Error("failed delete should not bump the version")
	}
	if len(reg.Categories.All()) != len(core.SeedCategories()) {
		t.Error("collection should be untouched")
	}

	// user-owned categories delete normally
	owner := "user_1"
	added := reg.Categories.Add(ctx, core.Category{UserID: &owner, Name: "Hobbies"})
	if !reg.Categories.Delete(ctx, added.ID) {
		t.Error("deleting a user category should succeed")
	}
}

func TestDefaultCategoryOwnershipConversion(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	name := "My groceries"
	got, ok := reg.Categories.Update(ctx, "cat_groceries", "user_1", CategoryPatch{Name: &name})
	if !ok {
		t.Fatal("update should find the category")
	}
	if got.UserID == nil || *got.UserID != "user_1" {
		t.Errorf("edited default should convert ownership, got %v", got.UserID)
	}
	if got.Name != "My groceries" {
		t.Error("patch should apply")
	}
	if got.Icon == "" || got.Color == "" {
		t.Error("unpatched fields should survive conversion")
	}
}

func TestCategoryUpdateExplicitOwnership(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	// an explicit nil UserID keeps the category shared
	name := "Groceries+"
	got, ok := reg.Categories.Update(ctx, "cat_groceries", "user_1",
		CategoryPatch{Name: &name, SetUserID: true, UserID: nil})
	if !ok {
		t.Fatal("update should find the category")
	}
	if got.UserID != nil {
		t.Errorf("explicit ownership should win, got %v", got.UserID)
	}
}

func TestCategoryUpdateUnauthenticatedKeepsDefault(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	name := "Renamed"
	got, _ := reg.Categories.Update(ctx, "cat_groceries", "", CategoryPatch{Name: &name})
	if got.UserID != nil {
		t.Errorf("unauthenticated edit should not convert ownership, got %v", got.UserID)
	}
}

func TestBudgetAddDefaultsStartDate(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	b := reg.Budgets.Add(ctx, core.Budget{
		Amount: core.Money{Cents: 50000},
		Period: core.Monthly,
	})
	if b.ID == "" {
		t.Error("add should assign an id")
	}
	now := time.Now().UTC()
	wantStart := core.StartOfMonth(now)
	if !b.StartDate.Equal(wantStart) {
		t.Errorf("start date = %v, want %v", b.StartDate, wantStart)
	}
	if !b.Overall() {
		t.Error("budget without category should be overall")
	}
}

func TestBudgetPatchScope(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	cat := "cat_dining"
	b := reg.Budgets.Add(ctx, core.Budget{
		Amount:     core.Money{Cents: 20000},
		Period:     core.Monthly,
		CategoryID: &cat,
	})

	got, ok := reg.Budgets.Update(ctx, b.ID, BudgetPatch{Overall: true})
	if !ok || got.CategoryID != nil {
		t.Errorf("Overall patch should clear the category, got %v", got.CategoryID)
	}

	end := core.NewDate(2024, time.December, 31)
	got, _ = reg.Budgets.Update(ctx, b.ID, BudgetPatch{EndDate: &end})
	if got.EndDate == nil || !got.EndDate.Equal(end.Time) {
		t.Error("EndDate patch should apply")
	}
	got, _ = reg.Budgets.Update(ctx, b.ID, BudgetPatch{ClearEnd: true})
	if got.EndDate != nil {
		t.Error("ClearEnd should make the budget open-ended")
	}
}

func TestPreferencesUpdate(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	if reg.Preferences.Get() != core.DefaultPreferences() {
		t.Fatal("preferences should start at defaults")
	}

	currency := "EUR"
	theme := core.ThemeLight
	got := reg.Preferences.Update(ctx, PreferencesPatch{Currency: &currency, Theme: &theme})
	if got.Currency != "EUR" || got.Theme != core.ThemeLight {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.DateFormat != core.DateFormatUS || got.Language != "en" {
		t.Error("unpatched fields should be untouched")
	}

	reg2 := NewRegistry(reg.local)
	reg2.Init(ctx)
	if reg2.Preferences.Get().Currency != "EUR" {
		t.Error("preferences did not persist")
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	calls := 0
	unsub := reg.Expenses.Subscribe(func() { calls++ })
	reg.Expenses.Add(ctx, core.Expense{Description: "a"})
	unsub()
	reg.Expenses.Add(ctx, core.Expense{Description: "b"})

	if calls != 1 {
		t.Errorf("subscriber ran %d times, want 1", calls)
	}
}
