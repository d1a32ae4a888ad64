package sync

import (
	"testing"

	"tally/internal/core"
)

func TestMergeCategoriesEmptyRemote(t *testing.T) {
	got := MergeCategories(nil)
	want := core.SeedCategories()
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].ID != want[i].ID {
			t.Errorf("category[%d] = %s, want %s", i, got[i].ID, want[i].ID)
		}
	}
}

func TestMergeCategoriesOverlaysSeeds(t *testing.T) {
	owner := "user_1"
	remote := []core.Category{
		{ID: "cat_groceries", UserID: &owner, Name: "My Groceries", Icon: "🧺", Color: "#000000"},
	}

	got := MergeCategories(remote)
	if len(got) != len(core.SeedCategories()) {
		t.Fatalf("overlay should not change the count, got %d", len(got))
	}
	if got[0].ID != "cat_groceries" || got[0].Name != "My Groceries" {
		t.Errorf("remote version should win: %+v", got[0])
	}
	if got[0].UserID == nil || *got[0].UserID != owner {
		t.Error("remote ownership should survive the merge")
	}
	// untouched seeds stay intact
	if got[1].Name != "Food & Dining" {
		t.Errorf("seed[1] = %+v", got[1])
	}
}

func TestMergeCategoriesAppendsCustoms(t *testing.T) {
	owner := "user_1"
	remote := []core.Category{
		{ID: "cat_custom1", UserID: &owner, Name: "Hobbies"},
		{ID: "cat_food", UserID: &owner, Name: "Eating out"},
	}

	got := MergeCategories(remote)
	want := len(core.SeedCategories()) + 1
	if len(got) != want {
		t.Fatalf("got %d categories, want %d", len(got), want)
	}
	last := got[len(got)-1]
	if last.ID != "cat_custom1" || last.Name != "Hobbies" {
		t.Errorf("custom category should be appended, got %+v", last)
	}
}

func TestMergeCategoriesDoesNotMutateInput(t *testing.T) {
	remote := []core.Category{{ID: "cat_custom1", Name: "Hobbies"}}
	MergeCategories(remote)
	if remote[0].Name != "Hobbies" || len(remote) != 1 {
		t.Error("input slice was mutated")
	}
}
