package remote

import (
	"testing"

	"tally/internal/core"
)

func TestStaticAuth(t *testing.T) {
	a := NewStaticAuth("")
	if a.CurrentUserID() != "" {
		t.Error("fresh auth should be unauthenticated")
	}

	var seen []string
	unsub := a.OnAuthStateChanged(func(id string) { seen = append(seen, id) })

	a.SetUserID("user_1")
	a.SetUserID("user_1") // no-op, same value
	a.SetUserID("")

	if a.CurrentUserID() != "" {
		t.Error("sign-out should clear the identity")
	}
	if len(seen) != 2 || seen[0] != "user_1" || seen[1] != "" {
		t.Errorf("transitions = %v", seen)
	}

	unsub()
	a.SetUserID("user_2")
	if len(seen) != 2 {
		t.Error("unsubscribed listener should not run")
	}
}

func TestRecordHelpers(t *testing.T) {
	if got := RecordID(core.Expense{ID: "exp_1"}); got != "exp_1" {
		t.Errorf("RecordID = %q", got)
	}
	if got := CollectionName[core.Category](); got != "categories" {
		t.Errorf("CollectionName = %q", got)
	}
	if got := CollectionName[core.Budget](); got != "budgets" {
		t.Errorf("CollectionName = %q", got)
	}
}
