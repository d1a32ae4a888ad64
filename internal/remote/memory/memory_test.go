package memory

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"
	"tally/internal/remote"
)

func TestSubscribeDeliversCurrentSnapshot(t *testing.T) {
	c := NewCollection[core.Expense]()
	ctx := context.Background()

	if err := c.Create(ctx, "user_1", core.Expense{ID: "exp_1", Description: "a"}); err != nil {
		t.Fatal(err)
	}

	var got [][]core.Expense
	stop, err := c.Subscribe(ctx, "user_1", func(snap []core.Expense) {
		got = append(got, snap)
	})
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	if len(got) != 1 || len(got[0]) != 1 || got[0][0].ID != "exp_1" {
		t.Fatalf("initial snapshot = %+v", got)
	}

	c.Create(ctx, "user_1", core.Expense{ID: "exp_2", Description: "b"})
	if len(got) != 2 || len(got[1]) != 2 {
		t.Fatalf("snapshot after create = %+v", got)
	}
}

func TestSubscribeIsOwnerScoped(t *testing.T) {
	c := NewCollection[core.Expense]()
	ctx := context.Background()

	calls := 0
	stop, _ := c.Subscribe(ctx, "user_1", func([]core.Expense) { calls++ })
	defer stop()

	c.Create(ctx, "user_2", core.Expense{ID: "exp_1"})
	if calls != 1 {
		t.Errorf("subscriber ran %d times, want 1 (initial only)", calls)
	}
}

func TestCreateConflict(t *testing.T) {
	c := NewCollection[core.Expense]()
	ctx := context.Background()

	if err := c.Create(ctx, "user_1", core.Expense{ID: "exp_1"}); err != nil {
		t.Fatal(err)
	}
	err := c.Create(ctx, "user_1", core.Expense{ID: "exp_1"})
	if !errors.Is(err, remote.ErrAlreadyExists) {
		t.Errorf("second create = %v, want ErrAlreadyExists", err)
	}

	// same ID under another owner is a distinct record
	if err := c.Create(ctx, "user_2", core.Expense{ID: "exp_1"}); err != nil {
		t.Errorf("create for another owner = %v", err)
	}
}

func TestUpdateUpserts(t *testing.T) {
	c := NewCollection[core.Expense]()
	ctx := context.Background()

	if err := c.Update(ctx, "user_1", core.Expense{ID: "exp_1", Description: "v1"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(ctx, "user_1", core.Expense{ID: "exp_1", Description: "v2"}); err != nil {
		t.Fatal(err)
	}

	got := c.All("user_1")
	if len(got) != 1 || got[0].Description != "v2" {
		t.Errorf("records = %+v", got)
	}
}

func TestDeleteAbsentSucceeds(t *testing.T) {
	c := NewCollection[core.Expense]()
	ctx := context.Background()

	if err := c.Delete(ctx, "user_1", "exp_missing"); err != nil {
		t.Errorf("delete of absent record = %v, want nil", err)
	}

	calls := 0
	stop, _ := c.Subscribe(ctx, "user_1", func([]core.Expense) { calls++ })
	defer stop()
	c.Delete(ctx, "user_1", "exp_missing")
	if calls != 1 {
		t.Error("no-op delete should not notify")
	}
}

func TestStopEndsDelivery(t *testing.T) {
	c := NewCollection[core.Expense]()
	ctx := context.Background()

	calls := 0
	stop, _ := c.Subscribe(ctx, "user_1", func([]core.Expense) { calls++ })
	stop()

	c.Create(ctx, "user_1", core.Expense{ID: "exp_1"})
	if calls != 1 {
		t.Errorf("stopped subscriber ran %d times, want 1", calls)
	}
}
