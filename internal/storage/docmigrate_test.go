package storage

import (
	"testing"

	"tally/internal/core"
)

func TestMigrateDocumentFromV1(t *testing.T) {
	data := core.StorageData{
		Version:  1,
		Expenses: []core.Expense{{ID: "exp_1", Tags: []string{"Coffee ", "WORK"}}},
	}

	got := MigrateDocument(data)
	if got.Version != core.StorageVersion {
		t.Errorf("version = %d, want %d", got.Version, core.StorageVersion)
	}
	want := []string{"coffee", "work"}
	for i, tag := range got.Expenses[0].Tags {
		if tag != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, tag, want[i])
		}
	}
}

func TestMigrateDocumentUnversioned(t *testing.T) {
	got := MigrateDocument(core.StorageData{})
	if got.Version != core.StorageVersion {
		t.Errorf("unversioned document should land on %d, got %d", core.StorageVersion, got.Version)
	}
}

func TestMigrateDocumentCurrentIsNoop(t *testing.T) {
	data := core.StorageData{
		Version:  core.StorageVersion,
		Expenses: []core.Expense{{ID: "exp_1", Tags: []string{"KeepCase"}}},
	}
	got := MigrateDocument(data)
	if got.Version != core.StorageVersion || got.Expenses[0].Tags[0] != "KeepCase" {
		t.Errorf("current-version document should pass through unchanged: %+v", got)
	}
}
