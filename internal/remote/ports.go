// Package remote defines the ports to the remote document store and the
// identity provider the sync bridge pushes under.
package remote

import (
	"context"
	"errors"

	"tally/internal/core"
)

// ErrAlreadyExists is returned by Create when a record with the same ID is
// already present. Callers fall back to Update.
var ErrAlreadyExists = errors.New("record already exists")

// Record is an entity kind the remote store can hold.
type Record interface {
	core.Expense | core.Category | core.Budget
}

type (
	// Collection is the remote side of one synchronized entity kind.
	// Records are scoped to an owner; subscribers receive the full
	// owner-scoped snapshot on every remote change, starting with the
	// current state.
	Collection[T Record] interface {
		Subscribe(ctx context.Context, ownerID string, onSnapshot func([]T)) (stop func(), err error)
		Create(ctx context.Context, ownerID string, rec T) error
		Update(ctx context.Context, ownerID string, rec T) error
		Delete(ctx context.Context, ownerID, id string) error
	}

	// Auth exposes the current identity. An empty user ID means
	// unauthenticated.
	Auth interface {
		CurrentUserID() string
		OnAuthStateChanged(fn func(userID string)) (unsubscribe func())
	}
)

// RecordID extracts the identity of a record.
func RecordID[T Record](rec T) string {
	switch r := any(rec).(type) {
	case core.Expense:
		return r.ID
	case core.Category:
		return r.ID
	case core.Budget:
		return r.ID
	}
	return ""
}

// CollectionName maps a record type to its remote collection name.
func CollectionName[T Record]() string {
	var zero T
	switch any(zero).(type) {
	case core.Expense:
		return "expenses"
	case core.Category:
		return "categories"
	case core.Budget:
		return "budgets"
	}
	return ""
}
