// Package worker mirrors local mutations to the remote store. The web
// process writes locally and publishes change messages; this worker loads
// the current record from the shared local store and pushes it upward, so
// re-deliveries and out-of-order messages converge on the latest state.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/storage"
	syncbridge "tally/internal/sync"
)

type SyncWorker struct {
	local  *storage.Store
	bridge *syncbridge.Bridge
}

func NewSyncWorker(local *storage.Store, bridge *syncbridge.Bridge) *SyncWorker {
	return &SyncWorker{local: local, bridge: bridge}
}

// HandleChange processes one change message. A record missing from the
// local store means it was deleted after the message was published, so an
// upsert degrades to a remote delete.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"collection", msg.Collection,
		"op", msg.Op,
		"id", msg.ID)

	if msg.Op == amqp.OpDelete {
		w.deleteRemote(ctx, msg)
		return nil
	}

	data := w.local.Load(ctx)
	switch msg.Collection {
	case amqp.CollectionExpenses:
		for _, e := range data.Expenses {
			if e.ID == msg.ID {
				return w.bridge.PushExpense(ctx, e)
			}
		}
	case amqp.CollectionCategories:
		for _, c := range data.Categories {
			if c.ID == msg.ID {
				return w.bridge.PushCategory(ctx, c)
			}
		}
	case amqp.CollectionBudgets:
		for _, b := range data.Budgets {
			if b.ID == msg.ID {
				return w.bridge.PushBudget(ctx, b)
			}
		}
	default:
		return fmt.Errorf("unknown collection %q", msg.Collection)
	}

	slog.InfoContext(ctx, "Record gone from local store, deleting remotely",
		"collection", msg.Collection, "id", msg.ID)
	w.deleteRemote(ctx, msg)
	return nil
}

func (w *SyncWorker) deleteRemote(ctx context.Context, msg *amqp.ChangeMessage) {
	switch msg.Collection {
	case amqp.CollectionExpenses:
		w.bridge.DeleteExpense(ctx, msg.ID)
	case amqp.CollectionCategories:
		w.bridge.DeleteCategory(ctx, msg.ID)
	case amqp.CollectionBudgets:
		w.bridge.DeleteBudget(ctx, msg.ID)
	}
}

// StartupSync pushes the whole local state upward once. It recovers from
// change messages lost while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	data := w.local.Load(ctx)

	pushed, failed := 0, 0
	for _, e := range data.Expenses {
		if err := w.bridge.PushExpense(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Startup push failed", "id", e.ID, "error", err)
			failed++
			continue
		}
		pushed++
	}
	for _, c := range data.Categories {
		if c.IsDefault() {
			continue // seeds exist everywhere, nothing to mirror
		}
		if err := w.bridge.PushCategory(ctx, c); err != nil {
			slog.ErrorContext(ctx, "Startup push failed", "id", c.ID, "error", err)
			failed++
			continue
		}
		pushed++
	}
	for _, b := range data.Budgets {
		if err := w.bridge.PushBudget(ctx, b); err != nil {
			slog.ErrorContext(ctx, "Startup push failed", "id", b.ID, "error", err)
			failed++
			continue
		}
		pushed++
	}

	slog.InfoContext(ctx, "Startup sync completed", "pushed", pushed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("startup sync: %d of %d pushes failed", failed, pushed+failed)
	}
	return nil
}
