// Package sync bridges the local collection stores to the remote document
// store: inbound snapshots replace local state when content differs,
// outbound pushes mirror local mutations upward with a create-or-update
// fallback.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"tally/internal/core"
	"tally/internal/remote"
	"tally/internal/store"
)

// DefaultAuthWait bounds how long an outbound push waits for a sign-in
// transition before giving up silently.
const DefaultAuthWait = 5 * time.Second

// ErrNotAuthenticated is returned by Start when no identity is available.
var ErrNotAuthenticated = errors.New("not authenticated")

// Bridge owns the three remote subscriptions and the outbound push path.
// At most one subscription per collection is active; starting again
// replaces the previous set, Stop releases all of them.
type Bridge struct {
	reg  *store.Registry
	auth remote.Auth

	expenses   remote.Collection[core.Expense]
	categories remote.Collection[core.Category]
	budgets    remote.Collection[core.Budget]

	// AuthWait is the outbound identity wait bound, settable before use.
	AuthWait time.Duration

	mu      stdsync.Mutex
	running bool
	userID  string
	stops   []func()

	// snapMu guards the grace flag separately because snapshot handlers
	// can run synchronously inside Subscribe, while Start holds mu.
	snapMu      stdsync.Mutex
	catSnapshot bool
}

// Status is the bridge state as reported to callers.
type Status struct {
	Running bool   `json:"running"`
	UserID  string `json:"userId,omitempty"`
}

func New(reg *store.Registry, auth remote.Auth,
	expenses remote.Collection[core.Expense],
	categories remote.Collection[core.Category],
	budgets remote.Collection[core.Budget]) *Bridge {
	return &Bridge{
		reg:        reg,
		auth:       auth,
		expenses:   expenses,
		categories: categories,
		budgets:    budgets,
		AuthWait:   DefaultAuthWait,
	}
}

// Start subscribes to the three remote collections under the current
// identity. Calling Start while running replaces the existing
// subscriptions.
func (b *Bridge) Start(ctx context.Context) error {
	userID := b.auth.CurrentUserID()
	if userID == "" {
		return ErrNotAuthenticated
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()

	// the first category snapshot gets grace treatment; see onCategories
	b.snapMu.Lock()
	b.catSnapshot = false
	b.snapMu.Unlock()

	stopExp, err := b.expenses.Subscribe(ctx, userID, b.onExpenses)
	if err != nil {
		return fmt.Errorf("subscribe expenses: %w", err)
	}
	stopCat, err := b.categories.Subscribe(ctx, userID, b.onCategories)
	if err != nil {
		stopExp()
		return fmt.Errorf("subscribe categories: %w", err)
	}
	stopBud, err := b.budgets.Subscribe(ctx, userID, b.onBudgets)
	if err != nil {
		stopExp()
		stopCat()
		return fmt.Errorf("subscribe budgets: %w", err)
	}

	b.stops = []func(){stopExp, stopCat, stopBud}
	b.running = true
	b.userID = userID
	slog.Info("Remote sync started", "user_id", userID)
	return nil
}

// Stop releases all subscriptions. Safe to call when not running.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		slog.Info("Remote sync stopped", "user_id", b.userID)
	}
	b.stopLocked()
}

func (b *Bridge) stopLocked() {
	for _, stop := range b.stops {
		stop()
	}
	b.stops = nil
	b.running = false
	b.userID = ""
}

func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{Running: b.running, UserID: b.userID}
}

// onExpenses handles an inbound expense snapshot. Identical content causes
// no local write, so re-delivered snapshots are idempotent.
func (b *Bridge) onExpenses(snap []core.Expense) {
	local := b.reg.Expenses.All()
	if sameSerialized(local, snap) {
		return
	}
	slog.Debug("Applying remote expense snapshot", "count", len(snap))
	b.reg.Expenses.Replace(context.Background(), snap)
}

// onBudgets handles an inbound budget snapshot.
func (b *Bridge) onBudgets(snap []core.Budget) {
	local := b.reg.Budgets.All()
	if sameSerialized(local, snap) {
		return
	}
	slog.Debug("Applying remote budget snapshot", "count", len(snap))
	b.reg.Budgets.Replace(context.Background(), snap)
}

// onCategories merges the remote snapshot over the seed set before
// comparing. An empty first snapshot is skipped when the user already has
// local custom categories, so a fresh remote account does not wipe local
// work before the initial upload completes.
func (b *Bridge) onCategories(snap []core.Category) {
	b.snapMu.Lock()
	first := !b.catSnapshot
	b.catSnapshot = true
	b.snapMu.Unlock()

	local := b.reg.Categories.All()
	if first && len(snap) == 0 && hasCustomCategories(local) {
		slog.Debug("Skipping empty initial category snapshot")
		return
	}

	merged := MergeCategories(snap)
	if sameCategorySet(local, merged) {
		return
	}
	slog.Debug("Applying merged remote category snapshot", "count", len(merged))
	b.reg.Categories.Replace(context.Background(), merged)
}

// PushExpense mirrors a local expense upward. Invalid records are skipped
// silently; an ID collision falls back to update.
func (b *Bridge) PushExpense(ctx context.Context, e core.Expense) error {
	return push(ctx, b, b.expenses, e, core.ValidateExpense(e))
}

func (b *Bridge) PushCategory(ctx context.Context, c core.Category) error {
	return push(ctx, b, b.categories, c, core.ValidateCategory(c))
}

func (b *Bridge) PushBudget(ctx context.Context, bud core.Budget) error {
	return push(ctx, b, b.budgets, bud, core.ValidateBudget(bud))
}

// DeleteExpense removes the record remotely, best-effort: failures are
// logged and swallowed because the local delete already happened.
func (b *Bridge) DeleteExpense(ctx context.Context, id string) {
	deleteRemote(ctx, b, b.expenses, id)
}

func (b *Bridge) DeleteCategory(ctx context.Context, id string) {
	deleteRemote(ctx, b, b.categories, id)
}

func (b *Bridge) DeleteBudget(ctx context.Context, id string) {
	deleteRemote(ctx, b, b.budgets, id)
}

func push[T remote.Record](ctx context.Context, b *Bridge, col remote.Collection[T], rec T, problems []string) error {
	if len(problems) > 0 {
		slog.Debug("Skipping push of invalid record",
			"id", remote.RecordID(rec), "problems", problems)
		return nil
	}

	userID := b.waitForUser(ctx)
	if userID == "" {
		slog.Debug("Skipping push, no identity", "id", remote.RecordID(rec))
		return nil
	}

	err := col.Create(ctx, userID, rec)
	if errors.Is(err, remote.ErrAlreadyExists) {
		return col.Update(ctx, userID, rec)
	}
	return err
}

func deleteRemote[T remote.Record](ctx context.Context, b *Bridge, col remote.Collection[T], id string) {
	userID := b.waitForUser(ctx)
	if userID == "" {
		return
	}
	if err := col.Delete(ctx, userID, id); err != nil {
		slog.Warn("Remote delete failed", "id", id, "error", err)
	}
}

// waitForUser returns the current identity, waiting up to AuthWait for a
// sign-in transition when there is none yet. Empty means give up.
func (b *Bridge) waitForUser(ctx context.Context) string {
	if id := b.auth.CurrentUserID(); id != "" {
		return id
	}

	ch := make(chan string, 1)
	unsub := b.auth.OnAuthStateChanged(func(id string) {
		if id != "" {
			select {
			case ch <- id:
			default:
			}
		}
	})
	defer unsub()

	// the transition may have happened between the check and the listener
	if id := b.auth.CurrentUserID(); id != "" {
		return id
	}

	wait := b.AuthWait
	if wait <= 0 {
		wait = DefaultAuthWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case id := <-ch:
		return id
	case <-timer.C:
		return ""
	case <-ctx.Done():
		return ""
	}
}

// sameSerialized reports content equality, order included.
func sameSerialized[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}

// sameCategorySet compares order-independently, since the merge rebuilds
// the slice in seed order while local edits preserve insertion order.
func sameCategorySet(a, b []core.Category) bool {
	if len(a) != len(b) {
		return false
	}
	index := func(cats []core.Category) map[string]string {
		m := make(map[string]string, len(cats))
		for _, c := range cats {
			raw, err := json.Marshal(c)
			if err != nil {
				return nil
			}
			m[c.ID] = string(raw)
		}
		return m
	}
	ma, mb := index(a), index(b)
	if ma == nil || mb == nil {
		return false
	}
	for id, raw := range ma {
		if mb[id] != raw {
			return false
		}
	}
	return true
}

func hasCustomCategories(cats []core.Category) bool {
	for _, c := range cats {
		if !c.IsDefault() || !core.IsSeedCategoryID(c.ID) {
			return true
		}
	}
	return false
}
