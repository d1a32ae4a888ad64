// Package storage is the persistent local store: a single keyed JSON
// document (expenses, categories, budgets, preferences) held in one SQLite
// row. It is a durable mirror with no authority of its own: collection
// stores write through it on every mutation and read it only at
// initialization. All operations degrade to in-memory defaults instead of
// failing when the backing medium is unavailable.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// stateKey identifies the single document row.
const stateKey = "tally"

// Store provides versioned read/modify/write access to the local document.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open prepares the store at dbPath. It never fails: when the directory,
// database or migrations are unusable the store runs degraded: Load
// returns defaults and Save reports false.
func Open(dbPath string) *Store {
	db, err := open(dbPath)
	if err != nil {
		slog.Warn("Local storage unavailable, using in-memory defaults",
			"path", dbPath, "error", err)
		return &Store{}
	}
	return &Store{db: db}
}

func open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Available reports whether the backing medium is usable.
func (s *Store) Available() bool {
	return s.db != nil
}

// Load returns the persisted document, or a default empty one when no
// record exists or the medium is unavailable. It never fails. Documents
// written by older versions are migrated forward and persisted before
// being returned.
func (s *Store) Load(ctx context.Context) core.StorageData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) core.StorageData {
	if s.db == nil {
		return core.DefaultStorageData()
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM app_state WHERE key = ?`, stateKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return core.DefaultStorageData()
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to read local storage, using defaults", "error", err)
		return core.DefaultStorageData()
	}

	var data core.StorageData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		slog.WarnContext(ctx, "Corrupt local storage document, using defaults", "error", err)
		return core.DefaultStorageData()
	}
	normalize(&data)

	if data.Version < core.StorageVersion {
		from := data.Version
		data = MigrateDocument(data)
		if s.saveLocked(ctx, data) {
			slog.InfoContext(ctx, "Migrated local storage document",
				"from_version", from, "to_version", data.Version)
		}
	}

	return data
}

// Save persists the full document, stamping lastUpdated. Returns false
// (never an error) when the medium is unavailable.
func (s *Store) Save(ctx context.Context, data core.StorageData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, data)
}

func (s *Store) saveLocked(ctx context.Context, data core.StorageData) bool {
	if s.db == nil {
		return false
	}

	data.LastUpdated = time.Now().UTC()
	normalize(&data)

	raw, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode storage document", "error", err)
		return false
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO app_state (key, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		stateKey, string(raw), data.LastUpdated)
	if err != nil {
		slog.WarnContext(ctx, "Failed to write local storage", "error", err)
		return false
	}
	return true
}

// SaveExpenses rewrites only the expenses field via read-modify-write.
// Partial saves from different collections are not atomic relative to each
// other; the last full-document write wins at the field level.
func (s *Store) SaveExpenses(ctx context.Context, expenses []core.Expense) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.loadLocked(ctx)
	data.Expenses = expenses
	return s.saveLocked(ctx, data)
}

// SaveCategories rewrites only the categories field.
func (s *Store) SaveCategories(ctx context.Context, categories []core.Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.loadLocked(ctx)
	data.Categories = categories
	return s.saveLocked(ctx, data)
}

// SaveBudgets rewrites only the budgets field.
func (s *Store) SaveBudgets(ctx context.Context, budgets []core.Budget) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.loadLocked(ctx)
	data.Budgets = budgets
	return s.saveLocked(ctx, data)
}

// SavePreferences rewrites only the preferences field.
func (s *Store) SavePreferences(ctx context.Context, prefs core.Preferences) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.loadLocked(ctx)
	data.Preferences = prefs
	return s.saveLocked(ctx, data)
}

// Clear removes the persisted document entirely.
func (s *Store) Clear(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM app_state WHERE key = ?`, stateKey); err != nil {
		slog.WarnContext(ctx, "Failed to clear local storage", "error", err)
		return false
	}
	return true
}

// normalize keeps collection fields non-nil so the JSON form always carries
// arrays rather than nulls.
func normalize(data *core.StorageData) {
	if data.Expenses == nil {
		data.Expenses = []core.Expense{}
	}
	if data.Categories == nil {
		data.Categories = []core.Category{}
	}
	if data.Budgets == nil {
		data.Budgets = []core.Budget{}
	}
}
