package store

import (
	"context"
	"sync"

	"tally/internal/core"
	"tally/internal/storage"
)

// Preferences is the observable settings singleton.
type Preferences struct {
	observable
	mu    sync.Mutex
	local *storage.Store
	prefs core.Preferences
}

// PreferencesPatch is a partial update; nil fields are left unchanged.
type PreferencesPatch struct {
	Currency   *string
	DateFormat *core.DateFormat
	Theme      *core.Theme
	Language   *string
}

func NewPreferences(local *storage.Store) *Preferences {
	return &Preferences{local: local, prefs: core.DefaultPreferences()}
}

// reset installs the loaded preferences, falling back to defaults when the
// stored record is empty.
func (s *Preferences) reset(p core.Preferences) {
	if p.Currency == "" {
		p = core.DefaultPreferences()
	}
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
	s.changed()
}

func (s *Preferences) Get() core.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Update applies the patch and persists the result.
func (s *Preferences) Update(ctx context.Context, patch PreferencesPatch) core.Preferences {
	s.mu.Lock()
	if patch.Currency != nil {
		s.prefs.Currency = *patch.Currency
	}
	if patch.DateFormat != nil {
		s.prefs.DateFormat = *patch.DateFormat
	}
	if patch.Theme != nil {
		s.prefs.Theme = *patch.Theme
	}
	if patch.Language != nil {
		s.prefs.Language = *patch.Language
	}
	updated := s.prefs
	s.local.SavePreferences(ctx, updated)
	s.mu.Unlock()
	s.changed()
	return updated
}

// Replace swaps the full preferences record, used by import.
func (s *Preferences) Replace(ctx context.Context, p core.Preferences) {
	if p.Currency == "" {
		p = core.DefaultPreferences()
	}
	s.mu.Lock()
	s.prefs = p
	s.local.SavePreferences(ctx, p)
	s.mu.Unlock()
	s.changed()
}
