package http

import (
	"encoding/json"
	"net/http"
)

// cachedStats serves a derived-statistics payload through the LRU cache.
// The key carries the store versions, so any mutation invalidates the
// cached payload immediately.
func (s *Server) cachedStats(w http.ResponseWriter, name string, versions []uint64, compute func() any) {
	key := s.statsKey(name, versions...)
	body := s.statsCache.GetOrCompute(key, func() []byte {
		b, err := json.Marshal(compute())
		if err != nil {
			return nil
		}
		return b
	})
	if body == nil {
		respondError(w, http.StatusInternalServerError, "stats encoding failed")
		return
	}
	respondRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleStatsToday(w http.ResponseWriter, r *http.Request) {
	s.cachedStats(w, "today", []uint64{s.reg.Expenses.Version()}, func() any {
		return s.views.Today()
	})
}

func (s *Server) handleStatsWeek(w http.ResponseWriter, r *http.Request) {
	s.cachedStats(w, "week", []uint64{s.reg.Expenses.Version()}, func() any {
		return s.views.Week()
	})
}

func (s *Server) handleStatsMonth(w http.ResponseWriter, r *http.Request) {
	s.cachedStats(w, "month", []uint64{s.reg.Expenses.Version()}, func() any {
		return s.views.Month()
	})
}

func (s *Server) handleStatsCategories(w http.ResponseWriter, r *http.Request) {
	versions := []uint64{s.reg.Expenses.Version(), s.reg.Categories.Version()}
	s.cachedStats(w, "categories", versions, func() any {
		return s.views.ByCategory()
	})
}
