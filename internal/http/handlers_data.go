package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"tally/internal/core"
	"tally/internal/storage"
	"tally/internal/store"
	tallysync "tally/internal/sync"
)

type updatePreferencesRequest struct {
	Currency   *string          `json:"currency"`
	DateFormat *core.DateFormat `json:"dateFormat"`
	Theme      *core.Theme      `json:"theme"`
	Language   *string          `json:"language"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.reg.Preferences.Get())
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req updatePreferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated := s.reg.Preferences.Update(r.Context(), store.PreferencesPatch{
		Currency:   req.Currency,
		DateFormat: req.DateFormat,
		Theme:      req.Theme,
		Language:   req.Language,
	})
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	body, err := storage.ExportJSON(s.reg.Snapshot())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tally-backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	body, err := storage.ExportCSV(s.reg.Expenses.All(), s.reg.Categories.All())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tally-expenses.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleImport replaces the full local state with an uploaded backup. The
// result message is shown to the user verbatim, whether or not the file
// was accepted.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxImportBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	data, result := storage.ImportJSON(payload)
	if !result.Success {
		respondJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	s.reg.Import(r.Context(), data)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSyncStart(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		respondError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}
	// subscriptions must outlive this request
	if err := s.bridge.Start(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, tallysync.ErrNotAuthenticated) {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.bridge.Status())
}

func (s *Server) handleSyncStop(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		respondError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}
	s.bridge.Stop()
	respondJSON(w, http.StatusOK, s.bridge.Status())
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		respondJSON(w, http.StatusOK, tallysync.Status{})
		return
	}
	respondJSON(w, http.StatusOK, s.bridge.Status())
}
