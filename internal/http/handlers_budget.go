package http

import (
	"net/http"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/store"
)

// createBudgetRequest is the POST body. A missing categoryId makes an
// overall budget, a missing startDate anchors to the period start.
type createBudgetRequest struct {
	CategoryID *string     `json:"categoryId"`
	Amount     core.Money  `json:"amount"`
	Period     core.Period `json:"period"`
	StartDate  core.Date   `json:"startDate"`
	EndDate    *core.Date  `json:"endDate"`
}

// updateBudgetRequest is a partial update. Overall moves the budget to
// all-categories scope, ClearEndDate makes it open-ended.
type updateBudgetRequest struct {
	Amount       *core.Money  `json:"amount"`
	Period       *core.Period `json:"period"`
	StartDate    *core.Date   `json:"startDate"`
	EndDate      *core.Date   `json:"endDate"`
	ClearEndDate bool         `json:"clearEndDate"`
	CategoryID   *string      `json:"categoryId"`
	Overall      bool         `json:"overall"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.reg.Budgets.All())
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := s.reg.Budgets.Get(r.PathValue("id"))
	if !ok {
		respondNotFound(w, "budget")
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	b := core.Budget{
		UserID:     s.userID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	if problems := core.ValidateBudget(b); len(problems) > 0 {
		respondProblems(w, problems)
		return
	}

	created := s.reg.Budgets.Add(r.Context(), b)
	s.notifyChange(amqp.CollectionBudgets, amqp.OpUpsert, created.ID)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req updateBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	patch := store.BudgetPatch{
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		ClearEnd:   req.ClearEndDate,
		CategoryID: req.CategoryID,
		Overall:    req.Overall,
	}
	updated, ok := s.reg.Budgets.Update(r.Context(), id, patch)
	if !ok {
		respondNotFound(w, "budget")
		return
	}
	s.notifyChange(amqp.CollectionBudgets, amqp.OpUpsert, id)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.reg.Budgets.Delete(r.Context(), id) {
		respondNotFound(w, "budget")
		return
	}
	s.notifyChange(amqp.CollectionBudgets, amqp.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.views.Progress())
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.views.Alerts())
}
