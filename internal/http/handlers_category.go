package http

import (
	"net/http"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/store"
)

type createCategoryRequest struct {
	Name         string      `json:"name"`
	Icon         string      `json:"icon"`
	Color        string      `json:"color"`
	ParentID     string      `json:"parentId"`
	Budget       *core.Money `json:"budget"`
	BudgetPeriod core.Period `json:"budgetPeriod"`
}

// updateCategoryRequest is a partial update. ClearBudget removes the
// per-category budget; a plain budget field sets it.
type updateCategoryRequest struct {
	Name         *string      `json:"name"`
	Icon         *string      `json:"icon"`
	Color        *string      `json:"color"`
	ParentID     *string      `json:"parentId"`
	Budget       *core.Money  `json:"budget"`
	ClearBudget  bool         `json:"clearBudget"`
	BudgetPeriod *core.Period `json:"budgetPeriod"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.reg.Categories.All())
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := s.reg.Categories.Get(r.PathValue("id"))
	if !ok {
		respondNotFound(w, "category")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := core.Category{
		Name:         req.Name,
		Icon:         req.Icon,
		Color:        req.Color,
		ParentID:     req.ParentID,
		Budget:       req.Budget,
		BudgetPeriod: req.BudgetPeriod,
	}
	if s.userID != "" {
		owner := s.userID
		c.UserID = &owner
	}
	if problems := core.ValidateCategory(c); len(problems) > 0 {
		respondProblems(w, problems)
		return
	}

	created := s.reg.Categories.Add(r.Context(), c)
	s.notifyChange(amqp.CollectionCategories, amqp.OpUpsert, created.ID)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	patch := store.CategoryPatch{
		Name:         req.Name,
		Icon:         req.Icon,
		Color:        req.Color,
		ParentID:     req.ParentID,
		Budget:       req.Budget,
		ClearBudget:  req.ClearBudget,
		BudgetPeriod: req.BudgetPeriod,
	}
	// editing a shared default under an identity converts it to a
	// user-owned copy inside the store
	updated, ok := s.reg.Categories.Update(r.Context(), id, s.userID, patch)
	if !ok {
		respondNotFound(w, "category")
		return
	}
	s.notifyChange(amqp.CollectionCategories, amqp.OpUpsert, id)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := s.reg.Categories.Get(id)
	if !ok {
		respondNotFound(w, "category")
		return
	}
	if c.IsDefault() {
		respondError(w, http.StatusForbidden, "default categories cannot be deleted")
		return
	}
	if !s.reg.Categories.Delete(r.Context(), id) {
		respondNotFound(w, "category")
		return
	}
	s.notifyChange(amqp.CollectionCategories, amqp.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
