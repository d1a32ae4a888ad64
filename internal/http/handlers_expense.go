package http

import (
	"net/http"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/store"
)

// createExpenseRequest is the POST body. Amounts accept a decimal number
// or numeric string, dates the "2006-01-02" form.
type createExpenseRequest struct {
	Amount      core.Money         `json:"amount"`
	Description string             `json:"description"`
	CategoryID  string             `json:"categoryId"`
	Date        core.Date          `json:"date"`
	Merchant    string             `json:"merchant"`
	Payment     core.PaymentMethod `json:"paymentMethod"`
	Notes       string             `json:"notes"`
	Tags        []string           `json:"tags"`
}

// updateExpenseRequest is a partial update; absent fields are left
// unchanged. A present tags array replaces the existing tags.
type updateExpenseRequest struct {
	Amount      *core.Money         `json:"amount"`
	Description *string             `json:"description"`
	CategoryID  *string             `json:"categoryId"`
	Date        *core.Date          `json:"date"`
	Merchant    *string             `json:"merchant"`
	Payment     *core.PaymentMethod `json:"paymentMethod"`
	Notes       *string             `json:"notes"`
	Tags        []string            `json:"tags"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, err := parseExpenseFilters(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	field, dir, err := parseSort(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.views.Filtered(filters, field, dir))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := s.reg.Expenses.Get(r.PathValue("id"))
	if !ok {
		respondNotFound(w, "expense")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := core.Expense{
		UserID:      s.userID,
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Date:        req.Date,
		Merchant:    req.Merchant,
		Payment:     req.Payment,
		Notes:       req.Notes,
		Tags:        req.Tags,
	}
	if problems := core.ValidateExpense(e); len(problems) > 0 {
		respondProblems(w, problems)
		return
	}

	created := s.reg.Expenses.Add(r.Context(), e)
	s.notifyChange(amqp.CollectionExpenses, amqp.OpUpsert, created.ID)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	patch := store.ExpensePatch{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Date:        req.Date,
		Merchant:    req.Merchant,
		Payment:     req.Payment,
		Notes:       req.Notes,
		Tags:        req.Tags,
	}
	updated, ok := s.reg.Expenses.Update(r.Context(), id, patch)
	if !ok {
		respondNotFound(w, "expense")
		return
	}
	// the push path skips records that fail validation, so an edit that
	// leaves the record invalid stays local until corrected
	s.notifyChange(amqp.CollectionExpenses, amqp.OpUpsert, id)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.reg.Expenses.Delete(r.Context(), id) {
		respondNotFound(w, "expense")
		return
	}
	s.notifyChange(amqp.CollectionExpenses, amqp.OpDelete, id)
	w.WriteHeader(http.StatusNoContent)
}
