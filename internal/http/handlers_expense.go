package http

import (
	"errors"
	"net/http"
	"strconv"

	"wallet/internal/ledger"
	"wallet/internal/log"
)

const (
	msgExpenseAdded   = "Expense added successfully!"
	msgBudgetUpdated  = "Budget updated successfully!"
	msgExpenseDeleted = "Expense deleted!"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse expense body failed", log.FieldError, err)
		s.fail(w, r, http.StatusBadRequest, "", "Invalid request format")
		return
	}

	e, err := s.ledger.AddExpense(ctx, p.ExpenseInput())
	if err != nil {
		s.mutationError(w, r, err, log.OpCreate)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, e)
		return
	}
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerLedgerChanged(s.ledger.Revision()).
		TriggerFormReset("expense").
		TriggerSuccessNotification(msgExpenseAdded).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		s.fail(w, r, http.StatusBadRequest, "id", "Invalid expense id")
		return
	}
	removed, err := s.ledger.DeleteExpense(r.Context(), id)
	if err != nil {
		s.mutationError(w, r, err, log.OpDelete)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": removed})
		return
	}
	b := NewHTMXResponse()
	// Deleting an unknown id leaves the ledger alone; the page still
	// refreshes in case it was showing a stale row.
	b.TriggerLedgerChanged(s.ledger.Revision())
	if removed {
		b.TriggerNotification(NotificationWarning, msgExpenseDeleted, 3000)
	}
	b.Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Parse budget body failed", log.FieldError, err)
		s.fail(w, r, http.StatusBadRequest, "", "Invalid request format")
		return
	}
	if err := s.ledger.SetBudget(ctx, p.BudgetInput()); err != nil {
		s.mutationError(w, r, err, log.OpBudget)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"budget": s.ledger.Budget()})
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(s.ledger.Revision()).
		TriggerNotification(NotificationInfo, msgBudgetUpdated, 3000).
		Write(w)
}

// mutationError maps ledger errors: bad input is 422, anything else is a
// storage failure and 500.
func (s *Server) mutationError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		s.fail(w, r, http.StatusUnprocessableEntity, verr.Field, "Invalid "+verr.Field+": "+verr.Err.Error())
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger mutation failed",
		log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	s.fail(w, r, http.StatusInternalServerError, "", "Could not save changes")
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, field, message string) {
	if wantsJSON(r) {
		writeJSON(w, status, apiError{Error: message, Field: field})
		return
	}
	b := ErrorResponse(status, message)
	if field != "" {
		b.Header("X-Error-Field", field)
	}
	b.Write(w)
}

func itoa(n int) string { return strconv.Itoa(n) }
