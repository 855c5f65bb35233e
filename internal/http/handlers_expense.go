package http

import (
	"errors"
	"net/http"

	"spendlog/internal/auth"
	"spendlog/internal/log"
	"spendlog/internal/services"
)

// HeaderIdempotencyKey carries the client-chosen expense ID.
const HeaderIdempotencyKey = "Idempotency-Key"

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	var req createExpenseRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadBody.Error())
		return
	}

	res, err := s.expenses.Create(r.Context(), owner, r.Header.Get(HeaderIdempotencyKey), req.input())
	var ve *services.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Details: ve.Details})
		return
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	default:
		s.internalError(w, r, "Failed to save expense", err, log.OpCreate)
		return
	}

	e := res.Expense
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogExpenseCreated(r.Context(), owner, e.ID, e.Amount.Minor, e.Category, res.Replayed)

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, newExpenseResponse(e, res.Replayed))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.expenses.List(r.Context(), auth.OwnerFromContext(r.Context()), q.Get("category"), q.Get("sort"))
	if err != nil {
		s.listError(w, r, "Failed to list expenses", err, log.OpList,
			log.NewFields().WithListQuery(q.Get("category"), q.Get("sort")))
		return
	}
	writeJSON(w, http.StatusOK, newExpenseListResponse(list))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.expenses.Categories(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		s.listError(w, r, "Failed to load categories", err, log.OpRead, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": cats})
}

func (s *Server) listError(w http.ResponseWriter, r *http.Request, msg string, err error, op string, fields log.LogFields) {
	if errors.Is(err, services.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	s.internalErrorWith(w, r, msg, err, op, fields)
}
