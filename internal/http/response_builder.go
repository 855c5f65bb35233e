package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/log"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type expenseResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
	CreatedAt   string `json:"created_at"`
	Idempotent  bool   `json:"_idempotent,omitempty"`
}

type expenseListResponse struct {
	Expenses []expenseResponse `json:"expenses"`
	Total    string            `json:"total"`
	Count    int               `json:"count"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func newExpenseResponse(e core.Expense, replayed bool) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		UserID:      e.OwnerID,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date.String(),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		Idempotent:  replayed,
	}
}

func newExpenseListResponse(list core.ExpenseSummary) expenseListResponse {
	out := expenseListResponse{
		Expenses: make([]expenseResponse, 0, len(list.Expenses)),
		Total:    list.Total.String(),
		Count:    list.Count,
	}
	for _, e := range list.Expenses {
		out.Expenses = append(out.Expenses, newExpenseResponse(e, false))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
