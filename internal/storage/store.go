// Package storage defines the persistence contract for users and expenses.
// Engines live in the sqlite, postgres and memory subpackages.
package storage

import (
	"context"
	"errors"
	"strings"

	"spendlog/internal/core"
)

var (
	// ErrConflict is returned when a record with the same key already exists.
	ErrConflict = errors.New("storage: conflict")
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("storage: not found")
)

// AllCategories is the filter value that disables category filtering.
const AllCategories = "all"

// SortOrder is the direction applied to both date and creation time.
type SortOrder int

const (
	SortDescending SortOrder = iota
	SortAscending
)

// ParseSortOrder maps the query parameter to an order. Only "date_asc"
// selects ascending; every other value, including empty, is descending.
func ParseSortOrder(s string) SortOrder {
	if s == "date_asc" {
		return SortAscending
	}
	return SortDescending
}

// SQL returns the keyword for the order.
func (o SortOrder) SQL() string {
	if o == SortAscending {
		return "ASC"
	}
	return "DESC"
}

// ListQuery narrows and orders an owner's expenses.
type ListQuery struct {
	Category string
	Order    SortOrder
}

// FiltersCategory reports whether the query restricts by category.
func (q ListQuery) FiltersCategory() bool {
	return q.Category != "" && !strings.EqualFold(q.Category, AllCategories)
}

// ExpenseStore persists expenses keyed by (owner, id).
type ExpenseStore interface {
	// InsertExpense stores e atomically. It returns ErrConflict when the
	// owner already has an expense with the same ID.
	InsertExpense(ctx context.Context, e core.Expense) error
	FindExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, ownerID string, q ListQuery) ([]core.Expense, error)
	DistinctCategories(ctx context.Context, ownerID string) ([]string, error)
}

// UserStore persists accounts. Usernames are unique case-insensitively.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) error
	FindUserByUsername(ctx context.Context, username string) (core.User, error)
	FindUserByID(ctx context.Context, id string) (core.User, error)
}

// Store is a complete engine.
type Store interface {
	ExpenseStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}
