// Package memory is an in-process storage engine for tests and demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/storage"
)

type expenseKey struct {
	owner string
	id    string
}

// Store keeps everything in maps guarded by one mutex, which also makes
// the duplicate check and insert a single atomic step.
type Store struct {
	mu       sync.RWMutex
	expenses map[expenseKey]core.Expense
	byOwner  map[string][]expenseKey
	users    map[string]core.User
	names    map[string]string // lower-cased username -> user ID
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		expenses: make(map[expenseKey]core.Expense),
		byOwner:  make(map[string][]expenseKey),
		users:    make(map[string]core.User),
		names:    make(map[string]string),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// InsertExpense implements storage.ExpenseStore.
func (s *Store) InsertExpense(_ context.Context, e core.Expense) error {
	k := expenseKey{owner: e.OwnerID, id: e.ID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[k]; ok {
		return storage.ErrConflict
	}
	s.expenses[k] = e
	s.byOwner[e.OwnerID] = append(s.byOwner[e.OwnerID], k)
	return nil
}

// FindExpense implements storage.ExpenseStore.
func (s *Store) FindExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[expenseKey{owner: ownerID, id: id}]
	if !ok {
		return core.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

// ListExpenses implements storage.ExpenseStore.
func (s *Store) ListExpenses(_ context.Context, ownerID string, q storage.ListQuery) ([]core.Expense, error) {
	s.mu.RLock()
	out := make([]core.Expense, 0, len(s.byOwner[ownerID]))
	for _, k := range s.byOwner[ownerID] {
		e := s.expenses[k]
		if q.FiltersCategory() && !strings.EqualFold(e.Category, q.Category) {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date.Time) {
			if q.Order == storage.SortAscending {
				return a.Date.Before(b.Date.Time)
			}
			return a.Date.After(b.Date.Time)
		}
		if q.Order == storage.SortAscending {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

// DistinctCategories implements storage.ExpenseStore.
func (s *Store) DistinctCategories(_ context.Context, ownerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	var out []string
	for _, k := range s.byOwner[ownerID] {
		c := s.expenses[k].Category
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// CreateUser implements storage.UserStore.
func (s *Store) CreateUser(_ context.Context, u core.User) error {
	name := strings.ToLower(u.Username)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return storage.ErrConflict
	}
	if _, ok := s.names[name]; ok {
		return storage.ErrConflict
	}
	s.users[u.ID] = u
	s.names[name] = u.ID
	return nil
}

// FindUserByUsername implements storage.UserStore.
func (s *Store) FindUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.names[strings.ToLower(username)]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

// FindUserByID implements storage.UserStore.
func (s *Store) FindUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}
