// Package storagetest holds the behaviour every storage engine must share.
package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"spendlog/internal/core"
	"spendlog/internal/storage"
)

// StoreSuite runs the storage contract against the store returned by
// NewStore. A fresh store is created for every test.
type StoreSuite struct {
	suite.Suite
	NewStore func() storage.Store

	store storage.Store
	ctx   context.Context
	base  time.Time
}

// SetupTest runs before each test
func (s *StoreSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
	s.base = time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)
}

// TearDownTest runs after each test
func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreSuite) expense(owner, id, amount, category, date string, offset time.Duration) core.Expense {
	minor, err := core.ToMinorUnits(amount)
	require.NoError(s.T(), err)
	return core.Expense{
		ID:          id,
		OwnerID:     owner,
		Amount:      core.Money{Minor: minor},
		Category:    category,
		Description: "desc " + id,
		Date:        core.MustDate(date),
		CreatedAt:   s.base.Add(offset),
	}
}

func (s *StoreSuite) insert(e core.Expense) {
	require.NoError(s.T(), s.store.InsertExpense(s.ctx, e), "insert %s", e.ID)
}

func (s *StoreSuite) TestInsertAndFind() {
	want := s.expense("u1", "e1", "12.34", "Food", "2024-01-15", 0)
	s.insert(want)

	got, err := s.store.FindExpense(s.ctx, "u1", "e1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), want.ID, got.ID)
	assert.Equal(s.T(), want.OwnerID, got.OwnerID)
	assert.Equal(s.T(), int64(1234), got.Amount.Minor)
	assert.Equal(s.T(), "Food", got.Category)
	assert.Equal(s.T(), "desc e1", got.Description)
	assert.Equal(s.T(), "2024-01-15", got.Date.String())
	assert.True(s.T(), want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, want.CreatedAt)
}

func (s *StoreSuite) TestFindMissing() {
	_, err := s.store.FindExpense(s.ctx, "u1", "nope")
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *StoreSuite) TestDuplicateKeyConflicts() {
	s.insert(s.expense("u1", "k1", "10", "Food", "2024-01-15", 0))

	err := s.store.InsertExpense(s.ctx, s.expense("u1", "k1", "99", "Other", "2024-01-16", time.Minute))
	assert.ErrorIs(s.T(), err, storage.ErrConflict)

	got, err := s.store.FindExpense(s.ctx, "u1", "k1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1000), got.Amount.Minor, "first write must win")
}

func (s *StoreSuite) TestKeysAreScopedPerOwner() {
	s.insert(s.expense("u1", "shared", "10", "Food", "2024-01-15", 0))
	s.insert(s.expense("u2", "shared", "20", "Food", "2024-01-15", 0))

	a, err := s.store.FindExpense(s.ctx, "u1", "shared")
	require.NoError(s.T(), err)
	b, err := s.store.FindExpense(s.ctx, "u2", "shared")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1000), a.Amount.Minor)
	assert.Equal(s.T(), int64(2000), b.Amount.Minor)
}

func (s *StoreSuite) TestConcurrentInsertsProduceOneRow() {
	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.InsertExpense(s.ctx, s.expense("u1", "race", "5", "Food", "2024-01-15", 0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(s.T(), err, storage.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(s.T(), 1, successes)
	assert.Equal(s.T(), writers-1, conflicts)
	list, err := s.store.ListExpenses(s.ctx, "u1", storage.ListQuery{})
	require.NoError(s.T(), err)
	assert.Len(s.T(), list, 1)
}

func (s *StoreSuite) TestListOrderingAndFilter() {
	s.insert(s.expense("u1", "a", "1", "Food", "2024-01-10", 0))
	s.insert(s.expense("u1", "b", "2", "food", "2024-01-12", 0))
	s.insert(s.expense("u1", "c", "3", "Transport", "2024-01-12", time.Second))
	s.insert(s.expense("u1", "d", "4", "FOOD", "2024-01-05", 0))
	s.insert(s.expense("u2", "x", "9", "Food", "2024-01-11", 0))

	ids := func(es []core.Expense) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.ID
		}
		return out
	}

	desc, err := s.store.ListExpenses(s.ctx, "u1", storage.ListQuery{Order: storage.SortDescending})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"c", "b", "a", "d"}, ids(desc))

	asc, err := s.store.ListExpenses(s.ctx, "u1", storage.ListQuery{Order: storage.SortAscending})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"d", "a", "b", "c"}, ids(asc))

	food, err := s.store.ListExpenses(s.ctx, "u1", storage.ListQuery{Category: "fOoD", Order: storage.SortAscending})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"d", "a", "b"}, ids(food))

	all, err := s.store.ListExpenses(s.ctx, "u1", storage.ListQuery{Category: "ALL"})
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 4)

	none, err := s.store.ListExpenses(s.ctx, "nobody", storage.ListQuery{})
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), none)
	assert.Empty(s.T(), none)
}

func (s *StoreSuite) TestDistinctCategories() {
	s.insert(s.expense("u1", "a", "1", "Food", "2024-01-10", 0))
	s.insert(s.expense("u1", "b", "1", "Pets", "2024-01-10", 0))
	s.insert(s.expense("u1", "c", "1", "Pets", "2024-01-10", 0))
	s.insert(s.expense("u2", "d", "1", "Travel", "2024-01-10", 0))

	got, err := s.store.DistinctCategories(s.ctx, "u1")
	require.NoError(s.T(), err)
	assert.ElementsMatch(s.T(), []string{"Food", "Pets"}, got)
}

func (s *StoreSuite) TestUsers() {
	u := core.User{ID: "id-1", Username: "Alice", PasswordHash: "hash", CreatedAt: s.base}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, u))

	byName, err := s.store.FindUserByUsername(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "id-1", byName.ID)
	assert.Equal(s.T(), "Alice", byName.Username)
	assert.Equal(s.T(), "hash", byName.PasswordHash)

	byID, err := s.store.FindUserByID(s.ctx, "id-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Alice", byID.Username)

	err = s.store.CreateUser(s.ctx, core.User{ID: "id-2", Username: "ALICE", PasswordHash: "x", CreatedAt: s.base})
	assert.ErrorIs(s.T(), err, storage.ErrConflict)

	_, err = s.store.FindUserByUsername(s.ctx, "bob")
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)
	_, err = s.store.FindUserByID(s.ctx, "id-2")
	assert.ErrorIs(s.T(), err, storage.ErrNotFound)
}

func (s *StoreSuite) TestPing() {
	assert.NoError(s.T(), s.store.Ping(s.ctx))
}
