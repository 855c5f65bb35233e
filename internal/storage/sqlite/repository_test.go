package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"spendlog/internal/core"
	"spendlog/internal/storage"
	"spendlog/internal/storage/storagetest"
)

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &storagetest.StoreSuite{
		NewStore: func() storage.Store {
			repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err, "failed to create test database")
			return repo
		},
	})
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "spendlog.db")
	ctx := context.Background()

	repo, err := NewRepository(path)
	require.NoError(t, err)
	e := core.Expense{
		ID:          "e1",
		OwnerID:     "u1",
		Amount:      core.Money{Minor: 250},
		Category:    "Food",
		Description: "coffee",
		Date:        core.MustDate("2024-03-01"),
		CreatedAt:   time.Date(2024, 3, 1, 8, 30, 0, 123456789, time.UTC),
	}
	require.NoError(t, repo.InsertExpense(ctx, e))
	require.NoError(t, repo.Close())

	// Migrations must be a no-op on an up-to-date schema.
	repo, err = NewRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.FindExpense(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)
	assert.Equal(t, "2024-03-01", got.Date.String())
}

func TestInsertRejectsNonPositiveAmount(t *testing.T) {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer repo.Close()

	err = repo.InsertExpense(context.Background(), core.Expense{
		ID: "e1", OwnerID: "u1", Amount: core.Money{Minor: 0},
		Category: "Food", Description: "x", Date: core.MustDate("2024-03-01"), CreatedAt: time.Now(),
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrConflict)
}
