package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"spendlog/internal/storage"
	"spendlog/internal/storage/storagetest"
)

// Runs only against a disposable database named by TEST_POSTGRES_DSN.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	suite.Run(t, &storagetest.StoreSuite{
		NewStore: func() storage.Store {
			ctx := context.Background()
			s, err := Open(ctx, dsn)
			require.NoError(t, err)
			_, err = s.pool.Exec(ctx, `TRUNCATE expenses, users`)
			require.NoError(t, err)
			return s
		},
	})
}
