package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
)

func TestAppendKeepsOrder(t *testing.T) {
	s := New()
	for i, id := range []string{"a", "b"} {
		ref, err := s.Append(context.Background(), core.Expense{ID: id, Amount: core.Money{Minor: 5}, Date: core.MustDate("2024-01-01")})
		require.NoError(t, err)
		assert.Equal(t, []string{"mem:1", "mem:2"}[i], ref)
	}

	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0][2])
	assert.Equal(t, "0.05", rows[1][5])
}

func TestFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)

	_, err := s.Append(context.Background(), core.Expense{})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Rows())

	s.FailWith(nil)
	_, err = s.Append(context.Background(), core.Expense{})
	assert.NoError(t, err)
}
