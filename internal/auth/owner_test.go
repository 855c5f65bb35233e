package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
	"spendlog/internal/storage"
	"spendlog/internal/storage/memory"
)

func TestHeaderResolver(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		value   string
		want    string
		wantErr bool
	}{
		{"default header", "", "u1", "u1", false},
		{"custom header", "X-Account", "acct", "acct", false},
		{"trimmed", "", "  u2 ", "u2", false},
		{"missing", "", "", "", true},
		{"blank", "", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			name := tt.header
			if name == "" {
				name = DefaultOwnerHeader
			}
			if tt.value != "" {
				r.Header.Set(name, tt.value)
			}
			got, err := HeaderResolver{Header: tt.header}.ResolveOwner(r)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoOwner)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type brokenUsers struct{ storage.UserStore }

func (brokenUsers) FindUserByID(context.Context, string) (core.User, error) {
	return core.User{}, errors.New("db down")
}

func TestVerifiedOwnerResolver(t *testing.T) {
	users := memory.New()
	require.NoError(t, users.CreateUser(context.Background(), core.User{ID: "u1", Username: "alice", CreatedAt: time.Now()}))
	resolver := VerifiedOwnerResolver{Next: HeaderResolver{}, Users: users}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(DefaultOwnerHeader, "u1")
	owner, err := resolver.ResolveOwner(r)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	r.Header.Set(DefaultOwnerHeader, "ghost")
	_, err = resolver.ResolveOwner(r)
	assert.ErrorIs(t, err, ErrNoOwner)

	r.Header.Del(DefaultOwnerHeader)
	_, err = resolver.ResolveOwner(r)
	assert.ErrorIs(t, err, ErrNoOwner)

	r.Header.Set(DefaultOwnerHeader, "u1")
	_, err = VerifiedOwnerResolver{Next: HeaderResolver{}, Users: brokenUsers{}}.ResolveOwner(r)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoOwner)
}

func TestRequireOwner(t *testing.T) {
	var seen string
	h := RequireOwner(HeaderResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())
	assert.Empty(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set(DefaultOwnerHeader, "u7")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u7", seen)
}

func TestRequireOwnerResolverFailure(t *testing.T) {
	h := RequireOwner(VerifiedOwnerResolver{Next: HeaderResolver{}, Users: brokenUsers{}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set(DefaultOwnerHeader, "u1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
