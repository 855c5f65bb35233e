// Package auth resolves which user a request acts for.
//
// The default resolver trusts a caller-asserted header. VerifiedOwnerResolver
// additionally requires the asserted user to exist; a signed-token resolver
// can be dropped in behind the same interface.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"spendlog/internal/log"
	"spendlog/internal/storage"
)

// DefaultOwnerHeader carries the caller-asserted user ID.
const DefaultOwnerHeader = "X-User-Id"

// ErrNoOwner means the request carries no acceptable identity.
var ErrNoOwner = errors.New("no owner identity")

// OwnerResolver extracts the owner ID from a request.
type OwnerResolver interface {
	ResolveOwner(r *http.Request) (string, error)
}

// HeaderResolver reads the owner from a request header.
type HeaderResolver struct {
	Header string
}

func (h HeaderResolver) ResolveOwner(r *http.Request) (string, error) {
	name := h.Header
	if name == "" {
		name = DefaultOwnerHeader
	}
	owner := strings.TrimSpace(r.Header.Get(name))
	if owner == "" {
		return "", ErrNoOwner
	}
	return owner, nil
}

// VerifiedOwnerResolver accepts an owner from Next only if it names a
// registered user.
type VerifiedOwnerResolver struct {
	Next  OwnerResolver
	Users storage.UserStore
}

func (v VerifiedOwnerResolver) ResolveOwner(r *http.Request) (string, error) {
	owner, err := v.Next.ResolveOwner(r)
	if err != nil {
		return "", err
	}
	if _, err := v.Users.FindUserByID(r.Context(), owner); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNoOwner
		}
		return "", fmt.Errorf("verify owner: %w", err)
	}
	return owner, nil
}

type ownerKey struct{}

// WithOwner stores the resolved owner in ctx.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner stored by RequireOwner, or "".
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// RequireOwner rejects requests without an identity with 401 and puts the
// owner in the request context for downstream handlers.
func RequireOwner(resolver OwnerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := resolver.ResolveOwner(r)
			switch {
			case errors.Is(err, ErrNoOwner):
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			case err != nil:
				slog.ErrorContext(r.Context(), "Owner resolution failed", log.FieldError, err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
