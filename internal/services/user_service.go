package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/storage"
)

// Messages returned to clients by the account endpoints.
const (
	MsgUsernameRequired    = "Username is required"
	MsgCredentialsRequired = "Username and password required"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
)

// MsgPasswordTooShort formats the minimum-length rule.
func MsgPasswordTooShort(min int) string {
	return fmt.Sprintf("Password must be at least %d characters", min)
}

// UserService registers accounts and checks credentials.
type UserService struct {
	users      storage.UserStore
	minLength  int
	bcryptCost int
	now        func() time.Time
}

// UserOption customises a UserService.
type UserOption func(*UserService)

// WithBcryptCost sets the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) UserOption {
	return func(s *UserService) { s.bcryptCost = cost }
}

func NewUserService(users storage.UserStore, passwordMinLength int, opts ...UserOption) *UserService {
	if passwordMinLength < 1 {
		passwordMinLength = 4
	}
	s := &UserService{
		users:      users,
		minLength:  passwordMinLength,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. The username is trimmed and must be unique
// without regard to case.
func (s *UserService) Register(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, &ValidationError{Message: MsgUsernameRequired}
	}
	if utf8.RuneCountInString(password) < s.minLength {
		return core.User{}, &ValidationError{Message: MsgPasswordTooShort(s.minLength)}
	}

	if _, err := s.users.FindUserByUsername(ctx, username); err == nil {
		return core.User{}, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return core.User{}, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return core.User{}, &ValidationError{Message: MsgPasswordTooLong}
	}
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", log.FieldOwnerID, u.ID, log.FieldUsername, u.Username)
	return u, nil
}

// Login returns the account matching username and password. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return core.User{}, &ValidationError{Message: MsgCredentialsRequired}
	}

	u, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Login failed", log.FieldUsername, username)
		return core.User{}, ErrInvalidCredentials
	}
	return u, nil
}
