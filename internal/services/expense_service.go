package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"spendlog/internal/cache"
	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/storage"
)

// MsgValidationFailed is the summary of a rejected expense.
const MsgValidationFailed = "Validation failed"

// EventPublisher announces persisted expenses to downstream consumers.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, ownerID, expenseID string) error
}

// CreateResult is the outcome of a write. Replayed is true when the
// returned expense already existed under the same idempotency key.
type CreateResult struct {
	Expense  core.Expense
	Replayed bool
}

// ExpenseList is a filtered, ordered listing with its total.
type ExpenseList = core.ExpenseSummary

// ExpenseService implements the expense write, read and category paths.
type ExpenseService struct {
	store      storage.ExpenseStore
	validator  *core.Validator
	publisher  EventPublisher
	categories *cache.LRUCache[[]string]
	loads      singleflight.Group
	now        func() time.Time
	newID      func() string
}

// ExpenseOption customises an ExpenseService.
type ExpenseOption func(*ExpenseService)

// WithPublisher publishes an event after every fresh insert.
func WithPublisher(p EventPublisher) ExpenseOption {
	return func(s *ExpenseService) { s.publisher = p }
}

// WithCategoryCache caches merged category lists per owner.
func WithCategoryCache(c *cache.LRUCache[[]string]) ExpenseOption {
	return func(s *ExpenseService) { s.categories = c }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) ExpenseOption {
	return func(s *ExpenseService) { s.now = now }
}

// WithIDGenerator overrides how server-side expense IDs are made.
func WithIDGenerator(newID func() string) ExpenseOption {
	return func(s *ExpenseService) { s.newID = newID }
}

func NewExpenseService(store storage.ExpenseStore, validator *core.Validator, opts ...ExpenseOption) *ExpenseService {
	if validator == nil {
		validator = core.NewValidator(core.DefaultLimits())
	}
	s := &ExpenseService{
		store:     store,
		validator: validator,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records an expense for owner. A non-empty idempotencyKey becomes
// the expense ID; repeating it returns the stored expense unchanged, even
// if the new payload differs or is invalid.
func (s *ExpenseService) Create(ctx context.Context, owner, idempotencyKey string, in core.ExpenseInput) (CreateResult, error) {
	if owner == "" {
		return CreateResult{}, ErrUnauthorized
	}
	key := strings.TrimSpace(idempotencyKey)

	if key != "" {
		existing, err := s.store.FindExpense(ctx, owner, key)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "Idempotent replay",
				log.FieldOwnerID, owner,
				log.FieldExpenseID, key)
			return CreateResult{Expense: existing, Replayed: true}, nil
		case !errors.Is(err, storage.ErrNotFound):
			return CreateResult{}, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	if violations := s.validator.Validate(in); len(violations) > 0 {
		return CreateResult{}, &ValidationError{Message: MsgValidationFailed, Details: violations}
	}

	minor, err := core.ToMinorUnits(in.Amount)
	if err != nil {
		return CreateResult{}, fmt.Errorf("convert amount: %w", err)
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return CreateResult{}, fmt.Errorf("parse date: %w", err)
	}

	id := key
	if id == "" {
		id = s.newID()
	}
	norm := in.Normalize()
	e := core.Expense{
		ID:          id,
		OwnerID:     owner,
		Amount:      core.Money{Minor: minor},
		Category:    norm.Category,
		Description: norm.Description,
		Date:        date,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.store.InsertExpense(ctx, e); err != nil {
		if !errors.Is(err, storage.ErrConflict) {
			return CreateResult{}, fmt.Errorf("insert expense: %w", err)
		}
		// A concurrent write with the same key won; its row is committed.
		winner, findErr := s.store.FindExpense(ctx, owner, id)
		if findErr != nil {
			return CreateResult{}, fmt.Errorf("fetch conflicting expense: %w", findErr)
		}
		slog.InfoContext(ctx, "Idempotent replay after insert conflict",
			log.FieldOwnerID, owner,
			log.FieldExpenseID, id)
		return CreateResult{Expense: winner, Replayed: true}, nil
	}

	if s.categories != nil {
		s.categories.Delete(owner)
	}
	s.publish(ctx, e)

	slog.DebugContext(ctx, "Expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldOwnerID, owner,
		log.FieldExpenseID, e.ID,
		log.FieldAmountMinor, e.Amount.Minor,
		log.FieldCategory, e.Category)

	return CreateResult{Expense: e}, nil
}

func (s *ExpenseService) publish(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		return
	}
	// The row is committed; a client hanging up must not drop the event.
	if err := s.publisher.PublishExpenseCreated(context.WithoutCancel(ctx), e.OwnerID, e.ID); err != nil {
		// The expense is stored; the mirror is best effort.
		slog.ErrorContext(ctx, "Failed to publish expense created message",
			log.FieldOperation, log.OpPublish,
			log.FieldOwnerID, e.OwnerID,
			log.FieldExpenseID, e.ID,
			log.FieldError, err)
	}
}

// List returns owner's expenses filtered by category (case-insensitive;
// empty or "all" disables the filter) and ordered by date then creation
// time. sort "date_asc" is ascending; anything else is descending.
func (s *ExpenseService) List(ctx context.Context, owner, category, sort string) (ExpenseList, error) {
	if owner == "" {
		return ExpenseList{}, ErrUnauthorized
	}
	q := storage.ListQuery{
		Category: strings.TrimSpace(category),
		Order:    storage.ParseSortOrder(sort),
	}
	expenses, err := s.store.ListExpenses(ctx, owner, q)
	if err != nil {
		return ExpenseList{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.Summarize(expenses), nil
}

// Categories returns the default categories merged with the ones owner
// has used, deduplicated and sorted.
func (s *ExpenseService) Categories(ctx context.Context, owner string) ([]string, error) {
	if owner == "" {
		return nil, ErrUnauthorized
	}
	if s.categories == nil {
		return s.loadCategories(ctx, owner)
	}
	if cached, ok := s.categories.Get(owner); ok {
		return slices.Clone(cached), nil
	}

	// The load is shared by every caller collapsed onto it, so it must not
	// die with the first caller's request.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.loads.Do(owner, func() (any, error) {
		epoch := s.categories.Epoch()
		merged, err := s.loadCategories(loadCtx, owner)
		if err != nil {
			return nil, err
		}
		s.categories.SetIfEpoch(owner, epoch, merged)
		return merged, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]string)), nil
}

func (s *ExpenseService) loadCategories(ctx context.Context, owner string) ([]string, error) {
	used, err := s.store.DistinctCategories(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	return core.MergeCategories(used), nil
}
