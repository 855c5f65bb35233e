// Package postgres is the PostgreSQL storage engine.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/storage"
)

// Store implements storage.Store against PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// Open connects to dsn, verifies the connection and creates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := NewStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return s, nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the tables if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username));
		CREATE TABLE IF NOT EXISTS expenses (
			owner_id     TEXT NOT NULL,
			id           TEXT NOT NULL,
			amount_minor BIGINT NOT NULL CHECK (amount_minor > 0),
			category     TEXT NOT NULL,
			description  TEXT NOT NULL,
			date         DATE NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (owner_id, id)
		);
		CREATE INDEX IF NOT EXISTS idx_expenses_owner_date ON expenses (owner_id, date, created_at)
	`)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// InsertExpense implements storage.ExpenseStore.
func (s *Store) InsertExpense(ctx context.Context, e core.Expense) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO expenses (owner_id, id, amount_minor, category, description, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`,
		e.OwnerID, e.ID, e.Amount.Minor, e.Category, e.Description, e.Date.Time, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrConflict
	}
	slog.DebugContext(ctx, "Expense saved to PostgreSQL",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOwnerID, e.OwnerID,
		log.FieldExpenseID, e.ID,
		log.FieldAmountMinor, e.Amount.Minor)
	return nil
}

// FindExpense implements storage.ExpenseStore.
func (s *Store) FindExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT owner_id, id, amount_minor, category, description, date, created_at
		FROM expenses WHERE owner_id = $1 AND id = $2`, ownerID, id)
	e, err := scanExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("find expense: %w", err)
	}
	return e, nil
}

// ListExpenses implements storage.ExpenseStore.
func (s *Store) ListExpenses(ctx context.Context, ownerID string, q storage.ListQuery) ([]core.Expense, error) {
	query := `
		SELECT owner_id, id, amount_minor, category, description, date, created_at
		FROM expenses WHERE owner_id = $1`
	args := []any{ownerID}
	if q.FiltersCategory() {
		query += ` AND LOWER(category) = LOWER($2)`
		args = append(args, q.Category)
	}
	dir := q.Order.SQL()
	query += fmt.Sprintf(` ORDER BY date %s, created_at %s`, dir, dir)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// DistinctCategories implements storage.ExpenseStore.
func (s *Store) DistinctCategories(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT category FROM expenses WHERE owner_id = $1 ORDER BY category`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect categories: %w", err)
	}
	return categories, nil
}

// CreateUser implements storage.UserStore.
func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrConflict
	}
	return nil
}

// FindUserByUsername implements storage.UserStore.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (core.User, error) {
	return s.findUser(ctx, `WHERE LOWER(username) = LOWER($1)`, username)
}

// FindUserByID implements storage.UserStore.
func (s *Store) FindUserByID(ctx context.Context, id string) (core.User, error) {
	return s.findUser(ctx, `WHERE id = $1`, id)
}

func (s *Store) findUser(ctx context.Context, where, arg string) (core.User, error) {
	var u core.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, storage.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var (
		e    core.Expense
		date time.Time
	)
	if err := row.Scan(&e.OwnerID, &e.ID, &e.Amount.Minor, &e.Category, &e.Description, &date, &e.CreatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}
