// Package sqlite is the SQLite storage engine, built on modernc.org/sqlite
// with embedded golang-migrate migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/storage"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Repository implements storage.Store on a single SQLite file.
type Repository struct {
	db *sql.DB
}

var _ storage.Store = (*Repository)(nil)

// DSN builds the driver connection string for a database file.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the primary key check and insert stay atomic.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertExpense implements storage.ExpenseStore.
func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (owner_id, id, amount_minor, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		e.OwnerID, e.ID, e.Amount.Minor, e.Category, e.Description,
		e.Date.String(), e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert expense rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrConflict
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldOwnerID, e.OwnerID,
		log.FieldExpenseID, e.ID,
		log.FieldAmountMinor, e.Amount.Minor)
	return nil
}

// FindExpense implements storage.ExpenseStore.
func (r *Repository) FindExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT owner_id, id, amount_minor, category, description, date, created_at
		FROM expenses WHERE owner_id = ? AND id = ?`, ownerID, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("find expense: %w", err)
	}
	return e, nil
}

// ListExpenses implements storage.ExpenseStore.
func (r *Repository) ListExpenses(ctx context.Context, ownerID string, q storage.ListQuery) ([]core.Expense, error) {
	query := `
		SELECT owner_id, id, amount_minor, category, description, date, created_at
		FROM expenses WHERE owner_id = ?`
	args := []any{ownerID}
	if q.FiltersCategory() {
		query += ` AND LOWER(category) = LOWER(?)`
		args = append(args, q.Category)
	}
	dir := q.Order.SQL()
	query += fmt.Sprintf(` ORDER BY date %s, created_at %s`, dir, dir)

	rows, err := r.db.QueryContext(ctx, query, args...)
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
func (r *Repository) DistinctCategories(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM expenses WHERE owner_id = ? ORDER BY category`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateUser implements storage.UserStore.
func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrConflict
	}
	return nil
}

// FindUserByUsername implements storage.UserStore.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (core.User, error) {
	return r.findUser(ctx, `WHERE LOWER(username) = LOWER(?)`, username)
}

// FindUserByID implements storage.UserStore.
func (r *Repository) FindUserByID(ctx context.Context, id string) (core.User, error) {
	return r.findUser(ctx, `WHERE id = ?`, id)
}

func (r *Repository) findUser(ctx context.Context, where string, arg string) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, storage.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.User{}, fmt.Errorf("parse user created_at %q: %w", created, err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e       core.Expense
		date    string
		created string
	)
	if err := s.Scan(&e.OwnerID, &e.ID, &e.Amount.Minor, &e.Category, &e.Description, &date, &created); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	e.Date = d
	if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return e, nil
}
