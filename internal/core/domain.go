package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of expense dates.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date without a time component, always in UTC.
	Date struct {
		time.Time
	}

	// Money is an amount in integer minor units.
	Money struct {
		Minor int64
	}

	// Expense is a persisted expense record. It is immutable once stored.
	Expense struct {
		ID          string
		OwnerID     string
		Amount      Money
		Category    string
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	// ExpenseInput is a candidate expense as submitted by a client, with
	// the amount still in its textual form.
	ExpenseInput struct {
		Amount      string
		Category    string
		Description string
		Date        string
	}

	// User is a registered account.
	User struct {
		ID           string
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD string. Lexically valid but
// impossible dates such as 2024-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	if !datePattern.MatchString(s) {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// MustDate is ParseDate for literals in tests and seeds.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Normalize trims the free-text fields of an input the way they are stored.
func (in ExpenseInput) Normalize() ExpenseInput {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
