package sheets

import (
	"context"
	"time"

	"spendlog/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseWriter appends one expense as a spreadsheet row and returns a
	// reference to where it landed.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)

// Columns is the header row of the mirror sheet; Row fills them in order.
var Columns = []string{"Date", "Owner", "Expense ID", "Description", "Category", "Amount", "Created At"}

// Row renders an expense as sheet cells. The amount stays a decimal string
// so the sheet never sees a float.
func Row(e core.Expense) []any {
	return []any{
		e.Date.String(),
		e.OwnerID,
		e.ID,
		e.Description,
		e.Category,
		e.Amount.String(),
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
