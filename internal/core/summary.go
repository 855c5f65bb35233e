package core

// ExpenseSummary is a listed set of expenses with its aggregate.
type ExpenseSummary struct {
	Expenses []Expense
	Total    Money
	Count    int
}

// Summarize totals the expenses in minor units. The sum is taken over the
// integers, never over decoded decimal strings.
func Summarize(expenses []Expense) ExpenseSummary {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	return ExpenseSummary{
		Expenses: expenses,
		Total:    total,
		Count:    len(expenses),
	}
}
