package core

// Status classifies how much of the budget is left.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusOver    Status = "over"
)

// Summary holds derived totals at a point in time.
type Summary struct {
	Budget     Money
	TotalSpent Money
	Remaining  Money
	Count      int
	Status     Status
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthTotal is the spend for one calendar month, keyed "YYYY-MM".
type MonthTotal struct {
	Month string
	Total Money
}

// BudgetStatus mirrors the dashboard card colouring: over budget when
// remaining is negative, warning under 20% of the budget.
func BudgetStatus(budget, remaining Money) Status {
	switch {
	case remaining.Cents < 0:
		return StatusOver
	case remaining.Cents*5 < budget.Cents:
		return StatusWarning
	default:
		return StatusOK
	}
}
