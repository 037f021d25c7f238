package model

import "time"

// Project represents a row of the `projects` table. Budgets are optional;
// a zero value means no budget is configured.
//
// Fields:
//
//	ID         - primary key identifier.
//	CustomerID - owning customer.
//	Name       - human-friendly project name.
//	Budget     - money budget in the customer's currency (0 = none).
//	TimeBudget - time budget in seconds (0 = none).
type Project struct {
	ID         uint64
	CustomerID uint64
	Name       string
	Budget     float64
	TimeBudget int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Customer represents a row of the `customers` table. Currency and
// timezone provide the display context for shared views of the customer's
// projects.
type Customer struct {
	ID         uint64
	Name       string
	Currency   string
	Timezone   string
	Budget     float64
	TimeBudget int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
