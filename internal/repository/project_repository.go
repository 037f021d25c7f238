package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/timekeep/timesheet-share/internal/model"
)

// ErrProjectNotFound is returned when a project lookup matches no row.
var ErrProjectNotFound = errors.New("project not found")

// ErrCustomerNotFound is returned when a customer lookup matches no row.
var ErrCustomerNotFound = errors.New("customer not found")

// ProjectRepo reads projects and customers from the time-tracking schema.
// The share core only ever reads these tables; their lifecycle belongs to
// the surrounding application.
type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// GetProject fetches one project by id.
func (r *ProjectRepo) GetProject(ctx context.Context, id uint64) (*model.Project, error) {
	const q = `SELECT id, customer_id, name, COALESCE(budget, 0), COALESCE(time_budget, 0), created_at, updated_at
	           FROM projects WHERE id = ?`
	var p model.Project
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.CustomerID, &p.Name, &p.Budget, &p.TimeBudget, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByCustomer returns all projects of a customer ordered by name.
func (r *ProjectRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]*model.Project, error) {
	const q = `SELECT id, customer_id, name, COALESCE(budget, 0), COALESCE(time_budget, 0), created_at, updated_at
	           FROM projects WHERE customer_id = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		p := new(model.Project)
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Name, &p.Budget, &p.TimeBudget, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCustomer fetches one customer by id.
func (r *ProjectRepo) GetCustomer(ctx context.Context, id uint64) (*model.Customer, error) {
	const q = `SELECT id, name, COALESCE(currency, ''), COALESCE(timezone, ''),
	                  COALESCE(budget, 0), COALESCE(time_budget, 0), created_at, updated_at
	           FROM customers WHERE id = ?`
	var c model.Customer
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Currency, &c.Timezone, &c.Budget, &c.TimeBudget, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
