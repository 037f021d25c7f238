package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/timekeep/timesheet-share/internal/model"
)

// ErrShareNotFound is returned when no shared report matches the lookup.
// Lookups never distinguish a wrong key from a wrong scope target.
var ErrShareNotFound = errors.New("shared report not found")

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// ShareRepo encapsulates all database queries for shared report
// configurations. The table carries nullable project_id/customer_id
// columns of which exactly one is set, and a unique key over
// (project_id, customer_id, share_key).
type ShareRepo struct {
	db *sql.DB
}

func NewShareRepo(db *sql.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

const shareColumns = `id, project_id, customer_id, share_key, password, record_merge_mode,
	entry_user_visible, entry_rate_visible, annual_chart_visible, monthly_chart_visible,
	budget_stats_visible, time_budget_stats_visible, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShare(row rowScanner) (*model.SharedReport, error) {
	var (
		sh         model.SharedReport
		projectID  sql.NullInt64
		customerID sql.NullInt64
		password   sql.NullString
		mode       string
	)
	err := row.Scan(&sh.ID, &projectID, &customerID, &sh.ShareKey, &password, &mode,
		&sh.EntryUserVisible, &sh.EntryRateVisible, &sh.AnnualChartVisible, &sh.MonthlyChartVisible,
		&sh.BudgetStatsVisible, &sh.TimeBudgetStatsVisible, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return nil, err
	}

	switch {
	case projectID.Valid:
		sh.Scope = model.ProjectScope(uint64(projectID.Int64))
	case customerID.Valid:
		sh.Scope = model.CustomerScope(uint64(customerID.Int64))
	}
	sh.PasswordHash = password.String

	sh.MergeMode, err = model.ParseMergeMode(mode)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// scopeColumns splits a scope into the two nullable columns.
func scopeColumns(s model.Scope) (projectID, customerID sql.NullInt64) {
	switch s.Kind {
	case model.ScopeProject:
		projectID = sql.NullInt64{Int64: int64(s.ProjectID), Valid: true}
	case model.ScopeCustomer:
		customerID = sql.NullInt64{Int64: int64(s.CustomerID), Valid: true}
	}
	return projectID, customerID
}

func nullablePassword(hash string) sql.NullString {
	return sql.NullString{String: hash, Valid: hash != ""}
}

// GetByID fetches a share by its primary key.
func (r *ShareRepo) GetByID(ctx context.Context, id uint64) (*model.SharedReport, error) {
	const q = "SELECT " + shareColumns + " FROM shared_reports WHERE id = ?"
	sh, err := scanShare(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	return sh, err
}

// FindByProjectAndKey resolves a project-scoped share by its address. The
// customer_id IS NULL guard keeps customer shares out even if they carry
// the same key.
func (r *ShareRepo) FindByProjectAndKey(ctx context.Context, projectID uint64, shareKey string) (*model.SharedReport, error) {
	const q = "SELECT " + shareColumns + ` FROM shared_reports
	           WHERE project_id = ? AND customer_id IS NULL AND share_key = ? LIMIT 1`
	sh, err := scanShare(r.db.QueryRowContext(ctx, q, projectID, shareKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	return sh, err
}

// FindByCustomerAndKey resolves a customer-scoped share by its address.
func (r *ShareRepo) FindByCustomerAndKey(ctx context.Context, customerID uint64, shareKey string) (*model.SharedReport, error) {
	const q = "SELECT " + shareColumns + ` FROM shared_reports
	           WHERE project_id IS NULL AND customer_id = ? AND share_key = ? LIMIT 1`
	sh, err := scanShare(r.db.QueryRowContext(ctx, q, customerID, shareKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	return sh, err
}

// ExistsByScopeAndKey reports whether a share with this key already exists
// for the scope target. Used as a pre-check during key generation; the
// unique database key remains the actual guarantee.
func (r *ShareRepo) ExistsByScopeAndKey(ctx context.Context, scope model.Scope, shareKey string) (bool, error) {
	var q string
	var target uint64
	switch scope.Kind {
	case model.ScopeProject:
		q = "SELECT 1 FROM shared_reports WHERE project_id = ? AND customer_id IS NULL AND share_key = ? LIMIT 1"
		target = scope.ProjectID
	case model.ScopeCustomer:
		q = "SELECT 1 FROM shared_reports WHERE project_id IS NULL AND customer_id = ? AND share_key = ? LIMIT 1"
		target = scope.CustomerID
	default:
		return false, nil
	}

	var one int
	err := r.db.QueryRowContext(ctx, q, target, shareKey).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a new share. On success the ID and timestamp fields are
// populated from the stored row.
func (r *ShareRepo) Create(ctx context.Context, sh *model.SharedReport) error {
	const q = `INSERT INTO shared_reports
	           (project_id, customer_id, share_key, password, record_merge_mode,
	            entry_user_visible, entry_rate_visible, annual_chart_visible, monthly_chart_visible,
	            budget_stats_visible, time_budget_stats_visible)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	projectID, customerID := scopeColumns(sh.Scope)
	res, err := r.db.ExecContext(ctx, q, projectID, customerID, sh.ShareKey, nullablePassword(sh.PasswordHash), string(sh.MergeMode),
		sh.EntryUserVisible, sh.EntryRateVisible, sh.AnnualChartVisible, sh.MonthlyChartVisible,
		sh.BudgetStatsVisible, sh.TimeBudgetStatsVisible)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrDuplicateShareKey
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sh.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM shared_reports WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, sh.ID).Scan(&sh.CreatedAt, &sh.UpdatedAt)
}

// Update persists changes to an existing share. The scope columns are
// written as-is; reassigning a scope after creation is not offered by the
// manage surface but harmless here.
func (r *ShareRepo) Update(ctx context.Context, sh *model.SharedReport) error {
	const q = `UPDATE shared_reports
	           SET project_id = ?, customer_id = ?, share_key = ?, password = ?, record_merge_mode = ?,
	               entry_user_visible = ?, entry_rate_visible = ?, annual_chart_visible = ?, monthly_chart_visible = ?,
	               budget_stats_visible = ?, time_budget_stats_visible = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`

	projectID, customerID := scopeColumns(sh.Scope)
	res, err := r.db.ExecContext(ctx, q, projectID, customerID, sh.ShareKey, nullablePassword(sh.PasswordHash), string(sh.MergeMode),
		sh.EntryUserVisible, sh.EntryRateVisible, sh.AnnualChartVisible, sh.MonthlyChartVisible,
		sh.BudgetStatsVisible, sh.TimeBudgetStatsVisible, sh.ID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrDuplicateShareKey
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShareNotFound
	}
	return nil
}

// Delete removes a share permanently.
func (r *ShareRepo) Delete(ctx context.Context, id uint64) error {
	const q = "DELETE FROM shared_reports WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShareNotFound
	}
	return nil
}

// ListAll returns every configured share ordered by id. The manage surface
// is small enough that pagination is not worth it yet.
func (r *ShareRepo) ListAll(ctx context.Context) ([]*model.SharedReport, error) {
	const q = "SELECT " + shareColumns + " FROM shared_reports ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SharedReport
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
