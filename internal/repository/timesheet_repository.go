package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/timekeep/timesheet-share/internal/model"
)

// TimesheetRepo is the read-only boundary to the timesheet table. It
// serves the raw entry window for the record view and the grouped sums
// that back the charts; the grouping is pushed down to MySQL so charts do
// not load individual rows.
type TimesheetRepo struct {
	db *sql.DB
}

func NewTimesheetRepo(db *sql.DB) *TimesheetRepo {
	return &TimesheetRepo{db: db}
}

// EntriesInRange returns all entries of the given projects whose begin
// timestamp falls into [begin, end), ordered by begin. The merge engine
// does not depend on this order; requesting it is a cheap optimization.
func (r *TimesheetRepo) EntriesInRange(ctx context.Context, projectIDs []uint64, begin, end time.Time) ([]model.TimeEntry, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	q := `SELECT t.id, t.project_id, t.user_id, u.name, t.begin_time,
	             COALESCE(t.duration, 0), COALESCE(t.rate, 0), COALESCE(t.hourly_rate, 0), COALESCE(t.description, '')
	      FROM timesheets t
	      JOIN users u ON u.id = t.user_id
	      WHERE t.project_id IN (` + placeholders(len(projectIDs)) + `)
	        AND t.begin_time >= ? AND t.begin_time < ?
	      ORDER BY t.begin_time`

	args := idArgs(projectIDs)
	args = append(args, begin, end)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimeEntry
	for rows.Next() {
		var e model.TimeEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.UserID, &e.UserName, &e.Begin,
			&e.Duration, &e.Rate, &e.HourlyRate, &e.Description); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SumByMonth returns duration/rate sums grouped by month for one year.
// Months without entries are simply absent; the aggregator zero-fills.
func (r *TimesheetRepo) SumByMonth(ctx context.Context, projectIDs []uint64, year int) ([]model.PeriodSum, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	q := `SELECT MONTH(t.begin_time), COALESCE(SUM(t.duration), 0), COALESCE(SUM(t.rate), 0)
	      FROM timesheets t
	      WHERE t.project_id IN (` + placeholders(len(projectIDs)) + `)
	        AND YEAR(t.begin_time) = ?
	      GROUP BY MONTH(t.begin_time)`

	args := idArgs(projectIDs)
	args = append(args, year)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PeriodSum
	for rows.Next() {
		var s model.PeriodSum
		if err := rows.Scan(&s.Month, &s.Duration, &s.Rate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SumByDay returns duration/rate sums grouped by day for one month.
func (r *TimesheetRepo) SumByDay(ctx context.Context, projectIDs []uint64, year int, month time.Month) ([]model.PeriodSum, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	q := `SELECT DAY(t.begin_time), COALESCE(SUM(t.duration), 0), COALESCE(SUM(t.rate), 0)
	      FROM timesheets t
	      WHERE t.project_id IN (` + placeholders(len(projectIDs)) + `)
	        AND YEAR(t.begin_time) = ? AND MONTH(t.begin_time) = ?
	      GROUP BY DAY(t.begin_time)`

	args := idArgs(projectIDs)
	args = append(args, year, int(month))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PeriodSum
	for rows.Next() {
		var s model.PeriodSum
		if err := rows.Scan(&s.Day, &s.Duration, &s.Rate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SumTotals returns lifetime duration and rate sums for the given
// projects. Backs the budget statistics.
func (r *TimesheetRepo) SumTotals(ctx context.Context, projectIDs []uint64) (int64, float64, error) {
	if len(projectIDs) == 0 {
		return 0, 0, nil
	}

	q := `SELECT COALESCE(SUM(t.duration), 0), COALESCE(SUM(t.rate), 0)
	      FROM timesheets t
	      WHERE t.project_id IN (` + placeholders(len(projectIDs)) + `)`

	var duration int64
	var rate float64
	if err := r.db.QueryRowContext(ctx, q, idArgs(projectIDs)...).Scan(&duration, &rate); err != nil {
		return 0, 0, err
	}
	return duration, rate, nil
}

// placeholders builds "?, ?, ..." for an IN clause of n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
