package report

import (
	"context"
	"fmt"
	"time"

	"github.com/timekeep/timesheet-share/internal/model"
)

// ChartStat is one point of a duration/rate series used for chart
// rendering. Periods without any booked time stay at the zero value.
type ChartStat struct {
	Duration int64   `json:"duration"`
	Rate     float64 `json:"rate"`
}

// BudgetStats describes how much of a scope's configured money and time
// budget has been consumed over its whole lifetime.
type BudgetStats struct {
	Budget     float64 `json:"budget"`
	Spent      float64 `json:"spent"`
	BudgetOpen float64 `json:"budget_open"`

	TimeBudget     int64 `json:"time_budget"`
	TimeSpent      int64 `json:"time_spent"`
	TimeBudgetOpen int64 `json:"time_budget_open"`
}

// TimesheetStore is the read boundary to the timesheet persistence. The
// grouped-sum queries are a pushdown optimization; semantically they equal
// summing the raw entries.
type TimesheetStore interface {
	// EntriesInRange returns all entries of the given projects whose begin
	// timestamp falls into [begin, end).
	EntriesInRange(ctx context.Context, projectIDs []uint64, begin, end time.Time) ([]model.TimeEntry, error)
	// SumByMonth returns duration/rate sums per month for one year.
	SumByMonth(ctx context.Context, projectIDs []uint64, year int) ([]model.PeriodSum, error)
	// SumByDay returns duration/rate sums per day for one month.
	SumByDay(ctx context.Context, projectIDs []uint64, year int, month time.Month) ([]model.PeriodSum, error)
	// SumTotals returns lifetime duration/rate sums for the given projects.
	SumTotals(ctx context.Context, projectIDs []uint64) (int64, float64, error)
}

// ProjectStore resolves share scopes into projects and display context.
type ProjectStore interface {
	GetProject(ctx context.Context, id uint64) (*model.Project, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]*model.Project, error)
	GetCustomer(ctx context.Context, id uint64) (*model.Customer, error)
}

// Service computes the data behind a shared report view. It never mutates
// anything; all state lives in the injected stores.
type Service struct {
	timesheets TimesheetStore
	projects   ProjectStore
}

func NewService(timesheets TimesheetStore, projects ProjectStore) *Service {
	return &Service{timesheets: timesheets, projects: projects}
}

// ScopeProjects resolves the share's scope to the list of projects it
// exposes: the single shared project, or every project of the shared
// customer.
func (s *Service) ScopeProjects(ctx context.Context, share *model.SharedReport) ([]*model.Project, error) {
	switch share.Scope.Kind {
	case model.ScopeProject:
		p, err := s.projects.GetProject(ctx, share.Scope.ProjectID)
		if err != nil {
			return nil, err
		}
		return []*model.Project{p}, nil
	case model.ScopeCustomer:
		return s.projects.ListByCustomer(ctx, share.Scope.CustomerID)
	}
	return nil, fmt.Errorf("share %d has no resolvable scope", share.ID)
}

// TimeRecords loads the share's entries for one month and merges them
// according to the share's merge mode. A non-zero limitProjectID narrows a
// customer share down to one of its projects.
func (s *Service) TimeRecords(ctx context.Context, share *model.SharedReport, year int, month time.Month, limitProjectID uint64) ([]*TimeRecord, error) {
	month = clampMonth(month)

	begin := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := begin.AddDate(0, 1, 0)

	ids, err := s.projectIDs(ctx, share, limitProjectID)
	if err != nil {
		return nil, err
	}

	entries, err := s.timesheets.EntriesInRange(ctx, ids, begin, end)
	if err != nil {
		return nil, err
	}
	return BuildRecords(entries, share.MergeMode)
}

// AnnualStats returns one ChartStat per month of the year, January first.
// Months without entries are zero-filled so callers always receive twelve
// points.
func (s *Service) AnnualStats(ctx context.Context, share *model.SharedReport, year int, limitProjectID uint64) ([]ChartStat, error) {
	ids, err := s.projectIDs(ctx, share, limitProjectID)
	if err != nil {
		return nil, err
	}

	rows, err := s.timesheets.SumByMonth(ctx, ids, year)
	if err != nil {
		return nil, err
	}

	stats := make([]ChartStat, 12)
	for _, row := range rows {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		stats[row.Month-1] = ChartStat{Duration: row.Duration, Rate: row.Rate}
	}
	return stats, nil
}

// MonthlyStats returns one ChartStat per calendar day of the month, day 1
// first. The slice length follows the calendar (28-31 days).
func (s *Service) MonthlyStats(ctx context.Context, share *model.SharedReport, year int, month time.Month, limitProjectID uint64) ([]ChartStat, error) {
	month = clampMonth(month)

	ids, err := s.projectIDs(ctx, share, limitProjectID)
	if err != nil {
		return nil, err
	}

	rows, err := s.timesheets.SumByDay(ctx, ids, year, month)
	if err != nil {
		return nil, err
	}

	days := daysIn(year, month)
	stats := make([]ChartStat, days)
	for _, row := range rows {
		if row.Day < 1 || row.Day > days {
			continue
		}
		stats[row.Day-1] = ChartStat{Duration: row.Duration, Rate: row.Rate}
	}
	return stats, nil
}

// BudgetStats compares the scope's lifetime duration/rate sums against the
// budgets configured on the shared project or customer.
func (s *Service) BudgetStats(ctx context.Context, share *model.SharedReport) (*BudgetStats, error) {
	var budget float64
	var timeBudget int64

	switch share.Scope.Kind {
	case model.ScopeProject:
		p, err := s.projects.GetProject(ctx, share.Scope.ProjectID)
		if err != nil {
			return nil, err
		}
		budget, timeBudget = p.Budget, p.TimeBudget
	case model.ScopeCustomer:
		c, err := s.projects.GetCustomer(ctx, share.Scope.CustomerID)
		if err != nil {
			return nil, err
		}
		budget, timeBudget = c.Budget, c.TimeBudget
	default:
		return nil, fmt.Errorf("share %d has no resolvable scope", share.ID)
	}

	ids, err := s.projectIDs(ctx, share, 0)
	if err != nil {
		return nil, err
	}
	duration, rate, err := s.timesheets.SumTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &BudgetStats{
		Budget:         budget,
		Spent:          rate,
		BudgetOpen:     budget - rate,
		TimeBudget:     timeBudget,
		TimeSpent:      duration,
		TimeBudgetOpen: timeBudget - duration,
	}, nil
}

// projectIDs resolves the effective project filter: the explicit limit
// project when given (it must belong to the scope), otherwise every
// project of the scope.
func (s *Service) projectIDs(ctx context.Context, share *model.SharedReport, limitProjectID uint64) ([]uint64, error) {
	projects, err := s.ScopeProjects(ctx, share)
	if err != nil {
		return nil, err
	}

	if limitProjectID != 0 {
		for _, p := range projects {
			if p.ID == limitProjectID {
				return []uint64{limitProjectID}, nil
			}
		}
		return nil, ErrProjectNotInScope
	}

	ids := make([]uint64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids, nil
}

func clampMonth(m time.Month) time.Month {
	if m < time.January {
		return time.January
	}
	if m > time.December {
		return time.December
	}
	return m
}

// daysIn returns the number of calendar days of a month; day 0 of the
// following month is the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
