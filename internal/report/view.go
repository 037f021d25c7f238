package report

import (
	"context"
	"errors"
	"time"

	"github.com/timekeep/timesheet-share/internal/model"
)

// ErrProjectNotInScope is returned when a view request narrows a customer
// share to a project that does not belong to that customer. It surfaces as
// a not-found to avoid leaking project existence.
var ErrProjectNotInScope = errors.New("project not in share scope")

// ViewRequest carries the caller-controlled parameters of a view.
type ViewRequest struct {
	Year           int
	Month          time.Month
	LimitProjectID uint64
	// ChartDetails selects the per-day chart instead of the entry table.
	ChartDetails bool
}

// View is the complete bundle handed to the presentation layer: the share
// configuration, the merged records with their sums, the chart series that
// are enabled and requested, and the display context of the scope.
type View struct {
	Share    *model.SharedReport
	Projects []*model.Project
	Currency string
	Timezone string

	Year  int
	Month time.Month

	Records     []*TimeRecord
	DurationSum int64
	RateSum     float64

	// StatsPerMonth is nil unless the annual chart is enabled.
	StatsPerMonth []ChartStat
	// StatsPerDay is nil unless the monthly chart is enabled and chart
	// details were requested.
	StatsPerDay []ChartStat
	// Budget is nil unless one of the budget flags is enabled.
	Budget *BudgetStats
}

// BuildView assembles everything a shared report view needs. It either
// succeeds completely or fails; there are no partial results.
func (s *Service) BuildView(ctx context.Context, share *model.SharedReport, req ViewRequest) (*View, error) {
	req.Month = clampMonth(req.Month)

	projects, err := s.ScopeProjects(ctx, share)
	if err != nil {
		return nil, err
	}
	if req.LimitProjectID != 0 {
		found := false
		for _, p := range projects {
			if p.ID == req.LimitProjectID {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrProjectNotInScope
		}
	}

	currency, timezone, err := s.displayContext(ctx, share, projects)
	if err != nil {
		return nil, err
	}

	records, err := s.TimeRecords(ctx, share, req.Year, req.Month, req.LimitProjectID)
	if err != nil {
		return nil, err
	}

	view := &View{
		Share:    share,
		Projects: projects,
		Currency: currency,
		Timezone: timezone,
		Year:     req.Year,
		Month:    req.Month,
		Records:  records,
	}
	for _, r := range records {
		view.DurationSum += r.Duration
		view.RateSum += r.Rate
	}

	if share.AnnualChartVisible {
		view.StatsPerMonth, err = s.AnnualStats(ctx, share, req.Year, req.LimitProjectID)
		if err != nil {
			return nil, err
		}
	}
	if share.MonthlyChartVisible && req.ChartDetails {
		view.StatsPerDay, err = s.MonthlyStats(ctx, share, req.Year, req.Month, req.LimitProjectID)
		if err != nil {
			return nil, err
		}
	}
	if share.BudgetStatsVisible || share.TimeBudgetStatsVisible {
		view.Budget, err = s.BudgetStats(ctx, share)
		if err != nil {
			return nil, err
		}
	}

	return view, nil
}

// displayContext resolves currency and timezone from the scope's customer.
func (s *Service) displayContext(ctx context.Context, share *model.SharedReport, projects []*model.Project) (string, string, error) {
	var customerID uint64
	switch share.Scope.Kind {
	case model.ScopeCustomer:
		customerID = share.Scope.CustomerID
	case model.ScopeProject:
		if len(projects) > 0 {
			customerID = projects[0].CustomerID
		}
	}

	currency, timezone := "EUR", "UTC"
	if customerID != 0 {
		c, err := s.projects.GetCustomer(ctx, customerID)
		if err != nil {
			return "", "", err
		}
		if c.Currency != "" {
			currency = c.Currency
		}
		if c.Timezone != "" {
			timezone = c.Timezone
		}
	}
	return currency, timezone, nil
}
