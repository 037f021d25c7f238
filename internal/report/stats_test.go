package report

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timekeep/timesheet-share/internal/model"
)

type fakeTimesheets struct {
	entries       []model.TimeEntry
	months        []model.PeriodSum
	days          []model.PeriodSum
	totalDuration int64
	totalRate     float64

	lastProjectIDs []uint64
}

func (f *fakeTimesheets) EntriesInRange(_ context.Context, projectIDs []uint64, _, _ time.Time) ([]model.TimeEntry, error) {
	f.lastProjectIDs = projectIDs
	return f.entries, nil
}

func (f *fakeTimesheets) SumByMonth(_ context.Context, projectIDs []uint64, _ int) ([]model.PeriodSum, error) {
	f.lastProjectIDs = projectIDs
	return f.months, nil
}

func (f *fakeTimesheets) SumByDay(_ context.Context, projectIDs []uint64, _ int, _ time.Month) ([]model.PeriodSum, error) {
	f.lastProjectIDs = projectIDs
	return f.days, nil
}

func (f *fakeTimesheets) SumTotals(_ context.Context, projectIDs []uint64) (int64, float64, error) {
	f.lastProjectIDs = projectIDs
	return f.totalDuration, f.totalRate, nil
}

type fakeProjects struct {
	projects  map[uint64]*model.Project
	customers map[uint64]*model.Customer
}

func (f *fakeProjects) GetProject(_ context.Context, id uint64) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, errors.New("project not found")
	}
	return p, nil
}

func (f *fakeProjects) ListByCustomer(_ context.Context, customerID uint64) ([]*model.Project, error) {
	var out []*model.Project
	for _, p := range f.projects {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProjects) GetCustomer(_ context.Context, id uint64) (*model.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, errors.New("customer not found")
	}
	return c, nil
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{
		projects: map[uint64]*model.Project{
			1: {ID: 1, CustomerID: 7, Name: "Website", Budget: 1000, TimeBudget: 7200},
			2: {ID: 2, CustomerID: 7, Name: "App"},
			3: {ID: 3, CustomerID: 8, Name: "Other"},
		},
		customers: map[uint64]*model.Customer{
			7: {ID: 7, Name: "Acme", Currency: "CHF", Timezone: "Europe/Zurich", Budget: 5000, TimeBudget: 36000},
			8: {ID: 8, Name: "Blank"},
		},
	}
}

func projectShare(id uint64) *model.SharedReport {
	return &model.SharedReport{ID: 100, Scope: model.ProjectScope(id), ShareKey: "abcdef123456", MergeMode: model.MergeModeNone}
}

func customerShare(id uint64) *model.SharedReport {
	return &model.SharedReport{ID: 101, Scope: model.CustomerScope(id), ShareKey: "abcdef123456", MergeMode: model.MergeModeNone}
}

func TestAnnualStatsZeroFilled(t *testing.T) {
	ts := &fakeTimesheets{months: []model.PeriodSum{
		{Month: 3, Duration: 600, Rate: 50},
		{Month: 11, Duration: 120, Rate: 10},
	}}
	svc := NewService(ts, newFakeProjects())

	stats, err := svc.AnnualStats(context.Background(), projectShare(1), 2024, 0)
	require.NoError(t, err)
	require.Len(t, stats, 12)

	assert.Equal(t, ChartStat{Duration: 600, Rate: 50}, stats[2])
	assert.Equal(t, ChartStat{Duration: 120, Rate: 10}, stats[10])
	for i, s := range stats {
		if i == 2 || i == 10 {
			continue
		}
		assert.Zero(t, s, "month %d", i+1)
	}
}

func TestMonthlyStatsFollowsCalendar(t *testing.T) {
	ts := &fakeTimesheets{days: []model.PeriodSum{{Day: 29, Duration: 300, Rate: 25}}}
	svc := NewService(ts, newFakeProjects())

	// leap year
	stats, err := svc.MonthlyStats(context.Background(), projectShare(1), 2024, time.February, 0)
	require.NoError(t, err)
	require.Len(t, stats, 29)
	assert.Equal(t, ChartStat{Duration: 300, Rate: 25}, stats[28])
	assert.Zero(t, stats[0])

	// non-leap year: the day-29 row falls outside the calendar
	stats, err = svc.MonthlyStats(context.Background(), projectShare(1), 2023, time.February, 0)
	require.NoError(t, err)
	require.Len(t, stats, 28)
	for i, s := range stats {
		assert.Zero(t, s, "day %d", i+1)
	}
}

func TestLimitProjectNarrowsQueries(t *testing.T) {
	ts := &fakeTimesheets{}
	svc := NewService(ts, newFakeProjects())
	sh := customerShare(7)

	_, err := svc.TimeRecords(context.Background(), sh, 2024, time.March, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ts.lastProjectIDs)

	_, err = svc.TimeRecords(context.Background(), sh, 2024, time.March, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ts.lastProjectIDs)
}

func TestLimitProjectOutsideScope(t *testing.T) {
	svc := NewService(&fakeTimesheets{}, newFakeProjects())

	// project 3 belongs to another customer
	_, err := svc.TimeRecords(context.Background(), customerShare(7), 2024, time.March, 3)
	assert.ErrorIs(t, err, ErrProjectNotInScope)

	_, err = svc.AnnualStats(context.Background(), customerShare(7), 2024, 99)
	assert.ErrorIs(t, err, ErrProjectNotInScope)
}

func TestBudgetStats(t *testing.T) {
	ts := &fakeTimesheets{totalDuration: 3600, totalRate: 250}
	svc := NewService(ts, newFakeProjects())

	stats, err := svc.BudgetStats(context.Background(), projectShare(1))
	require.NoError(t, err)
	assert.Equal(t, &BudgetStats{
		Budget: 1000, Spent: 250, BudgetOpen: 750,
		TimeBudget: 7200, TimeSpent: 3600, TimeBudgetOpen: 3600,
	}, stats)

	stats, err = svc.BudgetStats(context.Background(), customerShare(7))
	require.NoError(t, err)
	assert.Equal(t, 5000.0, stats.Budget)
	assert.Equal(t, 4750.0, stats.BudgetOpen)
	assert.Equal(t, []uint64{1, 2}, ts.lastProjectIDs)
}

func TestBuildViewFlagGating(t *testing.T) {
	ts := &fakeTimesheets{
		entries: []model.TimeEntry{
			entry("anna", at(5, 9, 0), 60, 10, 0, "A"),
			entry("anna", at(5, 14, 0), 30, 5, 0, "B"),
		},
		months:        []model.PeriodSum{{Month: 3, Duration: 90, Rate: 15}},
		days:          []model.PeriodSum{{Day: 5, Duration: 90, Rate: 15}},
		totalDuration: 90,
		totalRate:     15,
	}
	svc := NewService(ts, newFakeProjects())

	sh := projectShare(1)
	req := ViewRequest{Year: 2024, Month: time.March, ChartDetails: true}

	view, err := svc.BuildView(context.Background(), sh, req)
	require.NoError(t, err)
	assert.Len(t, view.Records, 2)
	assert.Equal(t, int64(90), view.DurationSum)
	assert.Equal(t, 15.0, view.RateSum)
	assert.Nil(t, view.StatsPerMonth)
	assert.Nil(t, view.StatsPerDay)
	assert.Nil(t, view.Budget)

	sh.AnnualChartVisible = true
	sh.MonthlyChartVisible = true
	sh.BudgetStatsVisible = true

	view, err = svc.BuildView(context.Background(), sh, req)
	require.NoError(t, err)
	require.Len(t, view.StatsPerMonth, 12)
	require.Len(t, view.StatsPerDay, 31)
	require.NotNil(t, view.Budget)
	assert.Equal(t, ChartStat{Duration: 90, Rate: 15}, view.StatsPerMonth[2])
	assert.Equal(t, ChartStat{Duration: 90, Rate: 15}, view.StatsPerDay[4])

	// the per-day chart also needs the request flag
	view, err = svc.BuildView(context.Background(), sh, ViewRequest{Year: 2024, Month: time.March})
	require.NoError(t, err)
	assert.Nil(t, view.StatsPerDay)
}

func TestBuildViewDisplayContext(t *testing.T) {
	svc := NewService(&fakeTimesheets{}, newFakeProjects())

	// project share inherits its customer's settings
	view, err := svc.BuildView(context.Background(), projectShare(1), ViewRequest{Year: 2024, Month: time.March})
	require.NoError(t, err)
	assert.Equal(t, "CHF", view.Currency)
	assert.Equal(t, "Europe/Zurich", view.Timezone)

	// customer without settings falls back to the defaults
	view, err = svc.BuildView(context.Background(), customerShare(8), ViewRequest{Year: 2024, Month: time.March})
	require.NoError(t, err)
	assert.Equal(t, "EUR", view.Currency)
	assert.Equal(t, "UTC", view.Timezone)
}

func TestBuildViewCustomerListsProjects(t *testing.T) {
	svc := NewService(&fakeTimesheets{}, newFakeProjects())

	view, err := svc.BuildView(context.Background(), customerShare(7), ViewRequest{Year: 2024, Month: time.March})
	require.NoError(t, err)
	require.Len(t, view.Projects, 2)
	assert.Equal(t, "Website", view.Projects[0].Name)
	assert.Equal(t, "App", view.Projects[1].Name)
}
