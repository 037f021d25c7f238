package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/timekeep/timesheet-share/internal/access"
	"github.com/timekeep/timesheet-share/internal/middleware"
	"github.com/timekeep/timesheet-share/internal/model"
	"github.com/timekeep/timesheet-share/internal/queue"
	"github.com/timekeep/timesheet-share/internal/report"
	"github.com/timekeep/timesheet-share/internal/repository"
	queue_publisher "github.com/timekeep/timesheet-share/internal/service"
)

// ViewHandler serves the anonymous report views behind share links. No
// user identity is involved; access is granted per browser session by the
// password gate.
type ViewHandler struct {
	Shares  *repository.ShareRepo
	Reports *report.Service
	Gate    *access.Gate
}

func NewViewHandler(shares *repository.ShareRepo, reports *report.Service, gate *access.Gate) *ViewHandler {
	return &ViewHandler{Shares: shares, Reports: reports, Gate: gate}
}

// ----- response DTOs -----

type scopeResp struct {
	Kind string `json:"kind"`
	ID   uint64 `json:"id"`
}

type projectResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type rateBucketResp struct {
	HourlyRate float64 `json:"hourly_rate"`
	Duration   int64   `json:"duration"`
}

type timeRecordResp struct {
	Date        string           `json:"date"`
	User        string           `json:"user,omitempty"`
	Description string           `json:"description"`
	Duration    int64            `json:"duration"`
	Rate        *float64         `json:"rate,omitempty"`
	HourlyRates []rateBucketResp `json:"hourly_rates,omitempty"`
}

type moneyBudgetResp struct {
	Budget float64 `json:"budget"`
	Spent  float64 `json:"spent"`
	Open   float64 `json:"open"`
}

type timeBudgetResp struct {
	Budget int64 `json:"budget"`
	Spent  int64 `json:"spent"`
	Open   int64 `json:"open"`
}

type viewResp struct {
	Scope           scopeResp          `json:"scope"`
	ShareKey        string             `json:"share_key"`
	Year            int                `json:"year"`
	Month           int                `json:"month"`
	Currency        string             `json:"currency"`
	Timezone        string             `json:"timezone"`
	Projects        []projectResp      `json:"projects,omitempty"`
	Records         []timeRecordResp   `json:"records"`
	DurationSum     int64              `json:"duration_sum"`
	RateSum         *float64           `json:"rate_sum,omitempty"`
	StatsPerMonth   []report.ChartStat `json:"stats_per_month,omitempty"`
	StatsPerDay     []report.ChartStat `json:"stats_per_day,omitempty"`
	BudgetStats     *moneyBudgetResp   `json:"budget_stats,omitempty"`
	TimeBudgetStats *timeBudgetResp    `json:"time_budget_stats,omitempty"`
}

// ----- routes -----

// ViewProject serves GET/POST /v1/view/projects/:projectID/:shareKey.
func (h *ViewHandler) ViewProject(c echo.Context) error {
	projectID, err := strconv.ParseUint(c.Param("projectID"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sh, err := h.Shares.FindByProjectAndKey(ctx, projectID, c.Param("shareKey"))
	if err != nil {
		return shareLookupError(c, err)
	}
	return h.renderView(ctx, c, sh, 0)
}

// ViewCustomer serves GET/POST /v1/view/customers/:customerID/:shareKey.
func (h *ViewHandler) ViewCustomer(c echo.Context) error {
	customerID, err := strconv.ParseUint(c.Param("customerID"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sh, err := h.Shares.FindByCustomerAndKey(ctx, customerID, c.Param("shareKey"))
	if err != nil {
		return shareLookupError(c, err)
	}
	return h.renderView(ctx, c, sh, 0)
}

// ViewCustomerProject narrows a customer share down to one of its
// projects: GET/POST /v1/view/customers/:customerID/:shareKey/projects/:projectID.
func (h *ViewHandler) ViewCustomerProject(c echo.Context) error {
	customerID, err := strconv.ParseUint(c.Param("customerID"), 10, 64)
	if err != nil {
		return notFound(c)
	}
	projectID, err := strconv.ParseUint(c.Param("projectID"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sh, err := h.Shares.FindByCustomerAndKey(ctx, customerID, c.Param("shareKey"))
	if err != nil {
		return shareLookupError(c, err)
	}
	return h.renderView(ctx, c, sh, projectID)
}

func (h *ViewHandler) renderView(ctx context.Context, c echo.Context, sh *model.SharedReport, limitProjectID uint64) error {
	password := c.FormValue("password")
	if password == "" {
		password = c.QueryParam("password")
	}

	sess, ok := c.Get(middleware.SessionContextKey).(access.SessionStore)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	granted, err := h.Gate.Verify(ctx, sh, password, sess)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if !granted {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":            "password required",
			"invalid_password": c.Request().Method == http.MethodPost && password != "",
		})
	}

	now := time.Now()
	req := report.ViewRequest{
		Year:           intParam(c, "year", now.Year()),
		Month:          time.Month(intParam(c, "month", int(now.Month()))),
		LimitProjectID: limitProjectID,
		ChartDetails:   c.QueryParam("details") == "chart",
	}

	view, err := h.Reports.BuildView(ctx, sh, req)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrProjectNotInScope),
			errors.Is(err, repository.ErrProjectNotFound),
			errors.Is(err, repository.ErrCustomerNotFound):
			return notFound(c)
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}

	// Best-effort analytics; the view never fails on broker trouble.
	go func() {
		_ = queue_publisher.PublishShareViewed(context.Background(), queue.ShareViewedEvent{
			ShareID:   sh.ID,
			ScopeKind: string(sh.Scope.Kind),
			ScopeID:   scopeID(sh.Scope),
			ShareKey:  sh.ShareKey,
			Year:      view.Year,
			Month:     int(view.Month),
			ViewedAt:  time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, toViewResp(view))
}

// ----- helpers -----

func toViewResp(v *report.View) viewResp {
	resp := viewResp{
		Scope:       toScopeResp(v.Share.Scope),
		ShareKey:    v.Share.ShareKey,
		Year:        v.Year,
		Month:       int(v.Month),
		Currency:    v.Currency,
		Timezone:    v.Timezone,
		DurationSum: v.DurationSum,
		Records:     make([]timeRecordResp, 0, len(v.Records)),
	}

	if v.Share.Scope.Kind == model.ScopeCustomer {
		for _, p := range v.Projects {
			resp.Projects = append(resp.Projects, projectResp{ID: p.ID, Name: p.Name})
		}
	}

	for _, r := range v.Records {
		rec := timeRecordResp{
			Date:        r.Date.Format("2006-01-02"),
			Description: r.Description,
			Duration:    r.Duration,
		}
		if v.Share.EntryUserVisible {
			rec.User = r.User
		}
		if v.Share.EntryRateVisible {
			rate := r.Rate
			rec.Rate = &rate
			for _, b := range r.HourlyRates {
				rec.HourlyRates = append(rec.HourlyRates, rateBucketResp{HourlyRate: b.HourlyRate, Duration: b.Duration})
			}
		}
		resp.Records = append(resp.Records, rec)
	}

	if v.Share.EntryRateVisible {
		rateSum := v.RateSum
		resp.RateSum = &rateSum
	}
	resp.StatsPerMonth = v.StatsPerMonth
	resp.StatsPerDay = v.StatsPerDay

	if v.Budget != nil {
		if v.Share.BudgetStatsVisible {
			resp.BudgetStats = &moneyBudgetResp{Budget: v.Budget.Budget, Spent: v.Budget.Spent, Open: v.Budget.BudgetOpen}
		}
		if v.Share.TimeBudgetStatsVisible {
			resp.TimeBudgetStats = &timeBudgetResp{Budget: v.Budget.TimeBudget, Spent: v.Budget.TimeSpent, Open: v.Budget.TimeBudgetOpen}
		}
	}
	return resp
}

func toScopeResp(s model.Scope) scopeResp {
	return scopeResp{Kind: string(s.Kind), ID: scopeID(s)}
}

func scopeID(s model.Scope) uint64 {
	if s.Kind == model.ScopeProject {
		return s.ProjectID
	}
	return s.CustomerID
}

// notFound hides whether the scope target or the share key was wrong.
func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
}

func shareLookupError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrShareNotFound) {
		return notFound(c)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func intParam(c echo.Context, name string, def int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
