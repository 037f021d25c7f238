package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/timekeep/timesheet-share/internal/model"
	"github.com/timekeep/timesheet-share/internal/queue"
	"github.com/timekeep/timesheet-share/internal/repository"
	queue_publisher "github.com/timekeep/timesheet-share/internal/service"
	"github.com/timekeep/timesheet-share/internal/share"
)

// ManageHandler exposes the admin CRUD over share configurations. All
// routes sit behind JWT auth plus the ADMIN role.
type ManageHandler struct {
	Shares *repository.ShareRepo
	Manage *share.Service
}

func NewManageHandler(shares *repository.ShareRepo, manage *share.Service) *ManageHandler {
	return &ManageHandler{Shares: shares, Manage: manage}
}

// ----- DTOs -----

type shareReq struct {
	ProjectID  uint64 `json:"project_id"`
	CustomerID uint64 `json:"customer_id"`
	// Password: omitted = keep current (update) / none (create),
	// empty string = remove password, anything else = set it.
	Password               *string `json:"password"`
	MergeMode              string  `json:"merge_mode"`
	EntryUserVisible       bool    `json:"entry_user_visible"`
	EntryRateVisible       bool    `json:"entry_rate_visible"`
	AnnualChartVisible     bool    `json:"annual_chart_visible"`
	MonthlyChartVisible    bool    `json:"monthly_chart_visible"`
	BudgetStatsVisible     bool    `json:"budget_stats_visible"`
	TimeBudgetStatsVisible bool    `json:"time_budget_stats_visible"`
}

type shareResp struct {
	ID                     uint64    `json:"id"`
	Scope                  scopeResp `json:"scope"`
	ShareKey               string    `json:"share_key"`
	HasPassword            bool      `json:"has_password"`
	MergeMode              string    `json:"merge_mode"`
	EntryUserVisible       bool      `json:"entry_user_visible"`
	EntryRateVisible       bool      `json:"entry_rate_visible"`
	AnnualChartVisible     bool      `json:"annual_chart_visible"`
	MonthlyChartVisible    bool      `json:"monthly_chart_visible"`
	BudgetStatsVisible     bool      `json:"budget_stats_visible"`
	TimeBudgetStatsVisible bool      `json:"time_budget_stats_visible"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func toShareResp(sh *model.SharedReport) shareResp {
	return shareResp{
		ID:                     sh.ID,
		Scope:                  toScopeResp(sh.Scope),
		ShareKey:               sh.ShareKey,
		HasPassword:            sh.HasPassword(),
		MergeMode:              string(sh.MergeMode),
		EntryUserVisible:       sh.EntryUserVisible,
		EntryRateVisible:       sh.EntryRateVisible,
		AnnualChartVisible:     sh.AnnualChartVisible,
		MonthlyChartVisible:    sh.MonthlyChartVisible,
		BudgetStatsVisible:     sh.BudgetStatsVisible,
		TimeBudgetStatsVisible: sh.TimeBudgetStatsVisible,
		CreatedAt:              sh.CreatedAt,
		UpdatedAt:              sh.UpdatedAt,
	}
}

// ----- routes -----

// List returns every configured share.
func (h *ManageHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	shares, err := h.Shares.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	out := make([]shareResp, 0, len(shares))
	for _, sh := range shares {
		out = append(out, toShareResp(sh))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a single share by id.
func (h *ManageHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sh, err := h.Shares.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShareNotFound) {
			return notFound(c)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, toShareResp(sh))
}

// Create registers a new share and generates its key.
func (h *ManageHandler) Create(c echo.Context) error {
	var req shareReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	scope, err := scopeFromReq(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	mode := model.MergeModeNone
	if req.MergeMode != "" {
		mode, err = model.ParseMergeMode(req.MergeMode)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}

	sh := &model.SharedReport{
		Scope:                  scope,
		MergeMode:              mode,
		EntryUserVisible:       req.EntryUserVisible,
		EntryRateVisible:       req.EntryRateVisible,
		AnnualChartVisible:     req.AnnualChartVisible,
		MonthlyChartVisible:    req.MonthlyChartVisible,
		BudgetStatsVisible:     req.BudgetStatsVisible,
		TimeBudgetStatsVisible: req.TimeBudgetStatsVisible,
	}

	password := ""
	if req.Password != nil {
		password = *req.Password
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Manage.Create(ctx, sh, password); err != nil {
		if errors.Is(err, share.ErrInvalidShare) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	go func() {
		_ = queue_publisher.PublishShareCreated(context.Background(), queue.ShareCreatedEvent{
			ShareID:   sh.ID,
			ScopeKind: string(sh.Scope.Kind),
			ScopeID:   scopeID(sh.Scope),
			ShareKey:  sh.ShareKey,
			MergeMode: string(sh.MergeMode),
			Protected: sh.HasPassword(),
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusCreated, toShareResp(sh))
}

// Update rewrites the mutable fields of an existing share. The scope stays
// as created; an omitted password keeps the current one.
func (h *ManageHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	var req shareReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sh, err := h.Shares.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShareNotFound) {
			return notFound(c)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if req.MergeMode != "" {
		mode, err := model.ParseMergeMode(req.MergeMode)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		sh.MergeMode = mode
	}
	sh.EntryUserVisible = req.EntryUserVisible
	sh.EntryRateVisible = req.EntryRateVisible
	sh.AnnualChartVisible = req.AnnualChartVisible
	sh.MonthlyChartVisible = req.MonthlyChartVisible
	sh.BudgetStatsVisible = req.BudgetStatsVisible
	sh.TimeBudgetStatsVisible = req.TimeBudgetStatsVisible

	password := share.PasswordUnchanged
	if req.Password != nil {
		password = *req.Password
	}

	if err := h.Manage.Update(ctx, sh, password); err != nil {
		switch {
		case errors.Is(err, share.ErrInvalidShare):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrShareNotFound):
			return notFound(c)
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, toShareResp(sh))
}

// Delete removes a share; its link stops working immediately.
func (h *ManageHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return notFound(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Manage.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShareNotFound) {
			return notFound(c)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func scopeFromReq(req shareReq) (model.Scope, error) {
	switch {
	case req.ProjectID != 0 && req.CustomerID != 0:
		return model.Scope{}, errors.New("project_id and customer_id are mutually exclusive")
	case req.ProjectID != 0:
		return model.ProjectScope(req.ProjectID), nil
	case req.CustomerID != 0:
		return model.CustomerScope(req.CustomerID), nil
	}
	return model.Scope{}, errors.New("either project_id or customer_id is required")
}
