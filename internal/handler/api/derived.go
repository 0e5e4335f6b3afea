// Package api exposes the derived-data read surface and a manual
// pre-market trigger over HTTP. It is a downstream consumer of the core
// pipeline, never a participant in its dispatch.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"PivotPipe/internal/domain/models"
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/internal/usecase"
	"PivotPipe/pkg/logger"
)

var validate = validator.New()

// Handler serves the derived-data API.
type Handler struct {
	log      *logger.Logger
	store    drepo.DerivedStore
	computer *usecase.DerivedComputer
}

// NewHandler creates the API handler.
func NewHandler(log *logger.Logger, store drepo.DerivedStore, computer *usecase.DerivedComputer) *Handler {
	return &Handler{log: log, store: store, computer: computer}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/levels/:symbol", h.getLevels)
	g.GET("/levels/:symbol/step/:step", h.getStep)
	g.GET("/universe", h.getUniverse)
	g.GET("/gaps", h.getGaps)
	g.POST("/premarket/run", h.runPreMarket)
}

func (h *Handler) getLevels(c echo.Context) error {
	d, err := h.store.GetSymbolData(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		if errors.Is(err, drepo.ErrNoSymbolData) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

type stepResponse struct {
	Symbol string  `json:"symbol"`
	Step   int     `json:"step"`
	Side   string  `json:"side"`
	Target float64 `json:"target"`
	Flip   float64 `json:"flip"`
	Stop   float64 `json:"stop"`
}

func (h *Handler) getStep(c echo.Context) error {
	symbol := c.Param("symbol")
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "step must be an integer")
	}
	side := models.Side(c.QueryParam("side"))
	if side != models.SideLong && side != models.SideShort {
		return echo.NewHTTPError(http.StatusBadRequest, "side must be LONG or SHORT")
	}

	ctx := c.Request().Context()
	target, err := h.store.TargetByStep(ctx, symbol, step, side)
	if err != nil {
		return stepError(err)
	}
	flip, err := h.store.FlipForStep(ctx, symbol, step, side)
	if err != nil && !errors.Is(err, drepo.ErrStepOutOfRange) {
		return stepError(err)
	}
	stop, err := h.store.StopForStep(ctx, symbol, step, side)
	if err != nil {
		return stepError(err)
	}

	return c.JSON(http.StatusOK, stepResponse{
		Symbol: symbol,
		Step:   step,
		Side:   string(side),
		Target: target,
		Flip:   flip,
		Stop:   stop,
	})
}

func stepError(err error) error {
	switch {
	case errors.Is(err, drepo.ErrNoSymbolData):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, drepo.ErrStepOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) getUniverse(c echo.Context) error {
	snap, err := h.store.LatestUniverseSnapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) getGaps(c echo.Context) error {
	snap, err := h.store.LatestGapSnapshot(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, snap)
}

type preMarketRequest struct {
	Symbols       []string                      `json:"symbols" validate:"required,min=1"`
	Omitted       []string                      `json:"omitted"`
	ThresholdPct  float64                       `json:"threshold_pct" default:"0.25" validate:"gt=0"`
	TopN          int                           `json:"top_n" default:"5" validate:"gt=0"`
	TargetStepPct float64                       `json:"target_step_pct" default:"0.25" validate:"gt=0"`
	TargetMaxPct  float64                       `json:"target_max_pct" default:"20.0" validate:"gt=0"`
	FlipStepsPct  []float64                     `json:"flip_steps_pct"`
	PrevDay       map[string]models.PrevDayOHLC `json:"prev_day" validate:"required"`
}

// runPreMarket triggers a pre-market computation with an explicitly
// supplied universe and previous-day table. Useful for backfills and
// operator-driven reruns; the result supersedes per-symbol records the same
// way a scheduled run does.
func (h *Handler) runPreMarket(c echo.Context) error {
	var req preMarketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := defaults.Set(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.StructCtx(c.Request().Context(), &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.FlipStepsPct) == 0 {
		req.FlipStepsPct = []float64{0.0, 0.02, 0.04, 0.05, 0.06, 0.08, 0.10}
	}

	cfg := usecase.UniverseConfig{
		Symbols:       req.Symbols,
		Omitted:       req.Omitted,
		ThresholdPct:  req.ThresholdPct,
		TopN:          req.TopN,
		TargetStepPct: req.TargetStepPct,
		TargetMaxPct:  req.TargetMaxPct,
		FlipStepsPct:  req.FlipStepsPct,
	}
	snap, err := h.computer.RunPreMarket(c.Request().Context(), cfg, req.PrevDay)
	if err != nil {
		h.log.Error("manual pre-market run failed", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, snap)
}
