package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/dto"
	"github.com/cashkeep/cashkeep/internal/middleware"
)

type forecastHandler struct {
	deps *Dependencies
}

func newForecastHandler(deps *Dependencies) *forecastHandler {
	return &forecastHandler{deps: deps}
}

func registerForecastRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	h := newForecastHandler(deps)

	rg.GET("/forecast/calendar", h.calendar)
	rg.GET("/forecast/blended", h.blended)
	rg.POST("/forecast/simulate-spend", h.simulateSpend)
}

// calendar handles GET /forecast/calendar?start&end&buffer_floor&accounts=
func (h *forecastHandler) calendar(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	start, err := requireDayQuery(c, "start")
	if err != nil {
		c.Error(err)
		return
	}
	end, err := requireDayQuery(c, "end")
	if err != nil {
		c.Error(err)
		return
	}
	bufferFloor, err := parseInt64Query(c, "buffer_floor", h.deps.Cfg.BufferFloorCents)
	if err != nil {
		c.Error(err)
		return
	}
	accountIDs := parseAccountsQuery(c)
	if len(accountIDs) == 0 {
		accountIDs, err = activeAccountIDs(c.Request.Context(), h.deps)
		if err != nil {
			c.Error(apperrors.Internal("list active accounts", err))
			return
		}
	}

	fc, err := h.deps.Forecast.Compute(c.Request.Context(), start, end, accountIDs, bufferFloor)
	if err != nil {
		c.Error(err)
		return
	}
	logger.Info("computed calendar forecast", "start", start.String(), "end", end.String())
	c.JSON(http.StatusOK, dto.ToCalendarResponse(fc))
}

// blended handles GET /forecast/blended?...&band_k=
func (h *forecastHandler) blended(c *gin.Context) {
	start, err := requireDayQuery(c, "start")
	if err != nil {
		c.Error(err)
		return
	}
	end, err := requireDayQuery(c, "end")
	if err != nil {
		c.Error(err)
		return
	}
	bufferFloor, err := parseInt64Query(c, "buffer_floor", h.deps.Cfg.BufferFloorCents)
	if err != nil {
		c.Error(err)
		return
	}
	bandKRaw := c.DefaultQuery("band_k", "1")
	bandK, convErr := parseFloatQuery(bandKRaw)
	if convErr != nil {
		c.Error(apperrors.Validation("malformed band_k"))
		return
	}
	accountIDs := parseAccountsQuery(c)
	if len(accountIDs) == 0 {
		accountIDs, err = activeAccountIDs(c.Request.Context(), h.deps)
		if err != nil {
			c.Error(apperrors.Internal("list active accounts", err))
			return
		}
	}

	fc, err := h.deps.Forecast.Compute(c.Request.Context(), start, end, accountIDs, bufferFloor)
	if err != nil {
		c.Error(err)
		return
	}
	stats, err := h.deps.Blended.ComputeDailyStats(c.Request.Context(), start)
	if err != nil {
		c.Error(err)
		return
	}
	weekdayMult, err := h.deps.Blended.ComputeWeekdayMultipliers(c.Request.Context(), start)
	if err != nil {
		c.Error(err)
		return
	}
	series := h.deps.Blended.Blend(fc, stats, weekdayMult, bandK)

	c.JSON(http.StatusOK, dto.BlendedResponse{
		Deterministic: dto.ToCalendarResponse(fc),
		Baseline:      series.Baseline,
		Lower:         series.Lower,
		Upper:         series.Upper,
		MeanCents:     stats.MeanCents,
		StdDevCents:   stats.StdDevCents,
	})
}

// simulateSpend handles POST /forecast/simulate-spend.
func (h *forecastHandler) simulateSpend(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	var req dto.SimulateSpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.Validation(err.Error()))
		return
	}

	date, err := domain.ParseDay(req.Date)
	if err != nil {
		c.Error(apperrors.Validation("malformed date: " + err.Error()))
		return
	}

	bufferFloor := h.deps.Cfg.BufferFloorCents
	if req.BufferFloorCents != nil {
		bufferFloor = *req.BufferFloorCents
	}
	horizonDays := 90
	if req.HorizonDays != nil {
		horizonDays = *req.HorizonDays
	}
	accountIDs := req.AccountIDs
	if len(accountIDs) == 0 {
		accountIDs, err = activeAccountIDs(c.Request.Context(), h.deps)
		if err != nil {
			c.Error(apperrors.Internal("list active accounts", err))
			return
		}
	}

	result, err := h.deps.Simulator.SimulateSpend(c.Request.Context(), date, req.AmountCents, accountIDs, bufferFloor, horizonDays)
	if err != nil {
		c.Error(err)
		return
	}
	logger.Info("simulated spend", "date", date.String(), "amount_cents", req.AmountCents, "safe", result.Safe)
	c.JSON(http.StatusOK, dto.ToSimulateSpendResponse(result))
}
