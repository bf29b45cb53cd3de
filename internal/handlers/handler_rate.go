package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/finbeat/marketdata/internal/apperrors"
	portssvc "github.com/finbeat/marketdata/internal/core/ports/services"
	"github.com/finbeat/marketdata/internal/dto"
	"github.com/finbeat/marketdata/internal/middleware"
	"github.com/gin-gonic/gin"
)

// rateHandler handles HTTP requests related to exchange rates.
type rateHandler struct {
	rateService portssvc.RateSvcFacade
}

// newRateHandler creates a new rateHandler.
func newRateHandler(rs portssvc.RateSvcFacade) *rateHandler {
	return &rateHandler{
		rateService: rs,
	}
}

// registerRateRoutes registers routes related to exchange rates. Reads are
// public; manual rate entry requires authentication.
func registerRateRoutes(rg *gin.RouterGroup, rateService portssvc.RateSvcFacade, authMW gin.HandlerFunc) {
	h := newRateHandler(rateService)

	rates := rg.Group("/rates")
	{
		rates.GET("/:from/:to", h.getRate)
		rates.GET("/:from/:to/range", h.getRateRange)
		rates.GET("/:from/:to/history", h.getRateHistory)
		rates.POST("", authMW, h.createRate)
	}
}

// getRate godoc
// @Summary Get an exchange rate
// @Description Resolves the exchange rate for a currency pair on a date through the cache, store and provider tiers
// @Tags rates
// @Produce json
// @Param from path string true "From Currency Code (3 letters)"
// @Param to path string true "To Currency Code (3 letters)"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param cache query bool false "Use the ephemeral cache tier (default true)"
// @Success 200 {object} dto.ExchangeRateResponse
// @Failure 400 {object} map[string]string "Invalid currency code or date"
// @Failure 404 {object} map[string]string "No rate available"
// @Router /rates/{from}/{to} [get]
func (h *rateHandler) getRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	date, err := parseDateParam(c, "date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rate, err := h.rateService.ResolveRate(c.Request.Context(), c.Param("from"), c.Param("to"), date, parseCacheParam(c))
	if err != nil {
		respondRateError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToExchangeRateResponse(rate))
}

// getRateRange godoc
// @Summary Get exchange rates for a date range
// @Description Resolves every date in [start, end] with at most one provider range fetch; dates with no data are absent from the result
// @Tags rates
// @Produce json
// @Param from path string true "From Currency Code (3 letters)"
// @Param to path string true "To Currency Code (3 letters)"
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD)"
// @Param cache query bool false "Use the ephemeral cache tier (default true)"
// @Success 200 {array} dto.ExchangeRateResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /rates/{from}/{to}/range [get]
func (h *rateHandler) getRateRange(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	dates, err := parseRangeParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rates, err := h.rateService.ResolveRateRange(c.Request.Context(), c.Param("from"), c.Param("to"), dates, parseCacheParam(c))
	if err != nil {
		respondRateError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListExchangeRateResponse(rates))
}

// getRateHistory godoc
// @Summary List stored exchange rates
// @Description Pages through durable rate records for a pair, newest first
// @Tags rates
// @Produce json
// @Param from path string true "From Currency Code (3 letters)"
// @Param to path string true "To Currency Code (3 letters)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.RateHistoryResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /rates/{from}/{to}/history [get]
func (h *rateHandler) getRateHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rates, nextToken, err := h.rateService.ListRateHistory(
		c.Request.Context(), c.Param("from"), c.Param("to"),
		c.Query("nextToken"), parseLimitParam(c, 0))
	if err != nil {
		respondRateError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.RateHistoryResponse{
		Rates:     dto.ToListExchangeRateResponse(rates),
		NextToken: nextToken,
	})
}

// createRate godoc
// @Summary Create an exchange rate manually
// @Description Inserts a manually sourced rate into the durable store and invalidates the matching cache entry
// @Tags rates
// @Accept json
// @Produce json
// @Param rate body dto.CreateExchangeRateRequest true "Exchange Rate details"
// @Success 201 {object} dto.ExchangeRateResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Security BearerAuth
// @Router /rates [post]
func (h *rateHandler) createRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	created, err := h.rateService.CreateExchangeRate(c.Request.Context(), req)
	if err != nil {
		respondRateError(c, logger, err)
		return
	}

	logger.Info("Exchange rate created",
		slog.String("from", created.FromCurrencyCode),
		slog.String("to", created.ToCurrencyCode))
	c.JSON(http.StatusCreated, dto.ToExchangeRateResponse(created))
}

// respondRateError maps service errors onto HTTP statuses.
func respondRateError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Exchange rate not found"})
	default:
		logger.Error("Exchange rate request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process exchange rate request"})
	}
}
