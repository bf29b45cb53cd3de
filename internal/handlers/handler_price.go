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

// priceHandler handles HTTP requests related to security prices.
type priceHandler struct {
	priceService portssvc.PriceSvcFacade
}

// newPriceHandler creates a new priceHandler.
func newPriceHandler(ps portssvc.PriceSvcFacade) *priceHandler {
	return &priceHandler{
		priceService: ps,
	}
}

// registerPriceRoutes registers routes related to security prices. Reads are
// public; manual price entry requires authentication.
func registerPriceRoutes(rg *gin.RouterGroup, priceService portssvc.PriceSvcFacade, authMW gin.HandlerFunc) {
	h := newPriceHandler(priceService)

	prices := rg.Group("/prices")
	{
		prices.GET("/:symbol", h.getPrice)
		prices.GET("/:symbol/range", h.getPriceRange)
		prices.GET("/:symbol/history", h.getPriceHistory)
		prices.POST("", authMW, h.createPrice)
	}
}

// getPrice godoc
// @Summary Get a security price
// @Description Resolves the price for a security on a date through the cache, store and provider tiers
// @Tags prices
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Param exchange query string false "Exchange identifier"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Param cache query bool false "Use the ephemeral cache tier (default true)"
// @Success 200 {object} dto.SecurityPriceResponse
// @Failure 400 {object} map[string]string "Invalid symbol or date"
// @Failure 404 {object} map[string]string "No price available"
// @Router /prices/{symbol} [get]
func (h *priceHandler) getPrice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	date, err := parseDateParam(c, "date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := h.priceService.ResolvePrice(c.Request.Context(), c.Param("symbol"), c.Query("exchange"), date, parseCacheParam(c))
	if err != nil {
		respondPriceError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSecurityPriceResponse(price))
}

// getPriceRange godoc
// @Summary Get security prices for a date range
// @Description Resolves every date in [start, end] with at most one provider range fetch; dates with no data are absent from the result
// @Tags prices
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Param exchange query string false "Exchange identifier"
// @Param start query string true "Start date (YYYY-MM-DD)"
// @Param end query string true "End date (YYYY-MM-DD)"
// @Param cache query bool false "Use the ephemeral cache tier (default true)"
// @Success 200 {array} dto.SecurityPriceResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /prices/{symbol}/range [get]
func (h *priceHandler) getPriceRange(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	dates, err := parseRangeParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prices, err := h.priceService.ResolvePriceRange(c.Request.Context(), c.Param("symbol"), c.Query("exchange"), dates, parseCacheParam(c))
	if err != nil {
		respondPriceError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListSecurityPriceResponse(prices))
}

// getPriceHistory godoc
// @Summary List stored security prices
// @Description Pages through durable price records for a security, newest first
// @Tags prices
// @Produce json
// @Param symbol path string true "Ticker symbol"
// @Param exchange query string false "Exchange identifier"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.PriceHistoryResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /prices/{symbol}/history [get]
func (h *priceHandler) getPriceHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	prices, nextToken, err := h.priceService.ListPriceHistory(
		c.Request.Context(), c.Param("symbol"), c.Query("exchange"),
		c.Query("nextToken"), parseLimitParam(c, 0))
	if err != nil {
		respondPriceError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.PriceHistoryResponse{
		Prices:    dto.ToListSecurityPriceResponse(prices),
		NextToken: nextToken,
	})
}

// createPrice godoc
// @Summary Create a security price manually
// @Description Inserts a manually sourced price into the durable store and invalidates the matching cache entry
// @Tags prices
// @Accept json
// @Produce json
// @Param price body dto.CreateSecurityPriceRequest true "Security Price details"
// @Success 201 {object} dto.SecurityPriceResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Security BearerAuth
// @Router /prices [post]
func (h *priceHandler) createPrice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateSecurityPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createPrice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	created, err := h.priceService.CreateSecurityPrice(c.Request.Context(), req)
	if err != nil {
		respondPriceError(c, logger, err)
		return
	}

	logger.Info("Security price created", slog.String("symbol", created.Symbol))
	c.JSON(http.StatusCreated, dto.ToSecurityPriceResponse(created))
}

// respondPriceError maps service errors onto HTTP statuses.
func respondPriceError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Security price not found"})
	default:
		logger.Error("Security price request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process security price request"})
	}
}
