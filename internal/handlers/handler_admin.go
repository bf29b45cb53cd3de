package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/finbeat/marketdata/internal/apperrors"
	portssvc "github.com/finbeat/marketdata/internal/core/ports/services"
	"github.com/finbeat/marketdata/internal/dto"
	"github.com/finbeat/marketdata/internal/middleware"
	"github.com/gin-gonic/gin"
)

// adminHandler exposes the operational surface: cache statistics, cache
// clearing, warming, and provider usage. Everything here goes through the
// same public service interfaces the market-data routes use.
type adminHandler struct {
	rateService  portssvc.RateSvcFacade
	priceService portssvc.PriceSvcFacade
}

func newAdminHandler(rs portssvc.RateSvcFacade, ps portssvc.PriceSvcFacade) *adminHandler {
	return &adminHandler{
		rateService:  rs,
		priceService: ps,
	}
}

// registerAdminRoutes registers the operational routes.
func registerAdminRoutes(rg *gin.RouterGroup, rateService portssvc.RateSvcFacade, priceService portssvc.PriceSvcFacade) {
	h := newAdminHandler(rateService, priceService)

	admin := rg.Group("/admin")
	{
		admin.GET("/cache/stats", h.getCacheStats)
		admin.DELETE("/cache", h.clearCache)
		admin.POST("/cache/warm", h.warmCache)
		admin.GET("/providers/usage", h.getProviderUsage)
	}
}

// getCacheStats godoc
// @Summary Report cache and record counts
// @Description Reports ephemeral entry counts, durable record counts and configured provider names per concept
// @Tags admin
// @Produce json
// @Success 200 {object} dto.CacheStatsResponse
// @Security BearerAuth
// @Router /admin/cache/stats [get]
func (h *adminHandler) getCacheStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rateStats, err := h.rateService.CacheStats(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get rate cache stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect cache statistics"})
		return
	}
	priceStats, err := h.priceService.CacheStats(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get price cache stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect cache statistics"})
		return
	}

	c.JSON(http.StatusOK, dto.CacheStatsResponse{Rates: *rateStats, Prices: *priceStats})
}

// clearCache godoc
// @Summary Clear ephemeral cache entries
// @Description Removes ephemeral entries for one concept or all of them, optionally scoped to one currency pair or security; durable records are untouched
// @Tags admin
// @Produce json
// @Param concept query string false "rates, prices or all (default all)"
// @Param from query string false "with concept=rates: scope the clear to one currency pair"
// @Param to query string false "with concept=rates: scope the clear to one currency pair"
// @Param symbol query string false "with concept=prices: scope the clear to one security"
// @Param exchange query string false "with concept=prices: exchange of the scoped security"
// @Success 200 {array} dto.ClearCacheResponse
// @Failure 400 {object} map[string]string "Unknown concept"
// @Security BearerAuth
// @Router /admin/cache [delete]
func (h *adminHandler) clearCache(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	concept := c.DefaultQuery("concept", "all")

	if concept == "rates" && c.Query("from") != "" && c.Query("to") != "" {
		h.clearRatePair(c, c.Query("from"), c.Query("to"))
		return
	}
	if concept == "prices" && c.Query("symbol") != "" {
		h.clearPriceSymbol(c, c.Query("symbol"), c.Query("exchange"))
		return
	}

	var results []dto.ClearCacheResponse
	if concept == "rates" || concept == "all" {
		cleared, err := h.rateService.InvalidateAllRates(c.Request.Context())
		if err != nil {
			logger.Error("Failed to clear rate cache", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear rate cache"})
			return
		}
		results = append(results, dto.ClearCacheResponse{Concept: "rates", Cleared: cleared})
	}
	if concept == "prices" || concept == "all" {
		cleared, err := h.priceService.InvalidateAllPrices(c.Request.Context())
		if err != nil {
			logger.Error("Failed to clear price cache", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear price cache"})
			return
		}
		results = append(results, dto.ClearCacheResponse{Concept: "prices", Cleared: cleared})
	}
	if results == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "concept must be rates, prices or all"})
		return
	}

	logger.Info("Cache cleared", slog.String("concept", concept))
	c.JSON(http.StatusOK, results)
}

// clearRatePair drops the ephemeral entries of one currency pair.
func (h *adminHandler) clearRatePair(c *gin.Context, from, to string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	cleared, err := h.rateService.InvalidateRatesForPair(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to clear rate cache for pair", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear rate cache"})
		return
	}

	logger.Info("Cache cleared for pair", slog.String("from", from), slog.String("to", to))
	c.JSON(http.StatusOK, []dto.ClearCacheResponse{{Concept: "rates", Cleared: cleared}})
}

// clearPriceSymbol drops the ephemeral entries of one security.
func (h *adminHandler) clearPriceSymbol(c *gin.Context, symbol, exchange string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	cleared, err := h.priceService.InvalidatePricesForSymbol(c.Request.Context(), symbol, exchange)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to clear price cache for symbol", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear price cache"})
		return
	}

	logger.Info("Cache cleared for symbol", slog.String("symbol", symbol))
	c.JSON(http.StatusOK, []dto.ClearCacheResponse{{Concept: "prices", Cleared: cleared}})
}

// warmCache godoc
// @Summary Pre-populate the cache
// @Description Batch-resolves the trailing N days for each listed currency pair and security, filling the cache and durable store
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.WarmCacheRequest true "Identities and day count"
// @Success 200 {object} dto.WarmCacheResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Security BearerAuth
// @Router /admin/cache/warm [post]
func (h *adminHandler) warmCache(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.WarmCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	dates := trailingDates(req.Days)
	var resp dto.WarmCacheResponse
	for _, pair := range req.Pairs {
		rates, err := h.rateService.ResolveRateRange(c.Request.Context(), pair.From, pair.To, dates, true)
		if err != nil {
			logger.Warn("Cache warm failed for pair",
				slog.String("from", pair.From), slog.String("to", pair.To),
				slog.String("error", err.Error()))
			continue
		}
		resp.RatesWarmed += len(rates)
	}
	for _, sym := range req.Symbols {
		prices, err := h.priceService.ResolvePriceRange(c.Request.Context(), sym.Symbol, sym.Exchange, dates, true)
		if err != nil {
			logger.Warn("Cache warm failed for symbol",
				slog.String("symbol", sym.Symbol), slog.String("error", err.Error()))
			continue
		}
		resp.PricesWarmed += len(prices)
	}

	logger.Info("Cache warmed",
		slog.Int("rates", resp.RatesWarmed), slog.Int("prices", resp.PricesWarmed))
	c.JSON(http.StatusOK, resp)
}

// getProviderUsage godoc
// @Summary Report provider usage statistics
// @Description Reports quota consumption per configured provider adapter, per concept
// @Tags admin
// @Produce json
// @Success 200 {object} dto.ProviderUsageResponse
// @Security BearerAuth
// @Router /admin/providers/usage [get]
func (h *adminHandler) getProviderUsage(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rateUsage, err := h.rateService.ProviderUsage(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get rate provider usage", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect provider usage"})
		return
	}
	priceUsage, err := h.priceService.ProviderUsage(c.Request.Context())
	if err != nil {
		logger.Error("Failed to get price provider usage", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect provider usage"})
		return
	}

	c.JSON(http.StatusOK, dto.ProviderUsageResponse{Rates: rateUsage, Prices: priceUsage})
}

// trailingDates lists today and the preceding days-1 calendar days.
func trailingDates(days int) []time.Time {
	now := time.Now().UTC()
	dates := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, now.AddDate(0, 0, -i))
	}
	return dates
}
