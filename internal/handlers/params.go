package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const queryDateFormat = "2006-01-02"

// Range endpoints cap the number of expanded days so one request can't fan
// out into an unbounded batch.
const maxRangeDays = 366

// parseDateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func parseDateParam(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	d, err := time.Parse(queryDateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be formatted YYYY-MM-DD", name)
	}
	return d, nil
}

// parseCacheParam reads the cache query parameter; the cache is on unless
// explicitly disabled.
func parseCacheParam(c *gin.Context) bool {
	raw := c.Query("cache")
	if raw == "" {
		return true
	}
	useCache, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return useCache
}

// parseRangeParams reads start/end and expands them into one date per day.
func parseRangeParams(c *gin.Context) ([]time.Time, error) {
	startRaw, endRaw := c.Query("start"), c.Query("end")
	if startRaw == "" || endRaw == "" {
		return nil, fmt.Errorf("start and end query parameters are required")
	}
	start, err := time.Parse(queryDateFormat, startRaw)
	if err != nil {
		return nil, fmt.Errorf("start must be formatted YYYY-MM-DD")
	}
	end, err := time.Parse(queryDateFormat, endRaw)
	if err != nil {
		return nil, fmt.Errorf("end must be formatted YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end must not be before start")
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("range must not exceed %d days", maxRangeDays)
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// parseLimitParam reads an integer limit with a fallback.
func parseLimitParam(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
