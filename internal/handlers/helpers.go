package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
)

// parseDayQuery reads name from the query string and parses it as a Day,
// falling back to def when the parameter is absent.
func parseDayQuery(c *gin.Context, name string, def domain.Day) (domain.Day, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	day, err := domain.ParseDay(raw)
	if err != nil {
		return domain.Day{}, apperrors.Validation("malformed " + name + ": " + err.Error())
	}
	return day, nil
}

// requireDayQuery is parseDayQuery without a fallback: the parameter is
// mandatory.
func requireDayQuery(c *gin.Context, name string) (domain.Day, error) {
	raw := c.Query(name)
	if raw == "" {
		return domain.Day{}, apperrors.Validation(name + " is required")
	}
	day, err := domain.ParseDay(raw)
	if err != nil {
		return domain.Day{}, apperrors.Validation("malformed " + name + ": " + err.Error())
	}
	return day, nil
}

// parseAccountsQuery splits a comma-separated accounts= filter. Gin's
// form-struct binding only handles scalar query params, so multi-value
// filters like this one are split by hand.
func parseAccountsQuery(c *gin.Context) []string {
	raw := c.Query("accounts")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseInt64Query reads an int64 query parameter, falling back to def.
func parseInt64Query(c *gin.Context, name string, def int64) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Validation("malformed " + name)
	}
	return v, nil
}

// parseIntQuery reads an int query parameter, falling back to def.
func parseIntQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("malformed " + name)
	}
	return v, nil
}

// today truncates the current wall clock to a UTC calendar Day.
func today() domain.Day {
	return domain.NewDay(time.Now())
}

// parseFloatQuery parses a bare float64 string (band_k arrives as an
// unscaled float, unlike every monetary field which is integer cents).
func parseFloatQuery(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}
