package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/utils"
)

const (
	csrfTokenTTL    = 15 * time.Minute
	csrfTokenIssuer = "cashkeep-csrf"
)

// RequireAdminToken aborts with 401 unless the request carries
// X-Admin-Token matching adminToken. Every write endpoint sits behind it.
func RequireAdminToken(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromContext(c)
		if adminToken == "" {
			logger.Warn("admin token check skipped: ADMIN_TOKEN not configured")
			c.Next()
			return
		}
		got := c.GetHeader("X-Admin-Token")
		if got == "" || got != adminToken {
			logger.Warn("rejected request: missing or invalid X-Admin-Token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "valid X-Admin-Token header required"})
			return
		}
		c.Next()
	}
}

// IssueCSRFToken mints the short-lived JWT GET /csrf-token returns. There is
// no subject to carry: cashkeep has one admin, not user accounts, so the
// token's only job is proving it was minted by this process recently.
func IssueCSRFToken(csrfSecret string) (string, time.Time, error) {
	expiresAt := time.Now().Add(csrfTokenTTL)
	token, err := utils.GenerateJWT("csrf", csrfSecret, csrfTokenTTL, csrfTokenIssuer)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// RequireCSRF aborts with 403 unless X-CSRF-Token carries a token minted by
// IssueCSRFToken that hasn't expired. It runs after RequireAdminToken on
// every state-changing route (double-submit against the admin token).
func RequireCSRF(csrfSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromContext(c)
		if csrfSecret == "" {
			logger.Warn("csrf check skipped: CSRF_TOKEN secret not configured")
			c.Next()
			return
		}
		tokenString := strings.TrimSpace(c.GetHeader("X-CSRF-Token"))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "X-CSRF-Token header required"})
			return
		}
		if _, err := utils.ParseAndValidateJWT(tokenString, csrfSecret); err != nil {
			logger.Warn("rejected request: invalid or expired X-CSRF-Token", "error", err)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or expired X-CSRF-Token"})
			return
		}
		c.Next()
	}
}
