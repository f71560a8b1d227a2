package handler

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/observability"
	"github.com/gin-gonic/gin"
)

// staffTokenUser is recorded as the staff member when the static token is used.
const staffTokenUser = "staff-token"

// TokenVerifier resolves a session token to the staff e-mail.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// StaffAuthMiddleware enforces staff authentication on /api endpoints.
// Mode: required | optional | disabled
func StaffAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return StaffAuthMiddlewareWith(config.StaffAuthMode, config.StaffToken, verifier)
}

// StaffAuthMiddlewareWith is a testable variant of StaffAuthMiddleware. A request passes
// with the static token or with a session token accepted by verifier.
func StaffAuthMiddlewareWith(mode, staticToken string, verifier TokenVerifier) gin.HandlerFunc {
	mode = strings.ToLower(strings.TrimSpace(mode))
	staticToken = strings.TrimSpace(staticToken)

	return func(c *gin.Context) {
		if mode == "disabled" {
			c.Next()
			return
		}

		if staticToken == "" && verifier == nil {
			log.Printf("Staff auth required but neither STAFF_TOKEN nor Supabase is configured")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": msgAuth, "detail": "staff auth not configured"})
			return
		}

		provided := extractStaffToken(c)
		if provided == "" {
			if mode == "optional" {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgAuth, "detail": "missing staff token"})
			return
		}

		if staticToken != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(staticToken)) == 1 {
			c.Set(observability.StaffKey, staffTokenUser)
			c.Next()
			return
		}

		if verifier != nil {
			email, err := verifier.VerifyToken(c.Request.Context(), provided)
			if err == nil && email != "" {
				c.Set(observability.StaffKey, email)
				c.Next()
				return
			}
			if err != nil {
				observability.Logger(c).Warn("staff token rejected", "error", err.Error())
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgAuth, "detail": "invalid staff token"})
	}
}

func extractStaffToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.GetHeader("X-Staff-Token"))
}
