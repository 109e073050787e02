package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Auth header constants
const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	// WebhookSenderKey is the context key for the authenticated webhook sender
	WebhookSenderKey = "webhook_sender"
)

// WebhookAuthConfig holds configuration for webhook authentication
type WebhookAuthConfig struct {
	// Secret is the shared HMAC secret the CRM signs webhook tokens with.
	// An empty secret disables authentication (development only).
	Secret string
	// Logger for middleware logging
	Logger *zap.Logger
}

// WebhookAuth verifies the bearer token the CRM attaches to webhook calls.
// Tokens are HS256-signed JWTs; the subject claim identifies the sender.
func WebhookAuth(cfg WebhookAuthConfig) gin.HandlerFunc {
	if cfg.Secret == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	secret := []byte(cfg.Secret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			webhookAuthError(c, cfg, "INVALID_TOKEN", "Missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			webhookAuthError(c, cfg, "INVALID_TOKEN", "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			webhookAuthError(c, cfg, "INVALID_TOKEN", "Missing token")
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				webhookAuthError(c, cfg, "TOKEN_EXPIRED", "Token has expired")
				return
			}
			webhookAuthError(c, cfg, "INVALID_TOKEN", "Invalid token")
			return
		}

		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			c.Set(WebhookSenderKey, sub)
		}

		c.Next()
	}
}

// GetWebhookSender retrieves the authenticated webhook sender from context
func GetWebhookSender(c *gin.Context) string {
	if sender, exists := c.Get(WebhookSenderKey); exists {
		if s, ok := sender.(string); ok {
			return s
		}
	}
	return ""
}

// webhookAuthError rejects the request with a 401 response
func webhookAuthError(c *gin.Context, cfg WebhookAuthConfig, code, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Webhook authentication failed",
			zap.String("code", code),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
