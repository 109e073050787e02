package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "test-webhook-secret-for-middleware-tests"

func signWebhookToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func setupWebhookAuthRouter(cfg WebhookAuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WebhookAuth(cfg))
	router.POST("/hook", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sender": GetWebhookSender(c)})
	})
	return router
}

func TestWebhookAuth(t *testing.T) {
	t.Run("accepts a valid token and exposes the sender", func(t *testing.T) {
		router := setupWebhookAuthRouter(WebhookAuthConfig{Secret: testWebhookSecret})

		token := signWebhookToken(t, testWebhookSecret, "crm", time.Now().Add(time.Hour))
		req := httptest.NewRequest("POST", "/hook", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"sender":"crm"`)
	})

	t.Run("rejects a missing authorization header", func(t *testing.T) {
		router := setupWebhookAuthRouter(WebhookAuthConfig{Secret: testWebhookSecret})

		req := httptest.NewRequest("POST", "/hook", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("rejects a non-bearer header", func(t *testing.T) {
		router := setupWebhookAuthRouter(WebhookAuthConfig{Secret: testWebhookSecret})

		req := httptest.NewRequest("POST", "/hook", nil)
		req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		router := setupWebhookAuthRouter(WebhookAuthConfig{Secret: testWebhookSecret})

		token := signWebhookToken(t, testWebhookSecret, "crm", time.Now().Add(-time.Hour))
		req := httptest.NewRequest("POST", "/hook", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("rejects a token signed with the wrong secret", func(t *testing.T) {
		router := setupWebhookAuthRouter(WebhookAuthConfig{Secret: testWebhookSecret})

		token := signWebhookToken(t, "some-other-secret", "crm", time.Now().Add(time.Hour))
		req := httptest.NewRequest("POST", "/hook", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("passes everything through when no secret is configured", func(t *testing.T) {
		router := setupWebhookAuthRouter(WebhookAuthConfig{Secret: ""})

		req := httptest.NewRequest("POST", "/hook", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetWebhookSender(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns empty string when unset", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Equal(t, "", GetWebhookSender(c))
	})

	t.Run("returns the stored sender", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(WebhookSenderKey, "crm")
		assert.Equal(t, "crm", GetWebhookSender(c))
	})
}
