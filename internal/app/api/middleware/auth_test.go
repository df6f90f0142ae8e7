package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/pkg/config"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret, AdminRole: "admin"}}
	log := zap.NewNop().Sugar()
	r := gin.New()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(log))
	authed := r.Group("/", AuthRequired(cfg, log))
	authed.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	authed.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newAuthRouter()
	exp := time.Now().Add(time.Hour).Unix()

	w := do(r, "/me", signToken(t, testSecret, Claims{UserID: "u1", StandardClaims: jwt.StandardClaims{ExpiresAt: exp}}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", signToken(t, "other", Claims{UserID: "u1"})).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", signToken(t, testSecret, Claims{UserID: "u1", StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()}})).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", signToken(t, testSecret, Claims{})).Code)
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter()

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", signToken(t, testSecret, Claims{UserID: "u1"})).Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", signToken(t, testSecret, Claims{UserID: "ops", Role: "admin"})).Code)
}

func TestTraceMiddleware_KeepsValidRequestID(t *testing.T) {
	r := newAuthRouter()
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "bad id\nwith newline")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "bad id\nwith newline", w.Header().Get(HeaderRequestID))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}
