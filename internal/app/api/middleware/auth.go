package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/pkg/config"
	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/response"
)

const (
	keyClaims = "claims"

	bearerPrefix = "Bearer "
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the access token payload issued by the account service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	Phone  string `json:"phone,omitempty"`
	jwt.StandardClaims
}

// ParseToken validates an HS256 bearer token.
func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !tok.Valid || claims.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's user id on the gin and request contexts.
func AuthRequired(cfg *config.Config, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, base)
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorMsg(response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}
		claims, err := ParseToken(cfg.JWT.Secret, strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			log.Infow("auth_rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorMsg(response.APIResponseCodeUnauthorized, "invalid token"))
			return
		}

		SetClaims(c, claims)
		setLogger(c, log.With("user_id", claims.UserID))
		c.Next()
	}
}

// SetClaims records an authenticated caller on the gin and request contexts.
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(keyClaims, claims)
	c.Set(logctx.KeyUserID, claims.UserID)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logctx.KeyUserID, claims.UserID))
}

// RequireRole must run after AuthRequired.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil || claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorMsg(response.APIResponseCodeForbidden, "forbidden"))
			return
		}
		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(keyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// UserID returns the authenticated caller, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(logctx.KeyUserID)
}
