package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skuswap/backend/internal/infrastructure/auth"
	"github.com/skuswap/backend/internal/infrastructure/logger"
	"github.com/skuswap/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTSubjectKey = "jwt_subject"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Error codes for rejected admin tokens
const (
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeTokenNotYetValid = "TOKEN_NOT_VALID"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token with 401 and stores
// the token's claims on the context for the handlers behind it.
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			abortUnauthorized(c, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := validator.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, err, "Token validation failed")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTSubjectKey, claims.Subject)
		logger.L(c.Request.Context()).Debug("Admin token accepted", zap.String("subject", claims.Subject))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error, reason string) {
	logger.L(c.Request.Context()).Warn("Admin authentication failed",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
	)

	code, message := ErrCodeInvalidToken, "Invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = ErrCodeTokenNotYetValid, "Token is not yet valid"
	case c.GetHeader(AuthHeaderKey) == "":
		code, message = dto.ErrCodeUnauthorized, "Authentication required"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}
