package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	payoutapp "github.com/royalty/backend/internal/application/payout"
	"github.com/royalty/backend/internal/infrastructure/auth"
	"github.com/royalty/backend/internal/infrastructure/logger"
	"github.com/royalty/backend/internal/interfaces/http/dto"
)

// Auth context keys
const (
	ActorKey      = "actor"
	UserIDKey     = "user_id"
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// AuthConfig holds the collaborators of the authentication middleware
type AuthConfig struct {
	JWTService  *auth.JWTService
	ServiceKeys *auth.ServiceKeyVerifier
	AdminPolicy *auth.AdminPolicy
	Logger      *zap.Logger
}

// Authenticate resolves the caller from a bearer JWT or the service key and
// stores a payout Actor in the context.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, cfg, dto.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, cfg, dto.ErrCodeTokenInvalid, "Invalid authorization header format", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if token == "" {
			abortUnauthorized(c, cfg, dto.ErrCodeTokenInvalid, "Missing token", nil)
			return
		}

		claims, err := cfg.JWTService.ValidateToken(token)
		if err == nil {
			userID, _ := uuid.Parse(claims.UserID)
			c.Set(JWTClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID)
			c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
			c.Set(ActorKey, payoutapp.Actor{
				UserID:  userID,
				IsAdmin: cfg.AdminPolicy.IsAdmin(claims),
			})
			c.Next()
			return
		}

		// Not a JWT at all: try the back-office service credential
		if errors.Is(err, auth.ErrInvalidToken) && cfg.ServiceKeys != nil && cfg.ServiceKeys.Enabled() && cfg.ServiceKeys.Verify(token) {
			c.Set(ActorKey, payoutapp.Actor{IsService: true})
			c.Next()
			return
		}

		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			abortUnauthorized(c, cfg, dto.ErrCodeTokenExpired, "Token has expired", err)
		case errors.Is(err, auth.ErrTokenNotYetValid):
			abortUnauthorized(c, cfg, dto.ErrCodeTokenInvalid, "Token is not yet valid", err)
		default:
			abortUnauthorized(c, cfg, dto.ErrCodeTokenInvalid, "Invalid token", err)
		}
	}
}

func abortUnauthorized(c *gin.Context, cfg AuthConfig, code, message string, err error) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Authentication failed",
			zap.Error(err),
			zap.String("code", code),
			zap.String("path", c.Request.URL.Path),
		)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// RequireAdmin rejects callers the admin policy does not recognise
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		if !actor.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Admin access required", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// GetActor returns the caller resolved by Authenticate
func GetActor(c *gin.Context) (payoutapp.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return payoutapp.Actor{}, false
	}
	actor, ok := v.(payoutapp.Actor)
	return actor, ok
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
