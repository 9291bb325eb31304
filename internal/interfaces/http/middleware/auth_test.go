package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/royalty/backend/internal/infrastructure/auth"
	"github.com/royalty/backend/internal/infrastructure/config"
	"github.com/royalty/backend/internal/interfaces/http/dto"
)

const (
	testSecret     = "test-secret-key-that-is-long-enough"
	testServiceKey = "svc_live_0123456789abcdef"
)

func newTestAuthConfig(t *testing.T, adminEmails ...string) (AuthConfig, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "royalty-test", AccessTokenExpiration: time.Minute})
	hash, err := auth.HashServiceKey(testServiceKey, bcrypt.MinCost)
	require.NoError(t, err)
	return AuthConfig{
		JWTService:  jwtService,
		ServiceKeys: auth.NewServiceKeyVerifier(hash),
		AdminPolicy: auth.NewAdminPolicy(config.AuthConfig{AdminEmails: adminEmails}),
	}, jwtService
}

func newAuthRouter(cfg AuthConfig, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Authenticate(cfg))
	router.Use(extra...)
	router.GET("/me", func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"userId":    actor.UserID.String(),
			"isAdmin":   actor.IsAdmin,
			"isService": actor.IsService,
		})
	})
	return router
}

func doAuth(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set(AuthHeaderKey, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestAuthenticate_JWT(t *testing.T) {
	cfg, jwtService := newTestAuthConfig(t, "ops@example.com")
	router := newAuthRouter(cfg)
	userID := uuid.New()

	t.Run("valid token resolves a user actor", func(t *testing.T) {
		token, _, err := jwtService.GenerateToken(auth.GenerateTokenInput{UserID: userID, Email: "creator@example.com"})
		require.NoError(t, err)

		w := doAuth(router, BearerPrefix+token)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID.String(), body["userId"])
		assert.Equal(t, false, body["isAdmin"])
		assert.Equal(t, false, body["isService"])
	})

	t.Run("allowlisted email is admin", func(t *testing.T) {
		token, _, err := jwtService.GenerateToken(auth.GenerateTokenInput{UserID: userID, Email: "OPS@example.com"})
		require.NoError(t, err)

		w := doAuth(router, BearerPrefix+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"isAdmin":true`)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "royalty-test",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
			UserID: userID.String(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		w := doAuth(router, BearerPrefix+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, w))
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-entirely", Issuer: "royalty-test"})
		token, _, err := other.GenerateToken(auth.GenerateTokenInput{UserID: userID})
		require.NoError(t, err)

		w := doAuth(router, BearerPrefix+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})
}

func TestAuthenticate_ServiceKey(t *testing.T) {
	cfg, _ := newTestAuthConfig(t)
	router := newAuthRouter(cfg)

	w := doAuth(router, BearerPrefix+testServiceKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isService":true`)
	assert.Contains(t, w.Body.String(), `"isAdmin":false`)

	w = doAuth(router, BearerPrefix+"svc_live_wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cfg.ServiceKeys = auth.NewServiceKeyVerifier("")
	w = doAuth(newAuthRouter(cfg), BearerPrefix+testServiceKey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	cfg, _ := newTestAuthConfig(t)
	router := newAuthRouter(cfg)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", dto.ErrCodeUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", dto.ErrCodeTokenInvalid},
		{"empty bearer", "Bearer ", dto.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAuth(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	cfg, jwtService := newTestAuthConfig(t)
	router := newAuthRouter(cfg, RequireAdmin())

	userToken, _, err := jwtService.GenerateToken(auth.GenerateTokenInput{UserID: uuid.New()})
	require.NoError(t, err)
	adminToken, _, err := jwtService.GenerateToken(auth.GenerateTokenInput{UserID: uuid.New(), Role: auth.RoleAdmin})
	require.NoError(t, err)

	w := doAuth(router, BearerPrefix+userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))

	w = doAuth(router, BearerPrefix+testServiceKey)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doAuth(router, BearerPrefix+adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_WithoutActor(t *testing.T) {
	router := gin.New()
	router.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
