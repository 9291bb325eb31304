package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/royalty/backend/internal/infrastructure/auth"
	"github.com/royalty/backend/internal/infrastructure/config"
	"github.com/royalty/backend/internal/interfaces/http/handler"
	"github.com/royalty/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestAPI_Setup(t *testing.T) {
	t.Run("defaults to v1", func(t *testing.T) {
		engine := gin.New()
		NewAPI("").Mount(NewDomainGroup("/ping").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})).Setup(engine)

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/ping").Code)
	})

	t.Run("api middleware wraps every group", func(t *testing.T) {
		engine := gin.New()
		tag := func(c *gin.Context) {
			c.Header("X-Api", "v2")
			c.Next()
		}
		ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
		NewAPI("v2", tag).
			Mount(NewDomainGroup("/receipts").GET("", ok), NewDomainGroup("/payouts").GET("", ok)).
			Setup(engine)

		for _, path := range []string{"/api/v2/receipts", "/api/v2/payouts"} {
			w := serve(engine, http.MethodGet, path)
			assert.Equal(t, http.StatusNoContent, w.Code, path)
			assert.Equal(t, "v2", w.Header().Get("X-Api"), path)
		}
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/receipts").Code)
	})
}

func TestDomainGroup(t *testing.T) {
	echoID := func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }

	engine := gin.New()
	g := NewDomainGroup("/items").
		GET("/:id", echoID).
		POST("/:id", echoID).
		PATCH("/:id", echoID)
	NewAPI("v1").Mount(g).Setup(engine)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPatch} {
		w := serve(engine, method, "/api/v1/items/123")
		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.Equal(t, "123", w.Body.String(), method)
	}
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodDelete, "/api/v1/items/123").Code)

	t.Run("group middleware reaches subgroups", func(t *testing.T) {
		engine := gin.New()
		admin := NewDomainGroup("/admin").Use(func(c *gin.Context) {
			c.Header("X-Admin", "checked")
			c.Next()
		})
		admin.Group("/payouts").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "payouts")
		})
		NewAPI("v1").Mount(admin).Setup(engine)

		w := serve(engine, http.MethodGet, "/api/v1/admin/payouts")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "payouts", w.Body.String())
		assert.Equal(t, "checked", w.Header().Get("X-Admin"))
	})
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

const engineSecret = "router-test-secret-key-long-enough"

func newTestEngine(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{Secret: engineSecret, AccessTokenExpiration: time.Minute})
	engine, err := NewEngine(Handlers{
		Receipts:   &handler.ReceiptHandler{},
		Agreements: &handler.AgreementHandler{},
		Payouts:    &handler.PayoutHandler{},
		Exports:    &handler.ExportHandler{},
		Statements: &handler.StatementHandler{},
		Health:     handler.NewHealthHandler(okPinger{}),
	}, Options{
		Logger: zap.NewNop(),
		Auth: middleware.AuthConfig{
			JWTService:  jwtService,
			AdminPolicy: auth.NewAdminPolicy(config.AuthConfig{}),
		},
		CORS:        middleware.CORSConfig{AllowOrigins: []string{"https://console.example.com"}, AllowMethods: []string{"GET", "POST", "PATCH"}},
		MaxBodySize: 1 << 20,
	})
	require.NoError(t, err)
	return engine, jwtService
}

func TestNewEngine_Routes(t *testing.T) {
	engine, _ := newTestEngine(t)

	registered := map[string]bool{}
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /api/v1/health",
		"POST /api/v1/receipts",
		"GET /api/v1/receipts/:id",
		"POST /api/v1/receipts/:id/distribute",
		"GET /api/v1/receipts/:id/statement.pdf",
		"POST /api/v1/agreements",
		"GET /api/v1/agreements/:id",
		"GET /api/v1/payouts",
		"POST /api/v1/payouts/mark-paid",
		"PATCH /api/v1/admin/payouts/:id/mark-paid",
		"GET /api/v1/admin/payouts/export.csv",
		"POST /api/v1/admin/payouts/exports",
		"GET /api/v1/admin/receipts/:id/payouts",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestNewEngine_Middleware(t *testing.T) {
	engine, jwtService := newTestEngine(t)

	t.Run("health is public", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("api requires a token", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payouts", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin routes reject regular users", func(t *testing.T) {
		token, _, err := jwtService.GenerateToken(auth.GenerateTokenInput{UserID: uuid.New()})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/payouts/export.csv?month=2024-05", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/receipts", nil)
		req.Header.Set("Origin", "https://console.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://console.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("oversized body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", nil)
		req.ContentLength = 2 << 20
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestNewEngine_InvalidTrustedProxy(t *testing.T) {
	_, err := NewEngine(Handlers{Health: handler.NewHealthHandler(okPinger{})}, Options{
		Logger:         zap.NewNop(),
		TrustedProxies: []string{"not-an-ip"},
	})
	assert.Error(t, err)
}
