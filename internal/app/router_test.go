package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tiffin-promotions/internal/config"
	authHandler "tiffin-promotions/internal/handlers/auth"
	promotionHandler "tiffin-promotions/internal/handlers/promotion"
	wsHandler "tiffin-promotions/internal/handlers/websocket"
	"tiffin-promotions/internal/middleware"
	"tiffin-promotions/internal/pkg/idgen"
	"tiffin-promotions/internal/pkg/jwt"
	"tiffin-promotions/internal/repository/memory"
	promotionUsecase "tiffin-promotions/internal/service/promotion"
	"tiffin-promotions/internal/websocket"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier map[string][]string

func (s stubVerifier) VerifyAccessToken(token string) (*jwt.Claims, error) {
	roles, ok := s[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &jwt.Claims{
		Roles: roles,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "auth0|" + token,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, nil
}

type recordingLimiter struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLimiter) CheckAPIRateLimit(ctx context.Context, key string, maxRequests int64, window time.Duration) (bool, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return true, maxRequests - int64(len(l.keys)), nil
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestEngineWithLimiter(t, nil)
}

func newTestEngineWithLimiter(t *testing.T, limiter middleware.APIRateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	ids := idgen.NewULIDGenerator()
	repo := memory.NewPromotionRepository(memory.DefaultSeed(time.Now(), ids)...)
	svc := promotionUsecase.NewPromotionService(repo, ids, logger)

	verifier := stubVerifier{"admin": {"admin"}, "viewer": {"viewer"}}

	h := &Handlers{
		PromotionHandler: promotionHandler.NewPromotionHandler(svc, logger),
		AuthHandler:      authHandler.NewAuthHandler(nil, logger),
		WSHandler:        wsHandler.NewWebSocketHandler(websocket.NewHub(logger), nil, logger),
		AuthMiddleware:   middleware.NewAuthMiddleware(verifier, nil, logger),
	}
	if limiter != nil {
		h.RateLimit = middleware.RateLimitMiddleware(limiter, 100, time.Minute, logger)
	}

	r := gin.New()
	r.Use(middleware.CorrelationIDMiddleware())
	SetupRouter(r, h)
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthIsPublic(t *testing.T) {
	r := newTestEngine(t)

	w := get(r, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestPromotionRoutesRequireAdmin(t *testing.T) {
	r := newTestEngine(t)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/promotions", "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/api/v1/promotions", "viewer").Code)

	w := get(r, "/api/v1/promotions?page_size=100", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"total_pages":1`), w.Body.String())

	assert.Equal(t, http.StatusOK, get(r, "/api/v1/promotions/stats", "admin").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/ws/stats", "admin").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/api/v1/ws/stats", "viewer").Code)
}

func TestMeIsAvailableToAnyAuthenticatedUser(t *testing.T) {
	r := newTestEngine(t)

	assert.Equal(t, http.StatusOK, get(r, "/api/v1/auth/me", "viewer").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/auth/me", "nobody").Code)
}

func TestRateLimitAppliesPerSubjectOnAuthenticatedRoutes(t *testing.T) {
	limiter := &recordingLimiter{}
	r := newTestEngineWithLimiter(t, limiter)

	require.Equal(t, http.StatusOK, get(r, "/api/v1/promotions", "admin").Code)
	require.Equal(t, http.StatusOK, get(r, "/api/v1/auth/me", "viewer").Code)
	require.Equal(t, http.StatusOK, get(r, "/api/v1/health", "").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/promotions", "").Code)

	assert.Equal(t, []string{"sub:auth0|admin", "sub:auth0|viewer"}, limiter.keys)
}

func TestUnknownStoreBackend(t *testing.T) {
	s := NewServer(config.AppConfig{StoreBackend: "sqlite"}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_, err := s.openRepository(ctx, idgen.NewULIDGenerator())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}
