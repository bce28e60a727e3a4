// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"tiffin-promotions/internal/config"
	"tiffin-promotions/internal/db"
	"tiffin-promotions/internal/domain/promotion"
	authHandler "tiffin-promotions/internal/handlers/auth"
	promotionHandler "tiffin-promotions/internal/handlers/promotion"
	wsHandler "tiffin-promotions/internal/handlers/websocket"
	"tiffin-promotions/internal/middleware"
	"tiffin-promotions/internal/pkg/idgen"
	"tiffin-promotions/internal/pkg/jwt"
	"tiffin-promotions/internal/pkg/logger"
	"tiffin-promotions/internal/pkg/session"
	"tiffin-promotions/internal/repository/memory"
	"tiffin-promotions/internal/repository/postgres"
	promotionUsecase "tiffin-promotions/internal/service/promotion"
	"tiffin-promotions/internal/websocket"
	wsHandlers "tiffin-promotions/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	mu          sync.Mutex
	httpServer  *http.Server
	pool        *pgxpool.Pool
	redisClient *redis.Client
	stopHub     context.CancelFunc
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start wires every dependency and serves HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if err := s.setup(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpServer
	s.mu.Unlock()

	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr), zap.String("store", s.cfg.StoreBackend))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) setup(ctx context.Context) error {
	if s.cfg.Stage == logger.StageProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()

	ids := idgen.NewULIDGenerator()

	// ----- Storage -----
	repo, err := s.openRepository(ctx, ids)
	if err != nil {
		return err
	}

	// ----- Redis (optional) -----
	var (
		blacklist   middleware.TokenBlacklist
		revoker     authHandler.TokenRevoker
		rateLimiter middleware.APIRateLimiter
	)
	if s.cfg.RedisAddr != "" {
		client, err := db.NewRedisClient(db.RedisConfig{
			Address:  s.cfg.RedisAddr,
			Password: s.cfg.RedisPass,
			PoolSize: 10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		s.redisClient = client

		sessionManager := session.NewManager(client)
		blacklist = sessionManager
		revoker = sessionManager
		rateLimiter = session.NewRateLimiter(client)
		s.logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))
	} else {
		s.logger.Warn("REDIS_ADDR not set, token revocation and rate limiting are disabled")
	}

	// ----- JWT -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(s.logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Services -----
	promotionService := promotionUsecase.NewPromotionService(repo, ids, s.logger,
		promotionUsecase.WithNotifier(hub),
	)
	hub.RegisterHandler(wsHandlers.NewPromotionHandler(promotionService))

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.CorrelationIDMiddleware(),
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(s.cfg.CORSAllowedOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		PromotionHandler: promotionHandler.NewPromotionHandler(promotionService, s.logger),
		AuthHandler:      authHandler.NewAuthHandler(revoker, s.logger),
		WSHandler:        wsHandler.NewWebSocketHandler(hub, s.cfg.CORSAllowedOrigins, s.logger),
		AuthMiddleware:   middleware.NewAuthMiddleware(verifier, blacklist, s.logger),
	}
	if rateLimiter != nil {
		handlers.RateLimit = middleware.RateLimitMiddleware(rateLimiter, s.cfg.RateLimitMax, s.cfg.RateLimitWindow, s.logger)
	}
	SetupRouter(s.engine, handlers)

	return nil
}

func (s *Server) openRepository(ctx context.Context, ids promotion.IDGenerator) (promotion.Repository, error) {
	switch s.cfg.StoreBackend {
	case config.StoreMemory:
		var seed []*promotion.Promotion
		if s.cfg.SeedPromotions {
			seed = memory.DefaultSeed(time.Now(), ids)
		}
		s.logger.Info("using in-memory promotion store", zap.Int("seeded", len(seed)))
		return memory.NewPromotionRepository(seed...), nil

	case config.StorePostgres:
		pool, err := db.ConnectDB(ctx, db.PostgresConfig{
			URL:             s.cfg.DatabaseURL,
			MaxConns:        10,
			MaxConnLifetime: time.Hour,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		s.pool = pool

		repo := postgres.NewPromotionRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		if s.cfg.SeedPromotions {
			if err := seedIfEmpty(ctx, repo, ids); err != nil {
				return nil, err
			}
		}
		s.logger.Info("using PostgreSQL promotion store")
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", s.cfg.StoreBackend)
	}
}

func seedIfEmpty(ctx context.Context, repo *postgres.PromotionRepository, ids promotion.IDGenerator) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, p := range memory.DefaultSeed(time.Now(), ids) {
		if err := repo.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to seed promotions: %w", err)
		}
	}
	return nil
}

// Shutdown drains HTTP, stops the hub and closes pools.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.redisClient != nil {
		if cerr := s.redisClient.Close(); cerr != nil {
			s.logger.Warn("failed to close redis client", zap.Error(cerr))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}
