// Package app wires configuration into a ready matching service.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"roomy-ai-core/internal/config"
	"roomy-ai-core/internal/handlers"
	"roomy-ai-core/internal/services/auth"
	"roomy-ai-core/internal/services/database"
	"roomy-ai-core/internal/services/llm"
	"roomy-ai-core/internal/services/matcher"
	"roomy-ai-core/internal/services/ratelimit"
	s3service "roomy-ai-core/internal/services/s3"
	"roomy-ai-core/internal/utils"
)

// App holds the wired service and its handlers.
type App struct {
	DB      *database.DB
	Service *matcher.Service
	Match   *handlers.MatchHandler
	Health  *handlers.HealthHandler

	closers []func()
}

// New connects to every configured backend and builds the service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := utils.GetLogger()

	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a := &App{DB: db}
	a.closers = append(a.closers, db.Close)

	stores := database.NewStores(db)
	sinks := []matcher.LogSink{stores.Logs}

	if cfg.MatchLogBucket != "" {
		archiver, err := s3service.NewArchiver(ctx, cfg.AWSRegion, cfg.MatchLogBucket)
		if err != nil {
			logger.Warn("S3 archive disabled", zap.Error(err))
		} else {
			sinks = append(sinks, archiver)
		}
	}

	a.Service = matcher.NewService(matcher.Deps{
		Students: stores.Students,
		Dorms:    stores.Dorms,
		Plans:    stores.Plans,
		Feedback: stores.Feedback,
		Auth:     auth.NewJWTVerifier(cfg.JWTSecret),
		Limiter:  a.limiter(cfg, logger),
		Enricher: llm.NewChatClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout),
		Sinks:    sinks,
	}, matcher.Options{
		DefaultLimit:  cfg.DefaultDormLimit,
		EnrichTimeout: cfg.LLMTimeout,
	})
	a.Match = handlers.NewMatchHandler(a.Service)
	a.Health = handlers.NewHealthHandler(db, "", cfg.Stage)

	logger.Info("Matching service ready",
		zap.String("stage", cfg.Stage),
		zap.Bool("llm_enabled", cfg.LLMAPIKey != ""),
		zap.Bool("redis_rate_limit", cfg.RedisAddr != ""),
		zap.Bool("s3_archive", cfg.MatchLogBucket != ""),
	)
	return a, nil
}

// limiter prefers the shared Redis counter and falls back to process memory.
func (a *App) limiter(cfg *config.Config, logger *zap.Logger) matcher.RateLimiter {
	if cfg.RedisAddr != "" {
		rl, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RateLimitRequests, cfg.RateLimitWindow)
		if err == nil {
			a.closers = append(a.closers, func() { _ = rl.Close() })
			return rl
		}
		logger.Warn("Redis unavailable, using in-memory rate limiter", zap.Error(err))
	}
	return ratelimit.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
}

// Close releases every backend connection.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
