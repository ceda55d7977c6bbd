package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatbot-server/internal/auth"
	"chatbot-server/internal/config"
	apihttp "chatbot-server/internal/http"
	"chatbot-server/internal/llm"
	"chatbot-server/internal/repository"
	"chatbot-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	defer logger.Sync()

	store, err := repository.OpenMessageStore(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err), zap.String("driver", cfg.DBDriver))
	}
	defer store.Close()

	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMSystemPrompt, logger)

	var verifier auth.Verifier
	if cfg.AuthJWTSecret != "" {
		verifier = auth.NewJWTVerifier(cfg.AuthJWTSecret, cfg.AuthJWTAudience)
	} else {
		verifier = auth.NewSupabaseVerifier(cfg.AuthProviderURL, cfg.AuthProviderKey, nil)
	}

	var limiter service.ExchangeRateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, exchange rate limit disabled", zap.Error(err))
		} else {
			limiter = service.NewRedisExchangeRateLimiter(redisClient, cfg.ExchangeRateWindow, cfg.ExchangeRateLimit)
		}
		cancel()
	}

	msgSvc := service.NewMessageService(logger, store.Messages, llmClient, limiter)
	msgHandler := apihttp.NewMessageHandler(logger, msgSvc)
	healthHandler := apihttp.NewHealthHandler(logger, store.Pinger)
	router := apihttp.NewRouter(logger, cfg.TrustedOrigin, verifier, msgHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("driver", cfg.DBDriver),
		zap.String("model", cfg.LLMModel),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
