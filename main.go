package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/degenduel/backend/internal/cache"
	"github.com/degenduel/backend/internal/config"
	"github.com/degenduel/backend/internal/db"
	"github.com/degenduel/backend/internal/handler"
	"github.com/degenduel/backend/internal/logger"
	redisplatform "github.com/degenduel/backend/internal/platform/redis"
	"github.com/degenduel/backend/internal/service"
)

const oauthStateTTL = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init("degenduel-auth", cfg.Debug)

	accessTTL, err := time.ParseDuration(cfg.Auth.AccessTTL)
	if err != nil {
		logger.Error().Err(err).Msg("invalid JWT_ACCESS_TTL")
		return
	}
	refreshTTL, err := time.ParseDuration(cfg.Auth.RefreshTTL)
	if err != nil {
		logger.Error().Err(err).Msg("invalid JWT_REFRESH_TTL")
		return
	}

	if cfg.Auth.OAuthAutoCreate && cfg.Auth.AutoAuthorizeFirstDevice {
		// A guessed wallet address plus OAuth auto-create would let a new
		// device pair silently. Operators must opt into this combination.
		logger.Warn().Msg("AUTH_OAUTH_AUTO_CREATE and AUTH_AUTO_AUTHORIZE_FIRST_DEVICE are both enabled")
	}

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Error().Err(err).Msg("postgres connect failed")
		return
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Error().Err(err).Msg("schema setup failed")
		return
	}

	rdb, err := redisplatform.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Error().Err(err).Msg("redis connect failed")
		return
	}
	defer rdb.Close()

	challenges := service.NewChallengeService(pg)
	tokens := service.NewTokenService(pg, cfg.Auth.JWTSecret, accessTTL, refreshTTL)
	devices := service.NewDeviceService(pg, cfg.Auth.AutoAuthorizeFirstDevice)
	social := service.NewSocialService(pg, pg)
	login := service.NewLoginService(
		pg, challenges, tokens, devices, social,
		cfg.Auth.OAuthAutoCreate,
		cfg.Auth.DevLoginSecretHash,
		cfg.IsDevelopment(),
	)
	qr := service.NewQRService(pg, login)
	status := service.NewStatusService(tokens, pg, devices)

	states := cache.NewOAuthStateStore(rdb, oauthStateTTL)
	oauth := service.NewOAuthService(states, cfg.Discord, cfg.Twitter)

	privy, err := service.NewPrivyService(ctx, cfg.Privy)
	if err != nil {
		logger.Error().Err(err).Msg("privy issuer discovery failed")
		return
	}

	cookies := service.NewCookieManager(cfg.Auth.CookieDomain, !cfg.IsDevelopment(), accessTTL, refreshTTL)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Device-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.RegisterRoutes(
		router,
		tokens,
		handler.NewAuthHandler(login, challenges, tokens, cookies),
		handler.NewOAuthHandler(oauth, privy, login, tokens, cookies),
		handler.NewQRHandler(qr, cookies),
		handler.NewStatusHandler(status),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
