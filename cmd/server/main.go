package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/HenriqueSouzza/unidos-backend/docs"
	"github.com/HenriqueSouzza/unidos-backend/internal/auth"
	"github.com/HenriqueSouzza/unidos-backend/internal/cache"
	"github.com/HenriqueSouzza/unidos-backend/internal/config"
	"github.com/HenriqueSouzza/unidos-backend/internal/db"
	"github.com/HenriqueSouzza/unidos-backend/internal/handler"
	"github.com/HenriqueSouzza/unidos-backend/internal/logger"
	"github.com/HenriqueSouzza/unidos-backend/internal/metrics"
	"github.com/HenriqueSouzza/unidos-backend/internal/oauth"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository"
	"github.com/HenriqueSouzza/unidos-backend/internal/repository/memory"
	"github.com/HenriqueSouzza/unidos-backend/internal/router"
	"github.com/HenriqueSouzza/unidos-backend/internal/service"
)

type stores struct {
	users  repository.UserRepository
	tokens repository.AccessTokenRepository
	audit  repository.ImpersonationLogRepository
	health map[string]router.HealthCheck
	close  func()
}

// @title Unidos Auth API
// @version 1.0
// @description Authentication service issuing opaque bearer tokens, with operator impersonation and Google sign-in.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.Load()
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	st, err := openStores(cfg, log)
	if err != nil {
		log.Error("storage init", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer st.close()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.RedisPrefix)
	defer cacheClient.Close()
	st.health["redis"] = cacheClient.Ping

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	// Initialize auth components
	hasher := auth.NewBcryptHasher(0)
	issuer := auth.NewTokenIssuer(st.tokens, st.users, cfg.TokenTTL, auth.WithCache(auth.NewTokenStore(cacheClient)))
	states := auth.NewStateSigner(cfg.StateSecret)
	google := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	if cfg.StateSecret == "change-me" {
		log.Warn("STATE_SECRET is using the default value")
	}

	// Initialize services
	auditTrail := service.NewAuditTrail(st.audit, log)
	authService := service.NewAuthService(st.users, hasher, issuer, recorder, log)
	impersonationService := service.NewImpersonationService(st.users, issuer, cfg.Impersonators, auditTrail, recorder, log)
	externalService := service.NewExternalIdentityService(google, states, st.users, hasher, issuer, cfg.AllowedEmailDomain, recorder, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, router.Deps{
		Config:   cfg,
		Logger:   log,
		Tokens:   issuer,
		Auth:     handler.NewAuthHandler(authService, impersonationService),
		OAuth:    handler.NewOAuthHandler(externalService),
		Gatherer: reg,
		Health:   st.health,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.ServerPort
	go func() {
		log.Info("server listening",
			slog.String("addr", addr),
			slog.String("storage", cfg.Storage),
			slog.String("swagger", "/swagger/index.html"),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server start", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.String("error", err.Error()))
	}
	auditTrail.Close()
}

// openStores connects the configured backend. The memory backend keeps
// everything in process and is meant for local development.
func openStores(cfg *config.Config, log *slog.Logger) (*stores, error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			users:  memory.NewUserRepository(),
			tokens: memory.NewAccessTokenRepository(),
			audit:  memory.NewImpersonationLogRepository(),
			health: map[string]router.HealthCheck{},
			close:  func() {},
		}, nil
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	return &stores{
		users:  repository.NewUserRepository(gormDB),
		tokens: repository.NewAccessTokenRepository(gormDB),
		audit:  repository.NewImpersonationLogRepository(gormDB),
		health: map[string]router.HealthCheck{"mysql": sqlDB.PingContext},
		close: func() {
			if err := sqlDB.Close(); err != nil {
				log.Error("close mysql", slog.String("error", err.Error()))
			}
		},
	}, nil
}
