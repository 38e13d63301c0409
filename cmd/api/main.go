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

	"advisor-finder/internal/config"
	"advisor-finder/internal/db"
	"advisor-finder/internal/email"
	apihttp "advisor-finder/internal/http"
	"advisor-finder/internal/metrics"
	"advisor-finder/internal/repository"
	"advisor-finder/internal/seed"
	"advisor-finder/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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
	defer logger.Sync()

	pool, err := db.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	profileRepo := repository.NewPgProfileRepository(pool)
	researchRepo := repository.NewPgResearchRepository(pool)
	studentRepo := repository.NewPgStudentRepository(pool)

	if cfg.SeedOnStartup {
		catalog, err := seed.DefaultCatalog()
		if err != nil {
			logger.Fatal("load seed catalog", zap.Error(err))
		}
		if _, err := seed.NewSeeder(logger, researchRepo, profileRepo).Apply(ctx, catalog); err != nil {
			logger.Error("seed catalog failed", zap.Error(err))
		}
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(logger, email.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPass,
			From:        cfg.SMTPFrom,
			FromName:    cfg.SMTPFromName,
			ImplicitTLS: cfg.SMTPUseTLS,
		})
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		otpLimiter  service.OTPRateLimiter
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(logger, redisClient, 10*time.Minute, 3)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	limits := service.SearchLimits{MaxTermLength: cfg.SearchMaxTermLength, MaxFacets: cfg.SearchMaxFacets}
	searchSvc := service.NewSearchService(logger, profileRepo, limits, m)
	disclosureSvc := service.NewDisclosureService(logger, studentRepo, profileRepo, m)
	advisorSvc := service.NewAdvisorService(logger, profileRepo, researchRepo)
	researchSvc := service.NewResearchService(researchRepo)
	studentSvc := service.NewStudentService(logger, studentRepo, emailSender, otpLimiter)

	router := apihttp.NewRouter(logger,
		apihttp.RouterConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
			JWT:            jwtSvc,
			Gatherer:       registry,
		},
		apihttp.NewAdvisorHandler(logger, searchSvc, disclosureSvc, advisorSvc),
		apihttp.NewResearchHandler(logger, researchSvc),
		apihttp.NewStudentHandler(logger, studentSvc, jwtSvc),
		apihttp.NewHealthHandler(logger, pool),
	)

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
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
