package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/reprint-api/api/swagger"
	"github.com/noah-isme/reprint-api/internal/handler"
	"github.com/noah-isme/reprint-api/internal/repository"
	"github.com/noah-isme/reprint-api/internal/service"
	"github.com/noah-isme/reprint-api/pkg/cache"
	"github.com/noah-isme/reprint-api/pkg/config"
	"github.com/noah-isme/reprint-api/pkg/export"
	"github.com/noah-isme/reprint-api/pkg/logger"
	"github.com/noah-isme/reprint-api/pkg/storage"
)

// @title Re:Print API
// @version 1.0.0
// @description Print file proofing, pricing and ordering for school print shops.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cache", app.cacheEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	router       *gin.Engine
	cacheEnabled bool
	closers      []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*application, error) {
	app := &application{}
	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	var pinger handler.Pinger
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			cacheRepo, pinger = repo, repo
			app.cacheEnabled = true
			app.closers = append(app.closers, func() { _ = repo.Close() })
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.DefaultTTL, logr, app.cacheEnabled)

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init upload storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	analysisSvc := service.NewAnalysisService(service.AnalysisConfig{
		Latency:    cfg.Analysis.Latency,
		Workers:    cfg.Analysis.Workers,
		BufferSize: cfg.Analysis.BufferSize,
	}, metrics, logr)
	analysisSvc.Start(ctx)
	app.closers = append(app.closers, analysisSvc.Stop)

	chatSvc := service.NewChatService(service.ChatConfig{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		Timeout:     cfg.Chat.Timeout,
	}, nil, metrics, logr)

	proofingSvc := service.NewProofingService(service.ProofingConfig{
		APIPrefix:      cfg.APIPrefix,
		ScoreIncrement: cfg.Proofing.ScoreIncrement,
		DefaultZoom:    cfg.Proofing.DefaultZoom,
		ReviewerEmail:  cfg.Proofing.ReviewerEmail,
		MaxUploadBytes: cfg.Uploads.MaxFileSizeBytes,
	}, analysisSvc, store, signer, service.NewNotificationService(logr), chatSvc, metrics, logr)

	orderSvc := service.NewOrderService(
		repository.NewSeededOrderRepository(),
		cacheSvc,
		metrics,
		validate,
		logr,
		service.OrderConfig{StatsCacheTTL: cfg.Dashboard.StatsCacheTTL},
	)
	exportSvc := service.NewExportService(logr, export.NewCSVExporter(), export.NewPDFExporter())

	app.router = newRouter(cfg, logr, routeDeps{
		auth:     authSvc,
		metrics:  metrics,
		handlers: handlers{
			auth:     handler.NewAuthHandler(authSvc, logr),
			pricing:  handler.NewPricingHandler(),
			chat:     handler.NewChatHandler(chatSvc),
			proofing: handler.NewProofingHandler(proofingSvc),
			orders:   handler.NewOrderHandler(orderSvc, exportSvc),
			files:    handler.NewFileHandler(proofingSvc),
			metrics:  handler.NewMetricsHandler(metrics, pinger),
		},
	})
	return app, nil
}
