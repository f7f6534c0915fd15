package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fakenews-detector/internal/core/auth"
	"fakenews-detector/internal/core/cache"
	"fakenews-detector/internal/core/config"
	"fakenews-detector/internal/core/database"
	"fakenews-detector/internal/core/logger"
	"fakenews-detector/internal/core/server"
	"fakenews-detector/internal/feature/history"
	"fakenews-detector/internal/feature/user"
	"fakenews-detector/internal/inference"
	"fakenews-detector/internal/ocr"
	"fakenews-detector/internal/repo"
	"fakenews-detector/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

	var log *zap.Logger
	var cleanup func()
	if cfg.Log.File != "" {
		log, cleanup = logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File,
			cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)
	} else {
		log, cleanup = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&user.UserModel{}, &history.HistoryModel{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLHour) * time.Hour,
	}

	var resultCache *cache.Cache
	if cfg.Redis.Addr != "" {
		resultCache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := resultCache.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, classification cache disabled", zap.Error(err))
			resultCache = nil
		}
		cancel()
	}

	classifier := inference.New(
		cfg.Inference.BaseURL,
		time.Duration(cfg.Inference.TimeoutSec)*time.Second,
		log, resultCache,
		time.Duration(cfg.Redis.ResultTTLMin)*time.Minute,
	)

	// Fail fast: a missing model must never degrade silently.
	readyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := classifier.Ready(readyCtx); err != nil {
		log.Fatal("model backend not ready", zap.String("url", cfg.Inference.BaseURL), zap.Error(err))
	}
	cancel()
	log.Info("model backend ready", zap.String("url", cfg.Inference.BaseURL))

	extractor := ocr.New(cfg.OCR.BaseURL, time.Duration(cfg.OCR.TimeoutSec)*time.Second, log)

	r := router.NewAPIEngine(router.Deps{
		Log:        log,
		JWT:        jwter,
		Users:      repo.NewUserRepo(db),
		History:    repo.NewHistoryRepo(db),
		Classifier: classifier,
		OCR:        extractor,
	}, router.Options{
		CORSOrigins: cfg.App.HTTP.CORSOrigins,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	log.Info("api starting", zap.String("addr", addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api start failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(ctx)
	log.Info("api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
