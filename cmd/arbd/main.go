package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ColdCrayon/Pickit-sub001/internal/config"
	cronrunner "github.com/ColdCrayon/Pickit-sub001/internal/cron"
	"github.com/ColdCrayon/Pickit-sub001/internal/db"
	"github.com/ColdCrayon/Pickit-sub001/internal/handler"
	"github.com/ColdCrayon/Pickit-sub001/internal/logger"
	"github.com/ColdCrayon/Pickit-sub001/internal/normalizer"
	"github.com/ColdCrayon/Pickit-sub001/internal/queue"
	gormrepository "github.com/ColdCrayon/Pickit-sub001/internal/repository/gorm"
	"github.com/ColdCrayon/Pickit-sub001/internal/scanner"
)

func main() {
	cfgPath := os.Getenv("ARBD_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ARBD_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	store := gormrepository.New(dbConn.Gorm)

	params := scanner.Params{
		MinEdge:   cfg.Arb.MinEdge,
		Bank:      cfg.Arb.Bank,
		Staleness: cfg.Arb.Staleness(),
	}
	persister := &scanner.Persister{
		Repo:      store,
		Logger:    logger,
		BatchSize: cfg.Scan.BatchSize,
	}
	selector := &scanner.EventWindowSelector{
		Repo:         store,
		PageSize:     cfg.Scan.PageSize,
		FutureWindow: cfg.Scan.FutureWindow,
		Lookback:     cfg.Scan.Lookback,
	}
	orchestrator := &scanner.Orchestrator{
		Repo:      store,
		Persister: persister,
		Selector:  selector,
		Logger:    logger,
		Params:    params,
		MaxPages:  cfg.Scan.MaxPages,
		Deadline:  cfg.Scan.Deadline,
	}

	kickPublisher := &queue.Publisher{Client: redisClient, Stream: cfg.Kick.Stream}
	kickWorker := &queue.Worker{
		Client:   redisClient,
		Logger:   logger,
		Scans:    orchestrator,
		Stream:   cfg.Kick.Stream,
		Group:    cfg.Kick.Group,
		Consumer: cfg.Kick.Consumer,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	scanHandler := &handler.ScanHandler{
		Orchestrator: orchestrator,
		Queue:        kickPublisher,
		Logger:       logger,
	}
	scanHandler.Register(engine)
	oppHandler := &handler.OpportunityHandler{Repo: store}
	oppHandler.Register(engine)
	ingestHandler := &handler.IngestHandler{
		Normalizer: &normalizer.Normalizer{
			Repo:       store,
			Logger:     logger,
			OddsFormat: cfg.Arb.OddsFormat,
			EventTTL:   cfg.Arb.EventTTL,
		},
		Repo:   store,
		Logger: logger,
	}
	ingestHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := kickWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("kick worker stopped", zap.Error(err))
		}
	}()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		sports := cfg.Cron.SweepSportKeys()
		if len(sports) == 0 {
			sports = []string{""}
		}
		_, err = cronRunner.Add(cfg.Cron.SweepSpec, func(ctx context.Context) {
			for _, sport := range sports {
				result, err := orchestrator.Scan(ctx, scanner.ScanRequest{
					Sport:   sport,
					Market:  cfg.Cron.SweepMarket,
					Trigger: "cron",
				})
				if err != nil {
					logger.Warn("cron sweep scan failed",
						zap.String("sport", sport), zap.Error(err))
					continue
				}
				logger.Info("cron sweep scan ok",
					zap.String("sport", sport),
					zap.Int("pages", result.Pages),
					zap.Int("scanned", result.Scanned),
					zap.Int("created", result.Created),
				)
			}
		})
		if err != nil {
			logger.Warn("cron register sweep failed", zap.Error(err))
		}

		if cfg.Cron.SettlementSweep {
			_, err = cronRunner.Add(cfg.Cron.SettlementSpec, func(ctx context.Context) {
				settled, err := store.MarkOpportunitiesSettled(ctx, time.Now().UTC())
				if err != nil {
					logger.Warn("settlement sweep failed", zap.Error(err))
					return
				}
				if settled > 0 {
					logger.Info("settlement sweep ok", zap.Int64("settled", settled))
				}
			})
			if err != nil {
				logger.Warn("cron register settlement sweep failed", zap.Error(err))
			}
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}
