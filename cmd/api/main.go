package main

import (
	"Glimpse/internal/api/config"
	"Glimpse/internal/pkg/cron"
	"Glimpse/internal/pkg/database"
	"Glimpse/internal/pkg/logger"
	"Glimpse/internal/pkg/mongo"
	"Glimpse/internal/pkg/redis"
	"Glimpse/internal/pkg/security"
	"Glimpse/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	initTimeout     = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		os.Exit(1)
	}
	cfg := config.Cfg

	logger.InitLogger()
	security.Configure(cfg.JWT)

	app, err := bootstrap(cfg)
	if err != nil {
		log.Error("Fatal error: failed to start application", "err", err)
		os.Exit(1)
	}

	if err = run(cfg, app); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("App exited with error", "err", err)
		os.Exit(1)
	}
	log.Info("App exited successfully.")
}

// bootstrap 建立所有外部连接并完成依赖注入
func bootstrap(cfg *config.Config) (*wire.ApplicationContainer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	if err = redis.InitRedis(cfg.Redis); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	mongoDB, err := mongo.InitMongo(cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}
	if err = mongo.EnsureStatusIndexes(ctx, mongoDB, cfg.Status.PurgeGrace); err != nil {
		return nil, fmt.Errorf("status indexes: %w", err)
	}

	store, err := wire.NewObjectStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage (%s): %w", cfg.Storage.Driver, err)
	}

	return wire.BuildApplication(db, mongoDB, store, cfg)
}

// run 启动 HTTP、定时任务与 Kafka 消费者，收到退出信号后依次关闭
func run(cfg *config.Config, app *wire.ApplicationContainer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if err := cron.InitCron(app.CronMgr); err != nil {
		return fmt.Errorf("cron: %w", err)
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Cron Jobs stopping...")
		app.CronMgr.Stop()
		return nil
	})

	if app.KafkaManager != nil {
		g.Go(func() error {
			log.Info("Kafka Consumers starting...")
			return app.KafkaManager.Start(ctx, cfg)
		})
	}

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down HTTP Server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
