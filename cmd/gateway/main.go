package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	r "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/phenopredict/phenogate/internal/config"
	"github.com/phenopredict/phenogate/internal/dispatch"
	"github.com/phenopredict/phenogate/internal/gateway"
	"github.com/phenopredict/phenogate/internal/kv"
	"github.com/phenopredict/phenogate/internal/logging"
	"github.com/phenopredict/phenogate/internal/metrics"
	"github.com/phenopredict/phenogate/internal/otp"
	"github.com/phenopredict/phenogate/internal/queue"
	"github.com/phenopredict/phenogate/internal/ratelimit"
	"github.com/phenopredict/phenogate/internal/result"
	"github.com/phenopredict/phenogate/internal/task"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rdb := r.NewClient(&r.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	store := kv.NewRedis(rdb)
	results := result.NewRedis(rdb, cfg.ResultTTL)
	broker := queue.NewRedis(rdb)
	routes := task.NewRoutes(map[string]string{
		"auth.":  cfg.AuthQueue,
		"trait.": cfg.TraitQueue,
	}, cfg.DefaultQueue)

	met := metrics.New()
	dispatcher := dispatch.New(broker, results, routes, met, logger)
	otpMgr := otp.New(store, cfg.OTPTTL)
	limiter := ratelimit.New(store, cfg.RateLimitWindow, logger)

	srv := &http.Server{
		Addr:    cfg.GatewayAddr,
		Handler: gateway.New(dispatcher, results, otpMgr, limiter, met, logger),
	}

	go func() {
		logger.Info("gateway starting", zap.String("addr", cfg.GatewayAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
