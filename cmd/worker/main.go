package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	r "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phenopredict/phenogate/internal/config"
	"github.com/phenopredict/phenogate/internal/handlers"
	"github.com/phenopredict/phenogate/internal/logging"
	"github.com/phenopredict/phenogate/internal/metrics"
	"github.com/phenopredict/phenogate/internal/queue"
	"github.com/phenopredict/phenogate/internal/result"
	"github.com/phenopredict/phenogate/internal/task"
	"github.com/phenopredict/phenogate/internal/worker"
)

func main() {
	var (
		queues      []string
		concurrency int
	)

	rootCmd := &cobra.Command{
		Use:   "worker",
		Short: "Phenogate task worker",
		Long:  "Pulls tasks from the bound queues and executes their handlers.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), queues, concurrency)
		},
	}
	// Queue binding is explicit on purpose: auth traffic and heavy inference
	// traffic should not share a worker unless the operator says so.
	rootCmd.Flags().StringSliceVarP(&queues, "queues", "q", nil, "queues to bind (e.g. auth_queue,trait_queue)")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 2, "number of execution slots")
	_ = rootCmd.MarkFlagRequired("queues")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, queues []string, concurrency int) error {
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rdb := r.NewClient(&r.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	broker := queue.NewRedis(rdb)
	results := result.NewRedis(rdb, cfg.ResultTTL)

	registry := task.NewRegistry()
	handlers.Register(registry,
		handlers.NewAuthClient(cfg.AuthBaseURL),
		handlers.NewTraitHandler(cfg.MLURL, cfg.AuthBaseURL),
	)

	w, err := worker.New(broker, results, registry, worker.Config{
		Queues:      queues,
		Concurrency: concurrency,
	}, metrics.New(), logger)
	if err != nil {
		return err
	}

	if err := w.Run(ctx); err != nil {
		logger.Error("worker stopped", zap.Error(err))
		return err
	}
	logger.Info("worker stopped")
	return nil
}
