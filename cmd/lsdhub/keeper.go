package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lsdHub/internal/config"
	"lsdHub/internal/keeper"
	"lsdHub/internal/metrics"
	"lsdHub/internal/storage"
)

func runKeeper(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadKeeper(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.Sender == "" {
		return fmt.Errorf("sender is required")
	}

	ctx, stop := signalContext()
	defer stop()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	recorder := metrics.New(logger)

	a, err := openApp(ctx, cfg.Config, logger, recorder)
	if err != nil {
		return err
	}
	defer a.Close()

	chainID, err := a.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}

	var state keeper.StateStore
	switch {
	case cfg.CheckpointDB:
		state = &keeper.DBStateStore{Store: a.pg, Name: cfg.Namespace}
	case cfg.CheckpointEnabled:
		state = &keeper.FileStateStore{Path: cfg.Checkpoint}
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(recorder), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	clock := keeper.ClockFunc(func(ctx context.Context) (uint64, error) {
		return a.now(ctx, cmd)
	})
	runner := keeper.NewRunner(keeper.RunConfig{
		Sender:       cfg.Sender,
		Interval:     cfg.Interval,
		CheckSlash:   cfg.CheckSlash,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Once:         cfg.Once,
	}, a.hub, storage.NewJSONLOutbox(cfg.Outbox), clock, state, recorder, logger)

	logger.Info("keeper start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("check_slash", cfg.CheckSlash),
		zap.String("outbox", cfg.Outbox),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("keeper stopped")
		return nil
	}
	return err
}

func metricsMux(recorder *metrics.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	return mux
}
