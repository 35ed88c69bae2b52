package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lsdHub/internal/chain"
	"lsdHub/internal/config"
	"lsdHub/internal/hub"
	"lsdHub/internal/model"
	"lsdHub/internal/storage"
	"lsdHub/internal/storage/badger"
	"lsdHub/internal/storage/leveldb"
	"lsdHub/internal/storage/postgres"
)

// app holds the dependencies shared by the subcommands.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  storage.Store
	pg     *postgres.Store
	client *chain.Client
	hub    *hub.Hub
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

// openApp connects the store and, when an RPC URL is configured, the chain.
func openApp(ctx context.Context, cfg config.Config, logger *zap.Logger, recorder hub.Recorder) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pg, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.Namespace)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.pg = pg
		a.store = pg
	case config.BackendBadger:
		db, err := badger.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		a.store = db
	default:
		db, err := leveldb.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open leveldb: %w", err)
		}
		a.store = db
	}

	var querier hub.Querier
	if cfg.RPCURL != "" {
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		a.client = client
		q, err := chain.NewStakingQuerier(client, cfg.HubAddress, cfg.StakingPrecompile, cfg.BondDenom)
		if err != nil {
			a.Close()
			return nil, err
		}
		if cfg.RPCRate > 0 {
			q = q.WithRateLimit(cfg.RPCRate, cfg.RPCBurst)
		}
		querier = q
	} else {
		querier = offlineQuerier{}
	}

	a.hub = hub.New(a.store, querier, recorder, logger)
	return a, nil
}

func (a *app) Close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// now resolves the block time: the --time flag, the latest block, or the wall clock.
func (a *app) now(ctx context.Context, cmd *cobra.Command) (uint64, error) {
	override, _ := cmd.Flags().GetString("time")
	if override != "" {
		return config.ParseTimestamp(override)
	}
	if a.client != nil {
		ts, err := a.client.LatestTimestamp(ctx)
		if err != nil {
			return 0, fmt.Errorf("latest block time: %w", err)
		}
		return ts, nil
	}
	return uint64(time.Now().Unix()), nil
}

func (a *app) env(ctx context.Context, cmd *cobra.Command, funds ...model.Coin) (model.Env, error) {
	now, err := a.now(ctx, cmd)
	if err != nil {
		return model.Env{}, err
	}
	if a.cfg.Sender == "" {
		return model.Env{}, fmt.Errorf("sender is required")
	}
	return model.Env{Time: now, Sender: a.cfg.Sender, Funds: funds}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// offlineQuerier serves commands that never read the chain.
type offlineQuerier struct{}

var errOffline = fmt.Errorf("rpc url is required for this command")

func (offlineQuerier) LiquidBalance(context.Context) (sdkmath.Int, error) {
	return sdkmath.ZeroInt(), errOffline
}

func (offlineQuerier) DelegatedAmount(context.Context, string) (sdkmath.Int, error) {
	return sdkmath.ZeroInt(), errOffline
}
