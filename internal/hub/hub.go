// Package hub implements the liquid staking pool: bonding and unbonding of
// shares, claims, the periodic reinvest cycle, validator rebalancing and slash
// reconciliation. Every command runs in one storage transaction and returns
// the instructions the host must execute.
package hub

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lsdHub/internal/ledger"
	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

// Querier reads the staking state the hub does not own.
type Querier interface {
	// LiquidBalance is the hub's undelegated balance of the bond denom.
	LiquidBalance(ctx context.Context) (sdkmath.Int, error)
	// DelegatedAmount is what the staking module reports as delegated to validator.
	DelegatedAmount(ctx context.Context, validator string) (sdkmath.Int, error)
}

// Recorder receives operational signals from the hub.
type Recorder interface {
	CommandDone(command string, err error)
	SupplyChanged(supply ledger.Supply)
	SlashDetected(validator string)
}

type nopRecorder struct{}

func (nopRecorder) CommandDone(string, error)   {}
func (nopRecorder) SupplyChanged(ledger.Supply) {}
func (nopRecorder) SlashDetected(string)        {}

// Hub executes commands against one pool's persisted state.
type Hub struct {
	store    storage.Store
	querier  Querier
	recorder Recorder
	logger   *zap.Logger
	newID    func() string
}

// New builds a Hub with its dependencies.
func New(store storage.Store, querier Querier, recorder Recorder, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Hub{
		store:    store,
		querier:  querier,
		recorder: recorder,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Command is one state transition of the hub.
type Command interface {
	Name() string
	execute(ctx context.Context, h *Hub, tx storage.Tx, env model.Env) (model.Response, error)
}

// Execute runs cmd atomically: either all of its writes are committed or none.
func (h *Hub) Execute(ctx context.Context, env model.Env, cmd Command) (model.Response, error) {
	var resp model.Response
	err := h.store.Update(ctx, func(tx storage.Tx) error {
		var err error
		resp, err = cmd.execute(ctx, h, tx, env)
		return err
	})
	h.recorder.CommandDone(cmd.Name(), err)
	if err != nil {
		if IsRejection(err) {
			h.logger.Info("command rejected", zap.String("command", cmd.Name()), zap.String("sender", env.Sender), zap.String("error", err.Error()))
		} else {
			h.logger.Warn("command failed", zap.String("command", cmd.Name()), zap.String("sender", env.Sender), zap.Error(err))
		}
		return model.Response{}, err
	}

	h.logger.Info("command executed",
		zap.String("command", cmd.Name()),
		zap.String("sender", env.Sender),
		zap.Uint64("time", env.Time),
		zap.Int("messages", len(resp.Messages)),
	)
	h.reportSupply(ctx)
	return resp, nil
}

func (h *Hub) reportSupply(ctx context.Context) {
	var supply ledger.Supply
	err := h.store.View(ctx, func(tx storage.Tx) error {
		var err error
		supply, err = ledger.SupplyRecord.Load(tx)
		return err
	})
	if err != nil {
		h.logger.Debug("supply snapshot unavailable", zap.Error(err))
		return
	}
	h.recorder.SupplyChanged(supply)
}

func (h *Hub) Instantiate(ctx context.Context, env model.Env, genesis model.Genesis) (model.Response, error) {
	return h.Execute(ctx, env, InstantiateCmd{Genesis: genesis})
}

func (h *Hub) Bond(ctx context.Context, env model.Env) (model.Response, error) {
	return h.Execute(ctx, env, BondCmd{})
}

// Receive is the share token's receive hook: env.Sender is the token contract
// and holder the account whose shares were sent for unbonding.
func (h *Hub) Receive(ctx context.Context, env model.Env, holder string, shares sdkmath.Int) (model.Response, error) {
	return h.Execute(ctx, env, UnbondCmd{Holder: holder, Shares: shares})
}

func (h *Hub) Claim(ctx context.Context, env model.Env) (model.Response, error) {
	return h.Execute(ctx, env, ClaimCmd{})
}

func (h *Hub) Reinvest(ctx context.Context, env model.Env) (model.Response, error) {
	return h.Execute(ctx, env, ReinvestCmd{})
}

func (h *Hub) Reply(ctx context.Context, env model.Env, reply model.Reply) (model.Response, error) {
	return h.Execute(ctx, env, ReplyCmd{Reply: reply})
}

func (h *Hub) SetValidators(ctx context.Context, env model.Env, validators []model.ValidatorWeight) (model.Response, error) {
	return h.Execute(ctx, env, SetValidatorsCmd{Validators: validators})
}

func (h *Hub) UpdateLiquidityDiscount(ctx context.Context, env model.Env, discount sdkmath.LegacyDec) (model.Response, error) {
	return h.Execute(ctx, env, UpdateLiquidityDiscountCmd{Discount: discount})
}

func (h *Hub) CheckSlash(ctx context.Context, env model.Env) (model.Response, error) {
	return h.Execute(ctx, env, CheckSlashCmd{})
}

func (h *Hub) Migrate(ctx context.Context, env model.Env) (model.Response, error) {
	return h.Execute(ctx, env, MigrateCmd{})
}
