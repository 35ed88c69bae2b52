package hub

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"

	"lsdHub/internal/ledger"
	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

// UnbondingEntry is one element of the unbonding queue.
type UnbondingEntry struct {
	Maturity   uint64            `json:"maturity"`
	Unbondings []model.Unbonding `json:"unbondings"`
}

func (h *Hub) view(ctx context.Context, fn func(tx storage.Tx) error) error {
	return h.store.View(ctx, fn)
}

func (h *Hub) QueryConfig(ctx context.Context) (model.Config, error) {
	var cfg model.Config
	err := h.view(ctx, func(tx storage.Tx) error {
		var err error
		cfg, err = loadConfig(tx)
		return err
	})
	return cfg, err
}

// QuerySupply returns the supply with unbondings matured by now counted as liquid.
func (h *Hub) QuerySupply(ctx context.Context, now uint64) (ledger.Supply, error) {
	var supply ledger.Supply
	err := h.view(ctx, func(tx storage.Tx) error {
		if _, err := loadConfig(tx); err != nil {
			return err
		}
		var err error
		supply, err = ledger.CleanView(tx, now)
		return err
	})
	return supply, err
}

// QueryExchangeRate returns the native tokens one share redeems for.
func (h *Hub) QueryExchangeRate(ctx context.Context, now uint64) (sdkmath.LegacyDec, error) {
	supply, err := h.QuerySupply(ctx, now)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	balance, err := h.querier.LiquidBalance(ctx)
	if err != nil {
		return sdkmath.LegacyDec{}, errors.Wrap(err, "query liquid balance")
	}
	return supply.TokensPerShare(balance)
}

// QueryTargetValue is the exchange rate reduced by the liquidity discount.
func (h *Hub) QueryTargetValue(ctx context.Context, now uint64) (sdkmath.LegacyDec, error) {
	cfg, err := h.QueryConfig(ctx)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	rate, err := h.QueryExchangeRate(ctx, now)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return rate.MulTruncate(sdkmath.LegacyOneDec().Sub(cfg.LiquidityDiscount)), nil
}

func (h *Hub) QueryValidatorSet(ctx context.Context) ([]model.ValidatorWeight, error) {
	var validators []model.ValidatorWeight
	err := h.view(ctx, func(tx storage.Tx) error {
		var err error
		validators, err = validatorsRecord.Load(tx)
		return err
	})
	return validators, err
}

func (h *Hub) QueryClaims(ctx context.Context, holder string) ([]model.Claim, error) {
	var claims []model.Claim
	err := h.view(ctx, func(tx storage.Tx) error {
		var err error
		claims, err = ledger.Claims.List(tx, holder)
		return err
	})
	return claims, err
}

func (h *Hub) QueryBonded(ctx context.Context) ([]model.Bonded, error) {
	var bonded []model.Bonded
	err := h.view(ctx, func(tx storage.Tx) error {
		var err error
		bonded, _, err = ledger.BondedRecord.MayLoad(tx)
		return err
	})
	return bonded, err
}

func (h *Hub) QueryUnbonding(ctx context.Context) ([]UnbondingEntry, error) {
	var out []UnbondingEntry
	err := h.view(ctx, func(tx storage.Tx) error {
		entries, err := ledger.Queue.Entries(tx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			out = append(out, UnbondingEntry{Maturity: e.Key, Unbondings: e.Value})
		}
		return nil
	})
	return out, err
}

func (h *Hub) QueryWorkflow(ctx context.Context) (model.Workflow, error) {
	var wf model.Workflow
	err := h.view(ctx, func(tx storage.Tx) error {
		var err error
		wf, err = loadWorkflow(tx)
		return err
	})
	return wf, err
}
