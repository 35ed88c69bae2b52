package hub

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"go.uber.org/zap"

	"lsdHub/internal/ledger"
	"lsdHub/internal/model"
	"lsdHub/internal/planner"
	"lsdHub/internal/storage"
)

// SetValidatorsCmd replaces the validator weights and redelegates bonded stake
// to match them.
type SetValidatorsCmd struct {
	Validators []model.ValidatorWeight
}

func (SetValidatorsCmd) Name() string { return "set_validators" }

func (c SetValidatorsCmd) execute(_ context.Context, h *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
		return model.Response{}, err
	}
	if err := ensureOwner(cfg, env.Sender); err != nil {
		return model.Response{}, err
	}
	if err := validateWeights(c.Validators); err != nil {
		return model.Response{}, err
	}

	supply, err := ledger.Clean(tx, env.Time, cfg.SlashingSafetyMargin)
	if err != nil {
		return model.Response{}, err
	}

	resp := model.NewResponse("set_validators")
	resp.AddAttribute("validators", len(c.Validators))

	if !supply.TotalBonded.IsZero() {
		old, _, err := ledger.BondedRecord.MayLoad(tx)
		if err != nil {
			return model.Response{}, err
		}
		plan := planner.Compute(old, c.Validators, supply.TotalBonded)
		for _, r := range plan.Redelegations {
			resp.AddMessage(model.Redelegate(r.From, r.To, r.Amount))
		}
		if err := ledger.BondedRecord.Save(tx, plan.Bonded); err != nil {
			return model.Response{}, err
		}
		supply.TotalBonded = ledger.SumBonded(plan.Bonded)
		if err := ledger.SupplyRecord.Save(tx, supply); err != nil {
			return model.Response{}, err
		}
		h.logger.Info("validator set rebalanced", zap.Int("redelegations", len(plan.Redelegations)))
	}

	if err := validatorsRecord.Save(tx, c.Validators); err != nil {
		return model.Response{}, err
	}
	return resp, nil
}

// UpdateLiquidityDiscountCmd changes the discount applied by the target value query.
type UpdateLiquidityDiscountCmd struct {
	Discount sdkmath.LegacyDec
}

func (UpdateLiquidityDiscountCmd) Name() string { return "update_liquidity_discount" }

func (c UpdateLiquidityDiscountCmd) execute(_ context.Context, _ *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
		return model.Response{}, err
	}
	if err := ensureOwner(cfg, env.Sender); err != nil {
		return model.Response{}, err
	}
	if err := validateDiscount(c.Discount); err != nil {
		return model.Response{}, err
	}

	cfg.LiquidityDiscount = c.Discount
	if err := configRecord.Save(tx, cfg); err != nil {
		return model.Response{}, err
	}

	resp := model.NewResponse("update_liquidity_discount")
	resp.AddAttribute("new_discount", c.Discount)
	return resp, nil
}
