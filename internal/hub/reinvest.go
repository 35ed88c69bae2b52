package hub

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"lsdHub/internal/epoch"
	"lsdHub/internal/ledger"
	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

// ReinvestCmd starts a reinvest cycle. It withdraws rewards from every active
// validator; the cycle finishes when the host replies to the last withdrawal.
type ReinvestCmd struct{}

func (ReinvestCmd) Name() string { return "reinvest" }

func (ReinvestCmd) execute(ctx context.Context, h *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
		return model.Response{}, err
	}
	next, err := epoch.Advance(cfg.NextEpoch, cfg.EpochPeriod, env.Time)
	if err != nil {
		return model.Response{}, err
	}
	cfg.NextEpoch = next

	wf, err := loadWorkflow(tx)
	if err != nil {
		return model.Response{}, err
	}
	if wf.Pending() {
		return model.Response{}, errors.Wrapf(ErrReinvestPending, "cycle %s", wf.CycleID)
	}
	if err := configRecord.Save(tx, cfg); err != nil {
		return model.Response{}, err
	}

	supply, err := ledger.Clean(tx, env.Time, cfg.SlashingSafetyMargin)
	if err != nil {
		return model.Response{}, err
	}
	balance, err := h.querier.LiquidBalance(ctx)
	if err != nil {
		return model.Response{}, errors.Wrap(err, "query liquid balance")
	}
	validators, err := activeValidators(tx)
	if err != nil {
		return model.Response{}, err
	}

	resp := model.NewResponse("reinvest")
	resp.AddAttribute("next_epoch", cfg.NextEpoch)

	if supply.TotalBonded.IsZero() {
		// nothing to withdraw from, continue right away
		follow, err := h.afterWithdrawRewards(ctx, tx, env, balance)
		if err != nil {
			return model.Response{}, err
		}
		resp.Merge(follow)
		return resp, nil
	}

	wf = model.Workflow{
		State:     model.WorkflowAwaitingWithdrawals,
		Balance:   balance,
		CycleID:   h.newID(),
		StartedAt: env.Time,
	}
	if err := workflowRecord.Save(tx, wf); err != nil {
		return model.Response{}, err
	}

	for i, v := range validators {
		if i == len(validators)-1 {
			resp.AddMessage(model.WithdrawReward(v.Validator, model.ReplyAlways, model.ReplyWithdrawComplete))
			continue
		}
		resp.AddMessage(model.WithdrawReward(v.Validator, model.ReplyOnError, model.ReplyWithdrawIntermittent))
	}
	resp.AddAttribute("cycle_id", wf.CycleID)

	h.logger.Info("reinvest withdrawing rewards",
		zap.String("cycle_id", wf.CycleID),
		zap.Int("validators", len(validators)),
		zap.String("balance", balance.String()),
	)
	return resp, nil
}

// ReplyCmd delivers the outcome of a withdrawal emitted by ReinvestCmd.
type ReplyCmd struct {
	Reply model.Reply
}

func (ReplyCmd) Name() string { return "reply" }

func (c ReplyCmd) execute(ctx context.Context, h *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	switch c.Reply.ID {
	case model.ReplyWithdrawIntermittent:
		// one validator failing to pay out must not block the cycle
		h.logger.Warn("reward withdrawal failed", zap.String("error", c.Reply.Error))
		resp := model.NewResponse("withdraw_failed")
		resp.AddAttribute("error", c.Reply.Error)
		return resp, nil
	case model.ReplyWithdrawComplete:
		wf, err := loadWorkflow(tx)
		if err != nil {
			return model.Response{}, err
		}
		if !wf.Pending() {
			return model.Response{}, ErrNoPendingReinvest
		}
		if c.Reply.Error != "" {
			h.logger.Warn("last reward withdrawal failed", zap.String("cycle_id", wf.CycleID), zap.String("error", c.Reply.Error))
		}
		resp, err := h.afterWithdrawRewards(ctx, tx, env, wf.Balance)
		if err != nil {
			return model.Response{}, err
		}
		resp.AddAttribute("cycle_id", wf.CycleID)
		return resp, nil
	default:
		return model.Response{}, errors.Wrapf(ErrUnknownReply, "id %d", c.Reply.ID)
	}
}

// afterWithdrawRewards takes commission on the rewards and then either
// delegates the surplus or undelegates to cover outstanding claims. It
// always leaves the workflow idle.
func (h *Hub) afterWithdrawRewards(ctx context.Context, tx storage.Tx, env model.Env, snapshot sdkmath.Int) (model.Response, error) {
	resp := model.NewResponse("after_withdraw_rewards")
	if err := workflowRecord.Save(tx, model.IdleWorkflow()); err != nil {
		return resp, err
	}

	cfg, err := loadConfig(tx)
	if err != nil {
		return resp, err
	}
	supply, err := ledger.Clean(tx, env.Time, cfg.SlashingSafetyMargin)
	if err != nil {
		return resp, err
	}
	balance, err := h.querier.LiquidBalance(ctx)
	if err != nil {
		return resp, errors.Wrap(err, "query liquid balance")
	}

	rewards := balance.Sub(snapshot)
	if rewards.IsNegative() {
		h.logger.Warn("liquid balance below reinvest snapshot",
			zap.String("balance", balance.String()),
			zap.String("snapshot", snapshot.String()),
		)
		rewards = sdkmath.ZeroInt()
	}
	commission := ledger.MulFloor(rewards, cfg.Commission)
	if commission.IsPositive() {
		balance = balance.Sub(commission)
		resp.AddMessage(model.Send(cfg.Treasury, supply.BondDenom, commission))
	}
	resp.AddAttribute("rewards", rewards)
	resp.AddAttribute("commission", commission)

	if balance.IsZero() && supply.TotalBonded.IsZero() {
		return resp, nil
	}

	validators, err := activeValidators(tx)
	if err != nil {
		return resp, err
	}
	bonded, err := ledger.LoadBonded(tx)
	if err != nil {
		return resp, err
	}

	coverage := balance.Add(supply.TotalUnbonding)
	switch {
	case coverage.GT(supply.Claims):
		surplus := coverage.Sub(supply.Claims)
		if surplus.GT(balance) {
			h.logger.Warn("surplus exceeds liquid balance", zap.String("surplus", surplus.String()), zap.String("balance", balance.String()))
			surplus = balance
		}
		for i, amount := range splitSurplus(surplus, validators) {
			if amount.IsZero() {
				continue
			}
			v := validators[i].Validator
			bonded[v] = amountOf(bonded, v).Add(amount)
			resp.AddMessage(model.Delegate(v, amount))
		}
		resp.AddAttribute("delegated", surplus)

	case coverage.LT(supply.Claims):
		next, err := epoch.Advance(cfg.NextUnbond, epoch.UnbondCadence(cfg.UnbondPeriod, cfg.MaxConcurrentUnbondings), env.Time)
		if errors.Is(err, epoch.ErrEpochNotReached) {
			h.logger.Debug("undelegation not due", zap.Uint64("next_unbond", cfg.NextUnbond))
			break
		}
		if err != nil {
			return resp, err
		}
		cfg.NextUnbond = next
		if err := configRecord.Save(tx, cfg); err != nil {
			return resp, err
		}

		missing := supply.Claims.Sub(coverage)
		amounts := splitDeficit(missing, validators, bonded)
		var entry []model.Unbonding
		undelegated := sdkmath.ZeroInt()
		for i, amount := range amounts {
			if amount.IsZero() {
				continue
			}
			v := validators[i].Validator
			left, err := ledger.SubChecked(amountOf(bonded, v), amount)
			if err != nil {
				return resp, errors.Wrapf(err, "undelegate from %s", v)
			}
			bonded[v] = left
			entry = append(entry, model.Unbonding{Validator: v, Amount: amount})
			undelegated = undelegated.Add(amount)
			resp.AddMessage(model.Undelegate(v, amount))
		}
		if err := ledger.Queue.Add(tx, env.Time+cfg.UnbondPeriod, entry); err != nil {
			return resp, err
		}
		supply.TotalUnbonding = supply.TotalUnbonding.Add(undelegated)
		resp.AddAttribute("undelegated", undelegated)
		resp.AddAttribute("next_unbond", cfg.NextUnbond)
	}

	if supply.TotalBonded, err = ledger.SaveBonded(tx, bonded); err != nil {
		return resp, err
	}
	if err := ledger.SupplyRecord.Save(tx, supply); err != nil {
		return resp, err
	}
	return resp, nil
}

// splitSurplus divides amount by weight, flooring each share and giving the
// remainder to the first validator.
func splitSurplus(amount sdkmath.Int, validators []model.ValidatorWeight) []sdkmath.Int {
	out := make([]sdkmath.Int, len(validators))
	if len(validators) == 0 {
		return out
	}
	assigned := sdkmath.ZeroInt()
	for i, v := range validators {
		out[i] = ledger.MulFloor(amount, v.Weight)
		assigned = assigned.Add(out[i])
	}
	out[0] = out[0].Add(amount.Sub(assigned))
	return out
}

// splitDeficit divides amount by weight without taking more from a validator
// than it has bonded. Whatever does not fit, including the flooring remainder,
// is spread in validator order over the remaining bonded stake.
func splitDeficit(amount sdkmath.Int, validators []model.ValidatorWeight, bonded map[string]sdkmath.Int) []sdkmath.Int {
	out := make([]sdkmath.Int, len(validators))
	remainder := amount
	for i, v := range validators {
		share := sdkmath.MinInt(ledger.MulFloor(amount, v.Weight), amountOf(bonded, v.Validator))
		out[i] = share
		remainder = remainder.Sub(share)
	}
	for i, v := range validators {
		if remainder.IsZero() {
			break
		}
		room := amountOf(bonded, v.Validator).Sub(out[i])
		extra := sdkmath.MinInt(room, remainder)
		out[i] = out[i].Add(extra)
		remainder = remainder.Sub(extra)
	}
	return out
}

func amountOf(balances map[string]sdkmath.Int, validator string) sdkmath.Int {
	if amount, ok := balances[validator]; ok {
		return amount
	}
	return sdkmath.ZeroInt()
}
