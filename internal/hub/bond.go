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

// BondCmd deposits the bond denom sent with the call and mints shares to the sender.
type BondCmd struct{}

func (BondCmd) Name() string { return "bond" }

func (BondCmd) execute(ctx context.Context, h *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
		return model.Response{}, err
	}
	supply, err := ledger.Clean(tx, env.Time, cfg.SlashingSafetyMargin)
	if err != nil {
		return model.Response{}, err
	}
	paid, err := mustPay(env.Funds, supply.BondDenom)
	if err != nil {
		return model.Response{}, err
	}

	// the deposit is already part of the liquid balance
	balance, err := h.querier.LiquidBalance(ctx)
	if err != nil {
		return model.Response{}, errors.Wrap(err, "query liquid balance")
	}
	before, err := ledger.SubChecked(balance, paid)
	if err != nil {
		return model.Response{}, errors.Wrap(err, "balance before deposit")
	}

	shares, err := supply.Bond(paid, before)
	if err != nil {
		return model.Response{}, err
	}
	if shares.IsZero() {
		return model.Response{}, errors.Wrapf(ErrZeroAmount, "deposit of %s buys no shares", paid)
	}
	if err := ledger.SupplyRecord.Save(tx, supply); err != nil {
		return model.Response{}, err
	}

	wf, err := loadWorkflow(tx)
	if err != nil {
		return model.Response{}, err
	}
	if wf.Pending() {
		// a deposit during reward withdrawal must not count as rewards
		wf.Balance = wf.Balance.Add(paid)
		if err := workflowRecord.Save(tx, wf); err != nil {
			return model.Response{}, err
		}
	}

	resp := model.NewResponse("bond")
	resp.AddAttribute("from", env.Sender)
	resp.AddAttribute("bonded", paid)
	resp.AddAttribute("minted", shares)
	resp.AddMessage(model.Mint(env.Sender, shares))
	return resp, nil
}

// UnbondCmd burns shares received through the token hook and books a claim
// for their native value.
type UnbondCmd struct {
	Holder string
	Shares sdkmath.Int
}

func (UnbondCmd) Name() string { return "unbond" }

func (c UnbondCmd) execute(ctx context.Context, h *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
		return model.Response{}, err
	}
	if env.Sender != cfg.TokenContract {
		return model.Response{}, errors.Wrapf(ErrInvalidToken, "sender %s", env.Sender)
	}
	if c.Shares.IsNil() || !c.Shares.IsPositive() {
		return model.Response{}, ErrZeroAmount
	}

	supply, err := ledger.Clean(tx, env.Time, cfg.SlashingSafetyMargin)
	if err != nil {
		return model.Response{}, err
	}
	balance, err := h.querier.LiquidBalance(ctx)
	if err != nil {
		return model.Response{}, errors.Wrap(err, "query liquid balance")
	}
	native, err := supply.Unbond(c.Shares, balance)
	if err != nil {
		return model.Response{}, err
	}

	releaseAt := epoch.ReleaseAt(cfg.NextUnbond, cfg.NextEpoch, cfg.UnbondPeriod)
	if err := ledger.Claims.Create(tx, c.Holder, native, releaseAt); err != nil {
		return model.Response{}, err
	}
	if err := ledger.SupplyRecord.Save(tx, supply); err != nil {
		return model.Response{}, err
	}

	resp := model.NewResponse("unbond")
	resp.AddAttribute("from", c.Holder)
	resp.AddAttribute("burnt", c.Shares)
	resp.AddAttribute("claimed", native)
	resp.AddAttribute("release_at", releaseAt)
	resp.AddMessage(model.Burn(c.Shares))
	return resp, nil
}

// ClaimCmd pays the sender's matured claims out of the liquid balance.
type ClaimCmd struct{}

func (ClaimCmd) Name() string { return "claim" }

func (ClaimCmd) execute(ctx context.Context, h *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
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

	amount, err := ledger.Claims.Settle(tx, env.Sender, env.Time, balance)
	if err != nil {
		return model.Response{}, err
	}
	if err := supply.RecordClaimPayout(amount); err != nil {
		return model.Response{}, err
	}
	if err := ledger.SupplyRecord.Save(tx, supply); err != nil {
		return model.Response{}, err
	}

	wf, err := loadWorkflow(tx)
	if err != nil {
		return model.Response{}, err
	}
	if wf.Pending() {
		// may go below zero when the payout used freshly withdrawn rewards
		wf.Balance = wf.Balance.Sub(amount)
		if err := workflowRecord.Save(tx, wf); err != nil {
			return model.Response{}, err
		}
		h.logger.Debug("claim during pending reinvest", zap.String("holder", env.Sender), zap.String("amount", amount.String()))
	}

	resp := model.NewResponse("claim")
	resp.AddAttribute("from", env.Sender)
	resp.AddAttribute("amount", amount)
	resp.AddMessage(model.Send(env.Sender, supply.BondDenom, amount))
	return resp, nil
}
