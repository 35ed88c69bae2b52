package hub

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"lsdHub/internal/ledger"
	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

// CheckSlashCmd compares every bonded validator with the delegation the
// staking module reports and writes slashing losses into the ledger.
type CheckSlashCmd struct{}

func (CheckSlashCmd) Name() string { return "check_slash" }

func (CheckSlashCmd) execute(ctx context.Context, h *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	cfg, err := loadConfig(tx)
	if err != nil {
		return model.Response{}, err
	}
	supply, err := ledger.Clean(tx, env.Time, cfg.SlashingSafetyMargin)
	if err != nil {
		return model.Response{}, err
	}
	bonded, err := ledger.LoadBonded(tx)
	if err != nil {
		return model.Response{}, err
	}

	resp := model.NewResponse("check_slash")
	var records []model.SlashRecord
	for _, b := range ledger.SortBonded(bonded) {
		observed, err := h.querier.DelegatedAmount(ctx, b.Validator)
		if err != nil {
			return model.Response{}, errors.Wrapf(err, "query delegation to %s", b.Validator)
		}
		if !observed.LT(b.Amount) {
			continue
		}
		multiplier := ledger.Ratio(observed, b.Amount)
		if !sdkmath.LegacyOneDec().Sub(multiplier).GT(cfg.TombstoneThreshold) {
			continue
		}

		at, near, err := ledger.Queue.NearMaturity(tx, b.Validator, env.Time, cfg.SlashingSafetyMargin)
		if err != nil {
			return model.Response{}, err
		}
		if near {
			return model.Response{}, errors.Wrapf(ErrUnbondingTooClose, "validator %s has unbonding maturing at %d", b.Validator, at)
		}

		record := model.SlashRecord{Validator: b.Validator, Expected: b.Amount, Observed: observed}
		if supply, err = applySlash(tx, supply, bonded, record, multiplier); err != nil {
			return model.Response{}, err
		}
		records = append(records, record)

		h.logger.Warn("slash detected",
			zap.String("validator", b.Validator),
			zap.String("expected", b.Amount.String()),
			zap.String("observed", observed.String()),
			zap.String("multiplier", multiplier.String()),
		)
	}

	resp.AddAttribute("slashed", len(records))
	if len(records) == 0 {
		return resp, nil
	}

	if _, err := ledger.SaveBonded(tx, bonded); err != nil {
		return model.Response{}, err
	}
	if err := ledger.SupplyRecord.Save(tx, supply); err != nil {
		return model.Response{}, err
	}
	for _, r := range records {
		h.recorder.SlashDetected(r.Validator)
		resp.AddAttribute("validator", r.Validator)
		resp.AddAttribute("expected", r.Expected)
		resp.AddAttribute("observed", r.Observed)
	}
	return resp, nil
}

// applySlash scales the validator's bonded and unbonding stake by multiplier
// and the claims by the share of pool stake that survived.
func applySlash(tx storage.Tx, supply ledger.Supply, bonded map[string]sdkmath.Int, record model.SlashRecord, multiplier sdkmath.LegacyDec) (ledger.Supply, error) {
	before := supply.TotalBonded.Add(supply.TotalUnbonding)

	bonded[record.Validator] = ledger.MulFloor(record.Expected, multiplier)
	supply.TotalBonded = ledger.SumBonded(ledger.SortBonded(bonded))

	unbonding, err := ledger.Queue.Scale(tx, record.Validator, multiplier)
	if err != nil {
		return supply, err
	}
	supply.TotalUnbonding = unbonding

	after := supply.TotalBonded.Add(supply.TotalUnbonding)
	if before.IsZero() || !after.LT(before) {
		return supply, nil
	}
	claims, err := ledger.Claims.Scale(tx, ledger.Ratio(after, before))
	if err != nil {
		return supply, err
	}
	supply.Claims = claims
	return supply, nil
}
