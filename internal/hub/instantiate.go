package hub

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"

	"lsdHub/internal/epoch"
	"lsdHub/internal/ledger"
	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

var maxCommission = sdkmath.LegacyNewDecWithPrec(50, 2)

// InstantiateCmd creates the pool from genesis parameters.
type InstantiateCmd struct {
	Genesis model.Genesis
}

func (InstantiateCmd) Name() string { return "instantiate" }

func (c InstantiateCmd) execute(_ context.Context, _ *Hub, tx storage.Tx, env model.Env) (model.Response, error) {
	if _, ok, err := configRecord.MayLoad(tx); err != nil {
		return model.Response{}, err
	} else if ok {
		return model.Response{}, ErrAlreadyExists
	}

	g := NormalizeGenesis(c.Genesis)
	if err := ValidateGenesis(g); err != nil {
		return model.Response{}, err
	}

	nextEpoch := env.Time + g.EpochPeriod
	cfg := model.Config{
		Owner:                   g.Owner,
		TokenContract:           g.TokenContract,
		Treasury:                g.Treasury,
		Commission:              g.Commission,
		EpochPeriod:             g.EpochPeriod,
		UnbondPeriod:            g.UnbondPeriod,
		MaxConcurrentUnbondings: g.MaxConcurrentUnbondings,
		NextEpoch:               nextEpoch,
		NextUnbond:              nextEpoch,
		TombstoneThreshold:      g.TombstoneThreshold,
		SlashingSafetyMargin:    g.SlashingSafetyMargin,
		LiquidityDiscount:       g.LiquidityDiscount,
	}

	if err := configRecord.Save(tx, cfg); err != nil {
		return model.Response{}, err
	}
	if err := validatorsRecord.Save(tx, g.Validators); err != nil {
		return model.Response{}, err
	}
	if err := ledger.SupplyRecord.Save(tx, ledger.NewSupply(g.BondDenom)); err != nil {
		return model.Response{}, err
	}
	if err := ledger.BondedRecord.Save(tx, []model.Bonded{}); err != nil {
		return model.Response{}, err
	}
	if err := workflowRecord.Save(tx, model.IdleWorkflow()); err != nil {
		return model.Response{}, err
	}
	if err := versionRecord.Save(tx, Version{Contract: contractName, Version: currentVersion}); err != nil {
		return model.Response{}, err
	}

	resp := model.NewResponse("instantiate")
	resp.AddAttribute("owner", g.Owner)
	resp.AddAttribute("bond_denom", g.BondDenom)
	resp.AddAttribute("next_epoch", nextEpoch)
	return resp, nil
}

// NormalizeGenesis fills unset decimals with zero.
func NormalizeGenesis(g model.Genesis) model.Genesis {
	g.Commission = orZero(g.Commission)
	g.LiquidityDiscount = orZero(g.LiquidityDiscount)
	g.TombstoneThreshold = orZero(g.TombstoneThreshold)
	return g
}

// ValidateGenesis checks every pool parameter.
func ValidateGenesis(g model.Genesis) error {
	switch {
	case g.Owner == "":
		return errors.Wrap(ErrInvalidGenesis, "owner is required")
	case g.TokenContract == "":
		return errors.Wrap(ErrInvalidGenesis, "token contract is required")
	case g.Treasury == "":
		return errors.Wrap(ErrInvalidGenesis, "treasury is required")
	case g.BondDenom == "":
		return errors.Wrap(ErrInvalidGenesis, "bond denom is required")
	}
	if g.Commission.IsNil() || g.Commission.IsNegative() || g.Commission.GT(maxCommission) {
		return ErrInvalidCommission
	}
	if err := validateWeights(g.Validators); err != nil {
		return err
	}
	if err := validateDiscount(g.LiquidityDiscount); err != nil {
		return err
	}
	if !epoch.ValidPeriod(g.EpochPeriod) {
		return ErrInvalidEpochPeriod
	}
	if !epoch.ValidPeriod(g.UnbondPeriod) {
		return ErrInvalidUnbondPeriod
	}
	if g.MaxConcurrentUnbondings == 0 {
		return ErrInvalidMaxConcurrentUnbondings
	}
	if g.TombstoneThreshold.IsNil() || g.TombstoneThreshold.IsNegative() || g.TombstoneThreshold.GTE(sdkmath.LegacyOneDec()) {
		return ErrInvalidTombstoneThreshold
	}
	return nil
}

func validateWeights(validators []model.ValidatorWeight) error {
	if len(validators) == 0 {
		return errors.Wrap(ErrInvalidValidatorWeights, "no validators")
	}
	seen := make(map[string]struct{}, len(validators))
	total := sdkmath.LegacyZeroDec()
	for _, v := range validators {
		if v.Validator == "" {
			return errors.Wrap(ErrInvalidValidatorWeights, "empty validator")
		}
		if _, ok := seen[v.Validator]; ok {
			return errors.Wrapf(ErrInvalidValidatorWeights, "duplicate validator %s", v.Validator)
		}
		seen[v.Validator] = struct{}{}
		if v.Weight.IsNil() || v.Weight.IsNegative() {
			return errors.Wrapf(ErrInvalidValidatorWeights, "invalid weight for %s", v.Validator)
		}
		total = total.Add(v.Weight)
	}
	if !total.Equal(sdkmath.LegacyOneDec()) {
		return errors.Wrapf(ErrInvalidValidatorWeights, "weights sum to %s", total)
	}
	return nil
}

func validateDiscount(discount sdkmath.LegacyDec) error {
	if discount.IsNil() || discount.IsNegative() || discount.GTE(maxCommission) {
		return ErrInvalidLiquidityDiscount
	}
	return nil
}

func orZero(d sdkmath.LegacyDec) sdkmath.LegacyDec {
	if d.IsNil() {
		return sdkmath.LegacyZeroDec()
	}
	return d
}

func ensureOwner(cfg model.Config, sender string) error {
	if sender != cfg.Owner {
		return errors.Wrapf(ErrUnauthorized, "sender %s", sender)
	}
	return nil
}

// mustPay returns the single nonzero coin of denom sent with the call.
func mustPay(funds []model.Coin, denom string) (sdkmath.Int, error) {
	sent := make([]model.Coin, 0, len(funds))
	for _, c := range funds {
		if !c.Amount.IsNil() && !c.Amount.IsZero() {
			sent = append(sent, c)
		}
	}
	switch {
	case len(sent) == 0:
		return sdkmath.ZeroInt(), ErrNoFunds
	case len(sent) > 1:
		return sdkmath.ZeroInt(), ErrMultipleDenom
	case sent[0].Denom != denom:
		return sdkmath.ZeroInt(), errors.Wrapf(ErrWrongDenom, "expected %s, got %s", denom, sent[0].Denom)
	case sent[0].Amount.IsNegative():
		return sdkmath.ZeroInt(), ErrZeroAmount
	}
	return sent[0].Amount, nil
}
