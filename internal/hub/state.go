package hub

import (
	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"

	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

const (
	contractName = "lsd-hub"
	// currentVersion is the state layout written by this code.
	currentVersion uint32 = 2
)

// Version identifies the layout of the persisted state.
type Version struct {
	Contract string `json:"contract"`
	Version  uint32 `json:"version"`
}

// legacySupply is the version 1 supply record, which embedded the bonded
// ledger and the unbonding queue.
type legacySupply struct {
	BondDenom      string            `json:"bond_denom"`
	Issued         sdkmath.Int       `json:"issued"`
	TotalBonded    sdkmath.Int       `json:"total_bonded"`
	Claims         sdkmath.Int       `json:"claims"`
	TotalUnbonding sdkmath.Int       `json:"total_unbonding"`
	Bonded         []model.Bonded    `json:"bonded"`
	Unbonding      []model.Unbonding `json:"unbonding"`
}

var (
	configRecord       = storage.NewItem[model.Config]("config")
	validatorsRecord   = storage.NewItem[[]model.ValidatorWeight]("validators")
	workflowRecord     = storage.NewItem[model.Workflow]("workflow")
	versionRecord      = storage.NewItem[Version]("contract_info")
	legacySupplyRecord = storage.NewItem[legacySupply]("supply")
)

func loadConfig(tx storage.Tx) (model.Config, error) {
	cfg, ok, err := configRecord.MayLoad(tx)
	if err != nil {
		return cfg, err
	}
	if !ok {
		return cfg, ErrNotInstantiated
	}
	return cfg, nil
}

func loadWorkflow(tx storage.Tx) (model.Workflow, error) {
	wf, ok, err := workflowRecord.MayLoad(tx)
	if err != nil {
		return wf, errors.Wrap(err, "load workflow")
	}
	if !ok {
		return model.IdleWorkflow(), nil
	}
	return wf, nil
}

// activeValidators returns the validators with a nonzero weight in stored order.
func activeValidators(tx storage.Tx) ([]model.ValidatorWeight, error) {
	all, err := validatorsRecord.Load(tx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ValidatorWeight, 0, len(all))
	for _, v := range all {
		if v.Weight.IsPositive() {
			out = append(out, v)
		}
	}
	return out, nil
}
