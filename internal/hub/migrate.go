package hub

import (
	"context"

	"github.com/pkg/errors"

	"lsdHub/internal/ledger"
	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

// MigrateCmd upgrades persisted state written by an older version.
type MigrateCmd struct{}

func (MigrateCmd) Name() string { return "migrate" }

func (MigrateCmd) execute(_ context.Context, _ *Hub, tx storage.Tx, _ model.Env) (model.Response, error) {
	stored, ok, err := versionRecord.MayLoad(tx)
	if err != nil {
		return model.Response{}, err
	}
	if !ok {
		return model.Response{}, ErrNotInstantiated
	}
	if stored.Contract != contractName {
		return model.Response{}, errors.Wrapf(ErrMigrationFailed, "cannot migrate from %s", stored.Contract)
	}
	if stored.Version > currentVersion {
		return model.Response{}, errors.Wrapf(ErrMigrationFailed, "stored version %d is newer than %d", stored.Version, currentVersion)
	}

	resp := model.NewResponse("migrate")
	resp.AddAttribute("from_version", stored.Version)
	resp.AddAttribute("to_version", currentVersion)
	if stored.Version == currentVersion {
		return resp, nil
	}

	if stored.Version < 2 {
		old, err := legacySupplyRecord.Load(tx)
		if err != nil {
			return model.Response{}, err
		}
		// unbonding was never used by version 1 pools
		if len(old.Unbonding) != 0 {
			return model.Response{}, errors.Wrapf(ErrMigrationFailed, "%d unbonding entries in legacy supply", len(old.Unbonding))
		}
		supply := ledger.Supply{
			BondDenom:      old.BondDenom,
			Issued:         old.Issued,
			TotalBonded:    old.TotalBonded,
			Claims:         old.Claims,
			TotalUnbonding: old.TotalUnbonding,
		}
		if err := ledger.SupplyRecord.Save(tx, supply); err != nil {
			return model.Response{}, err
		}
		if err := ledger.BondedRecord.Save(tx, old.Bonded); err != nil {
			return model.Response{}, err
		}
		if _, ok, err := workflowRecord.MayLoad(tx); err != nil {
			return model.Response{}, err
		} else if !ok {
			if err := workflowRecord.Save(tx, model.IdleWorkflow()); err != nil {
				return model.Response{}, err
			}
		}
	}

	if err := versionRecord.Save(tx, Version{Contract: contractName, Version: currentVersion}); err != nil {
		return model.Response{}, err
	}
	return resp, nil
}
