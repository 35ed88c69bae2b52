package keeper

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"

	"lsdHub/internal/storage/postgres"
)

// Checkpoint is the outcome of the last delivered reinvest cycle. The rate
// seeds the APR estimate after a restart.
type Checkpoint struct {
	LastReinvest uint64            `json:"last_reinvest_ts"`
	ExchangeRate sdkmath.LegacyDec `json:"exchange_rate"`
}

func (c Checkpoint) sample() rateSample {
	return rateSample{Rate: c.ExchangeRate, At: c.LastReinvest}
}

// StateStore persists the keeper checkpoint.
type StateStore interface {
	Load(ctx context.Context) (Checkpoint, bool, error)
	Save(ctx context.Context, cp Checkpoint) error
}

// FileStateStore keeps the checkpoint in a JSON file next to the outbox.
// A nil store or an empty path disables checkpointing.
type FileStateStore struct {
	Path string
}

func (s *FileStateStore) Load(_ context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Path == "" {
		return Checkpoint{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, errors.Wrap(err, "read checkpoint")
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, errors.Wrapf(err, "parse checkpoint %s", s.Path)
	}
	return cp, true, nil
}

// Save replaces the file atomically.
func (s *FileStateStore) Save(_ context.Context, cp Checkpoint) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if cp.ExchangeRate.IsNil() {
		cp.ExchangeRate = sdkmath.LegacyZeroDec()
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return errors.Wrap(err, "encode checkpoint")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return errors.Wrap(err, "create checkpoint dir")
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write checkpoint")
	}
	return errors.Wrap(os.Rename(tmp, s.Path), "replace checkpoint")
}

// DBStateStore keeps the checkpoint in the keeper_state table, one row per
// hub namespace.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (Checkpoint, bool, error) {
	if s == nil || s.Store == nil {
		return Checkpoint{}, false, nil
	}
	row, ok, err := s.Store.LoadState(ctx, s.Name)
	if err != nil || !ok {
		return Checkpoint{}, ok, err
	}
	cp := Checkpoint{LastReinvest: row.LastReinvest, ExchangeRate: sdkmath.LegacyZeroDec()}
	if row.ExchangeRate != "" {
		rate, err := sdkmath.LegacyNewDecFromStr(row.ExchangeRate)
		if err != nil {
			return Checkpoint{}, false, errors.Wrapf(err, "parse checkpoint rate %q", row.ExchangeRate)
		}
		cp.ExchangeRate = rate
	}
	return cp, true, nil
}

func (s *DBStateStore) Save(ctx context.Context, cp Checkpoint) error {
	if s == nil || s.Store == nil {
		return nil
	}
	row := postgres.KeeperState{LastReinvest: cp.LastReinvest}
	if !cp.ExchangeRate.IsNil() {
		row.ExchangeRate = cp.ExchangeRate.String()
	}
	return s.Store.SaveState(ctx, s.Name, row)
}
