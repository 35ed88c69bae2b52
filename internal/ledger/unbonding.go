package ledger

import (
	"sort"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"

	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

// UnbondingQueue holds undelegations keyed by the time they mature.
type UnbondingQueue struct {
	entries storage.Map[uint64, []model.Unbonding]
	recent  storage.Item[[]model.Maturity]
}

// Queue is the pool's unbonding queue.
var Queue = UnbondingQueue{
	entries: storage.NewMap[uint64, []model.Unbonding]("unbonding", storage.Uint64Keys),
	recent:  storage.NewItem[[]model.Maturity]("unbonding_matured"),
}

// Add stores undelegations maturing at maturity, appending to an existing entry.
func (q UnbondingQueue) Add(tx storage.Tx, maturity uint64, items []model.Unbonding) error {
	if len(items) == 0 {
		return nil
	}
	existing, _, err := q.entries.MayLoad(tx, maturity)
	if err != nil {
		return err
	}
	return q.entries.Save(tx, maturity, append(existing, items...))
}

func (q UnbondingQueue) Entries(tx storage.Tx) ([]storage.Entry[uint64, []model.Unbonding], error) {
	return q.entries.Entries(tx)
}

// Total sums every queued amount.
func (q UnbondingQueue) Total(tx storage.Tx) (sdkmath.Int, error) {
	entries, err := q.entries.Entries(tx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	total := sdkmath.ZeroInt()
	for _, entry := range entries {
		total = total.Add(sumUnbonding(entry.Value))
	}
	return total, nil
}

// MaturedAmount sums entries with maturity <= now without removing them.
func (q UnbondingQueue) MaturedAmount(tx storage.Tx, now uint64) (sdkmath.Int, error) {
	entries, err := q.entries.Entries(tx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	total := sdkmath.ZeroInt()
	for _, entry := range entries {
		if entry.Key > now {
			break
		}
		total = total.Add(sumUnbonding(entry.Value))
	}
	return total, nil
}

// Mature removes entries with maturity <= now and returns their sum. Removed
// maturities are remembered for keepFor seconds so the slashing check can see
// undelegations that completed in the recent past.
func (q UnbondingQueue) Mature(tx storage.Tx, now, keepFor uint64) (sdkmath.Int, error) {
	entries, err := q.entries.Entries(tx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	recent, _, err := q.recent.MayLoad(tx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	freed := sdkmath.ZeroInt()
	changed := false
	for _, entry := range entries {
		if entry.Key > now {
			break
		}
		if err := q.entries.Remove(tx, entry.Key); err != nil {
			return sdkmath.ZeroInt(), errors.Wrapf(err, "remove unbonding %d", entry.Key)
		}
		freed = freed.Add(sumUnbonding(entry.Value))
		recent = append(recent, model.Maturity{At: entry.Key, Validators: validatorsOf(entry.Value)})
		changed = true
	}

	kept := recent[:0]
	for _, m := range recent {
		if m.At+keepFor >= now {
			kept = append(kept, m)
		} else {
			changed = true
		}
	}
	if changed {
		if err := q.recent.Save(tx, kept); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	return freed, nil
}

// NearMaturity reports the first maturity for validator within margin seconds of
// now, looking at both queued and recently matured entries.
func (q UnbondingQueue) NearMaturity(tx storage.Tx, validator string, now, margin uint64) (uint64, bool, error) {
	low := uint64(0)
	if now > margin {
		low = now - margin
	}
	high := now + margin

	entries, err := q.entries.Entries(tx)
	if err != nil {
		return 0, false, err
	}
	for _, entry := range entries {
		if entry.Key < low {
			continue
		}
		if entry.Key > high {
			break
		}
		for _, item := range entry.Value {
			if item.Validator == validator {
				return entry.Key, true, nil
			}
		}
	}

	recent, _, err := q.recent.MayLoad(tx)
	if err != nil {
		return 0, false, err
	}
	for _, m := range recent {
		if m.At < low || m.At > high {
			continue
		}
		for _, v := range m.Validators {
			if v == validator {
				return m.At, true, nil
			}
		}
	}
	return 0, false, nil
}

// Scale multiplies every queued amount of validator by multiplier (floor) and
// returns the new queue total.
func (q UnbondingQueue) Scale(tx storage.Tx, validator string, multiplier sdkmath.LegacyDec) (sdkmath.Int, error) {
	entries, err := q.entries.Entries(tx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	total := sdkmath.ZeroInt()
	for _, entry := range entries {
		touched := false
		items := entry.Value[:0]
		for _, item := range entry.Value {
			if item.Validator == validator {
				item.Amount = MulFloor(item.Amount, multiplier)
				touched = true
			}
			if item.Amount.IsZero() {
				continue
			}
			items = append(items, item)
			total = total.Add(item.Amount)
		}
		if !touched {
			continue
		}
		if len(items) == 0 {
			err = q.entries.Remove(tx, entry.Key)
		} else {
			err = q.entries.Save(tx, entry.Key, items)
		}
		if err != nil {
			return sdkmath.ZeroInt(), errors.Wrapf(err, "scale unbonding %d", entry.Key)
		}
	}
	return total, nil
}

func sumUnbonding(items []model.Unbonding) sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

func validatorsOf(items []model.Unbonding) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Validator]; ok {
			continue
		}
		seen[item.Validator] = struct{}{}
		out = append(out, item.Validator)
	}
	sort.Strings(out)
	return out
}
