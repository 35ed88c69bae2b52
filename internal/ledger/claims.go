package ledger

import (
	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"

	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

// ErrNothingToClaim is returned when no matured claim fits the available balance.
var ErrNothingToClaim = errors.New("no claims available to be claimed")

// ClaimsLedger stores the pending claims of every holder in insertion order.
type ClaimsLedger struct {
	claims storage.Map[string, []model.Claim]
}

// Claims is the pool's claims ledger.
var Claims = ClaimsLedger{claims: storage.NewMap[string, []model.Claim]("claims", storage.StringKeys)}

func (c ClaimsLedger) Create(tx storage.Tx, holder string, amount sdkmath.Int, releaseAt uint64) error {
	existing, err := c.List(tx, holder)
	if err != nil {
		return err
	}
	return c.claims.Save(tx, holder, append(existing, model.Claim{Amount: amount, ReleaseAt: releaseAt}))
}

func (c ClaimsLedger) List(tx storage.Tx, holder string) ([]model.Claim, error) {
	existing, _, err := c.claims.MayLoad(tx, holder)
	if err != nil {
		return nil, errors.Wrapf(err, "load claims of %s", holder)
	}
	return existing, nil
}

// Settle pays out matured claims of holder up to limit. Claims are taken in
// order; the first matured claim that does not fit and everything after it
// stays pending.
func (c ClaimsLedger) Settle(tx storage.Tx, holder string, now uint64, limit sdkmath.Int) (sdkmath.Int, error) {
	existing, err := c.List(tx, holder)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	paid := sdkmath.ZeroInt()
	pending := make([]model.Claim, 0, len(existing))
	full := false
	for _, claim := range existing {
		if full || claim.ReleaseAt > now {
			pending = append(pending, claim)
			continue
		}
		next := paid.Add(claim.Amount)
		if next.GT(limit) {
			full = true
			pending = append(pending, claim)
			continue
		}
		paid = next
	}

	if paid.IsZero() {
		return paid, ErrNothingToClaim
	}
	if len(pending) == 0 {
		return paid, c.claims.Remove(tx, holder)
	}
	return paid, c.claims.Save(tx, holder, pending)
}

// Scale multiplies every claim of every holder by multiplier (floor) and
// returns the new sum of all claims.
func (c ClaimsLedger) Scale(tx storage.Tx, multiplier sdkmath.LegacyDec) (sdkmath.Int, error) {
	entries, err := c.claims.Entries(tx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	total := sdkmath.ZeroInt()
	for _, entry := range entries {
		for i := range entry.Value {
			entry.Value[i].Amount = MulFloor(entry.Value[i].Amount, multiplier)
			total = total.Add(entry.Value[i].Amount)
		}
		if err := c.claims.Save(tx, entry.Key, entry.Value); err != nil {
			return sdkmath.ZeroInt(), errors.Wrapf(err, "scale claims of %s", entry.Key)
		}
	}
	return total, nil
}

// Total sums the claims of every holder.
func (c ClaimsLedger) Total(tx storage.Tx) (sdkmath.Int, error) {
	entries, err := c.claims.Entries(tx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	total := sdkmath.ZeroInt()
	for _, entry := range entries {
		for _, claim := range entry.Value {
			total = total.Add(claim.Amount)
		}
	}
	return total, nil
}
