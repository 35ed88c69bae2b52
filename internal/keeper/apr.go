package keeper

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

var yearSeconds = decimal.NewFromInt(int64(365 * 24 * time.Hour / time.Second))

// rateSample is an exchange rate observed at a block time.
type rateSample struct {
	Rate sdkmath.LegacyDec
	At   uint64
}

// computeAPR annualizes the growth between two exchange rate samples. It
// returns false when the samples do not span any time.
func computeAPR(prev, cur rateSample) (decimal.Decimal, bool) {
	if cur.At <= prev.At || prev.Rate.IsNil() || cur.Rate.IsNil() || !prev.Rate.IsPositive() {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(prev.Rate.String())
	if err != nil {
		return decimal.Zero, false
	}
	c, err := decimal.NewFromString(cur.Rate.String())
	if err != nil {
		return decimal.Zero, false
	}

	growth := c.Sub(p).DivRound(p, 18)
	window := decimal.NewFromInt(int64(cur.At - prev.At))
	return growth.Mul(yearSeconds).DivRound(window, 18), true
}
