package ledger

import (
	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"
)

var (
	// ErrOverflow is returned when a checked subtraction would go negative.
	ErrOverflow = errors.New("overflow")
	// ErrInsufficientShares is returned when more shares are unbonded than issued.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInsolvent is returned when claims exceed everything backing the pool.
	ErrInsolvent = errors.New("pool assets are negative")
)

// SubChecked returns a - b, failing instead of going negative.
func SubChecked(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.LT(b) {
		return sdkmath.ZeroInt(), errors.Wrapf(ErrOverflow, "cannot subtract %s from %s", b, a)
	}
	return a.Sub(b), nil
}

// MulFloor multiplies an amount by a rate, rounding toward zero.
func MulFloor(amount sdkmath.Int, rate sdkmath.LegacyDec) sdkmath.Int {
	return rate.MulInt(amount).TruncateInt()
}

// Ratio returns num/den with the fractional part floored at 18 digits.
func Ratio(num, den sdkmath.Int) sdkmath.LegacyDec {
	return sdkmath.LegacyNewDecFromInt(num).QuoInt(den)
}
