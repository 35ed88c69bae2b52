package epoch

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// MinPeriod is the shortest accepted epoch or unbond period, in seconds.
	MinPeriod uint64 = 60 * 60
	// MaxPeriod is the longest accepted epoch or unbond period, in seconds.
	MaxPeriod uint64 = 365 * 24 * 60 * 60
)

var (
	ErrEpochNotReached = errors.New("epoch not reached")
	ErrZeroPeriod      = errors.New("period must be greater than zero")
)

// NotReachedError carries the time at which the gate opens.
type NotReachedError struct {
	Next uint64
}

func (e *NotReachedError) Error() string {
	return fmt.Sprintf("epoch not reached yet, next at %d", e.Next)
}

func (e *NotReachedError) Is(target error) bool {
	return target == ErrEpochNotReached
}

// Advance moves next past now in whole periods so the schedule keeps its
// original rhythm even when called late.
func Advance(next, period, now uint64) (uint64, error) {
	if period == 0 {
		return 0, ErrZeroPeriod
	}
	if now < next {
		return 0, &NotReachedError{Next: next}
	}
	elapsed := (now - next) / period
	return next + (elapsed+1)*period, nil
}

// UnbondCadence is the spacing between undelegation rounds.
func UnbondCadence(unbondPeriod, maxConcurrent uint64) uint64 {
	if maxConcurrent == 0 {
		return unbondPeriod
	}
	return (unbondPeriod + maxConcurrent - 1) / maxConcurrent
}

// ReleaseAt is when a claim created now becomes payable: one unbond period
// after the next undelegation round that can cover it.
func ReleaseAt(nextUnbond, nextEpoch, unbondPeriod uint64) uint64 {
	start := nextUnbond
	if nextEpoch > start {
		start = nextEpoch
	}
	return start + unbondPeriod
}

func ValidPeriod(period uint64) bool {
	return period >= MinPeriod && period <= MaxPeriod
}
