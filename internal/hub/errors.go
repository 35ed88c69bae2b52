package hub

import (
	"github.com/pkg/errors"

	"lsdHub/internal/epoch"
	"lsdHub/internal/ledger"
)

// Validation
var (
	ErrInvalidCommission              = errors.New("commission must be between 0% and 50%")
	ErrInvalidValidatorWeights        = errors.New("weights must add up to 1")
	ErrInvalidEpochPeriod             = errors.New("epoch period must be longer than 1h and shorter than 365 days")
	ErrInvalidUnbondPeriod            = errors.New("unbond period must be longer than 1h and shorter than 365 days")
	ErrInvalidMaxConcurrentUnbondings = errors.New("max concurrent unbondings must be bigger than 0")
	ErrInvalidLiquidityDiscount       = errors.New("liquidity discount must be below 50%")
	ErrInvalidTombstoneThreshold      = errors.New("tombstone threshold must be between 0 and 1")
	ErrInvalidGenesis                 = errors.New("invalid genesis")
)

// Authorization
var ErrUnauthorized = errors.New("unauthorized")

// Payment
var (
	ErrNoFunds       = errors.New("no funds sent")
	ErrMultipleDenom = errors.New("sent more than one denomination")
	ErrWrongDenom    = errors.New("wrong denomination")
	ErrZeroAmount    = errors.New("amount must be greater than zero")
)

// Timing
var (
	ErrEpochNotReached   = epoch.ErrEpochNotReached
	ErrUnbondingTooClose = errors.New("unbonding too close to slashing check")
)

// State
var (
	ErrNothingToClaim    = ledger.ErrNothingToClaim
	ErrInvalidToken      = errors.New("only the liquid staking token can be sent to the hub")
	ErrMigrationFailed   = errors.New("migration failed")
	ErrReinvestPending   = errors.New("reinvest is waiting for reward withdrawals")
	ErrNoPendingReinvest = errors.New("no reinvest is waiting for reward withdrawals")
	ErrUnknownReply      = errors.New("unknown reply id")
	ErrNotInstantiated   = errors.New("hub is not instantiated")
	ErrAlreadyExists     = errors.New("hub is already instantiated")
)

// Arithmetic
var (
	ErrOverflow           = ledger.ErrOverflow
	ErrInsufficientShares = ledger.ErrInsufficientShares
	ErrInsolvent          = ledger.ErrInsolvent
)

// rejections are refusals caused by the caller's input or timing.
var rejections = []error{
	ErrInvalidCommission, ErrInvalidValidatorWeights, ErrInvalidEpochPeriod, ErrInvalidUnbondPeriod,
	ErrInvalidMaxConcurrentUnbondings, ErrInvalidLiquidityDiscount, ErrInvalidTombstoneThreshold, ErrInvalidGenesis,
	ErrUnauthorized,
	ErrNoFunds, ErrMultipleDenom, ErrWrongDenom, ErrZeroAmount,
	ErrEpochNotReached, ErrUnbondingTooClose,
	ErrNothingToClaim, ErrInvalidToken, ErrMigrationFailed, ErrReinvestPending, ErrNoPendingReinvest,
	ErrUnknownReply, ErrNotInstantiated, ErrAlreadyExists,
	ErrInsufficientShares,
}

// IsRejection reports whether err is a command refused by the hub rules, as
// opposed to a storage, chain or accounting failure.
func IsRejection(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
