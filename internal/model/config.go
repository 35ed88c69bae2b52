package model

import sdkmath "cosmossdk.io/math"

// Config holds the pool parameters and the epoch schedule.
type Config struct {
	Owner                   string            `json:"owner"`
	TokenContract           string            `json:"token_contract"`
	Treasury                string            `json:"treasury"`
	Commission              sdkmath.LegacyDec `json:"commission"`
	EpochPeriod             uint64            `json:"epoch_period"`
	UnbondPeriod            uint64            `json:"unbond_period"`
	MaxConcurrentUnbondings uint64            `json:"max_concurrent_unbondings"`
	NextEpoch               uint64            `json:"next_epoch"`
	NextUnbond              uint64            `json:"next_unbond"`
	TombstoneThreshold      sdkmath.LegacyDec `json:"tombstone_threshold"`
	SlashingSafetyMargin    uint64            `json:"slashing_safety_margin"`
	LiquidityDiscount       sdkmath.LegacyDec `json:"liquidity_discount"`
}

// Genesis is the set of parameters a pool is created with.
type Genesis struct {
	Owner                   string            `json:"owner"`
	TokenContract           string            `json:"token_contract"`
	Treasury                string            `json:"treasury"`
	BondDenom               string            `json:"bond_denom"`
	Commission              sdkmath.LegacyDec `json:"commission"`
	Validators              []ValidatorWeight `json:"validators"`
	EpochPeriod             uint64            `json:"epoch_period"`
	UnbondPeriod            uint64            `json:"unbond_period"`
	MaxConcurrentUnbondings uint64            `json:"max_concurrent_unbondings"`
	LiquidityDiscount       sdkmath.LegacyDec `json:"liquidity_discount"`
	TombstoneThreshold      sdkmath.LegacyDec `json:"tombstone_threshold"`
	SlashingSafetyMargin    uint64            `json:"slashing_safety_margin"`
}
