package model

import sdkmath "cosmossdk.io/math"

// ValidatorWeight is the target share of the pool for one validator.
type ValidatorWeight struct {
	Validator string            `json:"validator"`
	Weight    sdkmath.LegacyDec `json:"weight"`
}

// Bonded is the amount currently delegated to a validator.
type Bonded struct {
	Validator string      `json:"validator"`
	Amount    sdkmath.Int `json:"amount"`
}

// Unbonding is one undelegation inside an unbonding queue entry.
type Unbonding struct {
	Validator string      `json:"validator"`
	Amount    sdkmath.Int `json:"amount"`
}

// Maturity remembers which validators had unbondings mature at a timestamp.
type Maturity struct {
	At         uint64   `json:"at"`
	Validators []string `json:"validators"`
}

// Claim is a redemption owed to a holder once ReleaseAt has passed.
type Claim struct {
	Amount    sdkmath.Int `json:"amount"`
	ReleaseAt uint64      `json:"release_at"`
}

// SlashRecord describes a detected stake shortfall.
type SlashRecord struct {
	Validator string      `json:"validator"`
	Expected  sdkmath.Int `json:"expected"`
	Observed  sdkmath.Int `json:"observed"`
}

// Coin is an amount of a native denomination.
type Coin struct {
	Denom  string      `json:"denom"`
	Amount sdkmath.Int `json:"amount"`
}
