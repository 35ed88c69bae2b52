// Package planner computes the redelegations that move a bonded allocation
// onto a new set of validator weights.
package planner

import (
	"sort"

	sdkmath "cosmossdk.io/math"

	"lsdHub/internal/model"
)

// Redelegation moves Amount of stake from one validator to another.
type Redelegation struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount sdkmath.Int `json:"amount"`
}

// Plan is the result of Compute.
type Plan struct {
	Redelegations []Redelegation
	// Bonded is the allocation after the redelegations, sorted by validator
	// without zero entries.
	Bonded []model.Bonded
}

type movement struct {
	validator string
	amount    sdkmath.Int
}

// Compute plans the moves from old to floor(totalBonded * weight) per validator.
// Flooring dust stays on whichever validator it was left on. old must sum to
// totalBonded.
func Compute(old []model.Bonded, weights []model.ValidatorWeight, totalBonded sdkmath.Int) Plan {
	balances := make(map[string]sdkmath.Int, len(old)+len(weights))
	for _, b := range old {
		balances[b.Validator] = b.Amount
	}

	targets := make(map[string]sdkmath.Int, len(weights))
	for _, w := range weights {
		targets[w.Validator] = w.Weight.MulInt(totalBonded).TruncateInt()
	}

	var sources, destinations []movement
	for validator, amount := range balances {
		target, ok := targets[validator]
		switch {
		case !ok:
			if amount.IsPositive() {
				sources = append(sources, movement{validator, amount})
			}
		case amount.GT(target):
			sources = append(sources, movement{validator, amount.Sub(target)})
		case target.GT(amount):
			destinations = append(destinations, movement{validator, target.Sub(amount)})
		}
	}
	for validator, target := range targets {
		if _, ok := balances[validator]; !ok && target.IsPositive() {
			destinations = append(destinations, movement{validator, target})
		}
	}
	sortMovements(sources)
	sortMovements(destinations)

	var redelegations []Redelegation
	for d := range destinations {
		for s := range sources {
			if destinations[d].amount.IsZero() {
				break
			}
			if sources[s].amount.IsZero() {
				continue
			}
			moved := sdkmath.MinInt(sources[s].amount, destinations[d].amount)
			sources[s].amount = sources[s].amount.Sub(moved)
			destinations[d].amount = destinations[d].amount.Sub(moved)

			from, to := sources[s].validator, destinations[d].validator
			balances[from] = balances[from].Sub(moved)
			current, ok := balances[to]
			if !ok {
				current = sdkmath.ZeroInt()
			}
			balances[to] = current.Add(moved)
			redelegations = append(redelegations, Redelegation{From: from, To: to, Amount: moved})
		}
	}

	bonded := make([]model.Bonded, 0, len(balances))
	for validator, amount := range balances {
		if amount.IsPositive() {
			bonded = append(bonded, model.Bonded{Validator: validator, Amount: amount})
		}
	}
	sort.Slice(bonded, func(i, j int) bool { return bonded[i].Validator < bonded[j].Validator })

	return Plan{Redelegations: redelegations, Bonded: bonded}
}

// Largest first; ties by validator for a deterministic plan.
func sortMovements(list []movement) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].amount.Equal(list[j].amount) {
			return list[i].amount.GT(list[j].amount)
		}
		return list[i].validator < list[j].validator
	})
}
