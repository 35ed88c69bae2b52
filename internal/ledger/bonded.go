package ledger

import (
	"sort"

	sdkmath "cosmossdk.io/math"

	"lsdHub/internal/model"
	"lsdHub/internal/storage"
)

// BondedRecord is the persisted bonded ledger, sorted by validator without zero entries.
var BondedRecord = storage.NewItem[[]model.Bonded]("bonded")

// LoadBonded returns the bonded ledger as a map.
func LoadBonded(tx storage.Tx) (map[string]sdkmath.Int, error) {
	list, _, err := BondedRecord.MayLoad(tx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]sdkmath.Int, len(list))
	for _, b := range list {
		out[b.Validator] = b.Amount
	}
	return out, nil
}

// SaveBonded persists balances and returns their sum.
func SaveBonded(tx storage.Tx, balances map[string]sdkmath.Int) (sdkmath.Int, error) {
	list := SortBonded(balances)
	if err := BondedRecord.Save(tx, list); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return SumBonded(list), nil
}

// SortBonded converts balances to a validator ordered list without zero entries.
func SortBonded(balances map[string]sdkmath.Int) []model.Bonded {
	list := make([]model.Bonded, 0, len(balances))
	for validator, amount := range balances {
		if amount.IsNil() || amount.IsZero() {
			continue
		}
		list = append(list, model.Bonded{Validator: validator, Amount: amount})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Validator < list[j].Validator })
	return list
}

func SumBonded(list []model.Bonded) sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, b := range list {
		total = total.Add(b.Amount)
	}
	return total
}
