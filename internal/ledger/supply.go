package ledger

import (
	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"

	"lsdHub/internal/storage"
)

// Supply tracks issued shares and the assets backing them.
type Supply struct {
	BondDenom      string      `json:"bond_denom"`
	Issued         sdkmath.Int `json:"issued"`
	TotalBonded    sdkmath.Int `json:"total_bonded"`
	Claims         sdkmath.Int `json:"claims"`
	TotalUnbonding sdkmath.Int `json:"total_unbonding"`
}

// SupplyRecord is the persisted Supply.
var SupplyRecord = storage.NewItem[Supply]("supply")

func NewSupply(bondDenom string) Supply {
	return Supply{
		BondDenom:      bondDenom,
		Issued:         sdkmath.ZeroInt(),
		TotalBonded:    sdkmath.ZeroInt(),
		Claims:         sdkmath.ZeroInt(),
		TotalUnbonding: sdkmath.ZeroInt(),
	}
}

// Assets returns total_bonded + total_unbonding + balance - claims.
func (s Supply) Assets(balance sdkmath.Int) (sdkmath.Int, error) {
	gross := s.TotalBonded.Add(s.TotalUnbonding).Add(balance)
	assets, err := SubChecked(gross, s.Claims)
	if err != nil {
		return sdkmath.ZeroInt(), errors.Wrapf(ErrInsolvent, "claims %s exceed %s", s.Claims, gross)
	}
	return assets, nil
}

// TokensPerShare is the native amount one share redeems for.
func (s Supply) TokensPerShare(balance sdkmath.Int) (sdkmath.LegacyDec, error) {
	if s.Issued.IsZero() {
		return sdkmath.LegacyOneDec(), nil
	}
	assets, err := s.Assets(balance)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return Ratio(assets, s.Issued), nil
}

// SharesPerToken is the number of shares one native token buys.
func (s Supply) SharesPerToken(balance sdkmath.Int) (sdkmath.LegacyDec, error) {
	assets, err := s.Assets(balance)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	// without holders the rate restarts at 1, whatever dust is left behind
	if s.Issued.IsZero() || assets.IsZero() {
		return sdkmath.LegacyOneDec(), nil
	}
	return Ratio(s.Issued, assets), nil
}

// Bond issues shares for a deposit. balanceBefore must exclude the deposit.
func (s *Supply) Bond(paid, balanceBefore sdkmath.Int) (sdkmath.Int, error) {
	rate, err := s.SharesPerToken(balanceBefore)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	shares := MulFloor(paid, rate)
	s.Issued = s.Issued.Add(shares)
	return shares, nil
}

// Unbond retires shares and books their native value as claims.
func (s *Supply) Unbond(shares, balance sdkmath.Int) (sdkmath.Int, error) {
	if shares.GT(s.Issued) {
		return sdkmath.ZeroInt(), errors.Wrapf(ErrInsufficientShares, "unbond %s of %s issued", shares, s.Issued)
	}
	rate, err := s.TokensPerShare(balance)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	native := MulFloor(shares, rate)
	s.Issued = s.Issued.Sub(shares)
	s.Claims = s.Claims.Add(native)
	return native, nil
}

// RecordClaimPayout removes paid out claims.
func (s *Supply) RecordClaimPayout(native sdkmath.Int) error {
	claims, err := SubChecked(s.Claims, native)
	if err != nil {
		return errors.Wrap(err, "record claim payout")
	}
	s.Claims = claims
	return nil
}

// Clean loads the supply and retires unbonding entries that matured at or
// before now. Their amounts are already part of the liquid balance.
func Clean(tx storage.Tx, now, keepFor uint64) (Supply, error) {
	supply, err := SupplyRecord.Load(tx)
	if err != nil {
		return Supply{}, err
	}
	freed, err := Queue.Mature(tx, now, keepFor)
	if err != nil {
		return Supply{}, err
	}
	if freed.IsZero() {
		return supply, nil
	}
	if supply.TotalUnbonding, err = SubChecked(supply.TotalUnbonding, freed); err != nil {
		return Supply{}, errors.Wrap(err, "retire matured unbonding")
	}
	if err := SupplyRecord.Save(tx, supply); err != nil {
		return Supply{}, err
	}
	return supply, nil
}

// CleanView is Clean without writes, for queries.
func CleanView(tx storage.Tx, now uint64) (Supply, error) {
	supply, err := SupplyRecord.Load(tx)
	if err != nil {
		return Supply{}, err
	}
	matured, err := Queue.MaturedAmount(tx, now)
	if err != nil {
		return Supply{}, err
	}
	if supply.TotalUnbonding, err = SubChecked(supply.TotalUnbonding, matured); err != nil {
		return Supply{}, errors.Wrap(err, "count matured unbonding")
	}
	return supply, nil
}
