package hub

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsdHub/internal/ledger"
	"lsdHub/internal/storage"
)

type slashRecorder struct {
	nopRecorder
	slashed []string
}

func (r *slashRecorder) SlashDetected(validator string) {
	r.slashed = append(r.slashed, validator)
}

func TestCheckSlashScalesBondedAndClaims(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))
	recorder := &slashRecorder{}
	s.hub.recorder = recorder

	_, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	_, err = s.unbond("alice", sdkmath.NewInt(100_000))
	require.NoError(t, err)

	s.chain.Slash("v1", sdkmath.LegacyNewDecWithPrec(1, 3))
	resp, err := s.hub.CheckSlash(s.ctx, s.env("anyone"))
	require.NoError(t, err)
	slashed, _ := resp.Attribute("slashed")
	assert.Equal(t, "1", slashed)
	assert.Equal(t, []string{"v1"}, recorder.slashed)

	supply := s.supply()
	requireInt(t, 999_000, supply.TotalBonded)
	requireInt(t, 99_900, supply.Claims)
	assert.Equal(t, map[string]int64{"v1": 999_000}, s.bonded())

	claims, err := s.hub.QueryClaims(s.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	requireInt(t, 99_900, claims[0].Amount)
	s.checkInvariants()

	// the ledger now matches the chain
	resp, err = s.hub.CheckSlash(s.ctx, s.env("anyone"))
	require.NoError(t, err)
	slashed, _ = resp.Attribute("slashed")
	assert.Equal(t, "0", slashed)
}

func TestCheckSlashIgnoresLossBelowThreshold(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))
	_, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	s.chain.Slash("v1", sdkmath.LegacyNewDecWithPrec(5, 5))
	_, err = s.hub.CheckSlash(s.ctx, s.env("anyone"))
	require.NoError(t, err)
	requireInt(t, 1_000_000, s.supply().TotalBonded)
}

func TestCheckSlashScalesUnbondingOfSlashedValidator(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 50), weight("v2", 50)))
	_, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	_, err = s.unbond("alice", sdkmath.NewInt(200_000))
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	requireInt(t, 200_000, s.supply().TotalUnbonding)

	s.chain.Slash("v2", sdkmath.LegacyNewDecWithPrec(10, 2))
	_, err = s.hub.CheckSlash(s.ctx, s.env("anyone"))
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{"v1": 400_000, "v2": 360_000}, s.bonded())
	supply := s.supply()
	requireInt(t, 760_000, supply.TotalBonded)
	requireInt(t, 190_000, supply.TotalUnbonding)
	// 950_000 of 1_000_000 pool stake survived
	requireInt(t, 190_000, supply.Claims)
	s.checkInvariants()
}

func TestCheckSlashRefusesNearMaturity(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))
	_, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	_, err = s.unbond("alice", sdkmath.NewInt(100_000))
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	unbonding, err := s.hub.QueryUnbonding(s.ctx)
	require.NoError(t, err)
	require.Len(t, unbonding, 1)
	maturity := unbonding[0].Maturity

	s.chain.Slash("v1", sdkmath.LegacyNewDecWithPrec(1, 3))

	s.advance(maturity - s.chain.Now() - hour/2)
	_, err = s.hub.CheckSlash(s.ctx, s.env("anyone"))
	require.ErrorIs(t, err, ErrUnbondingTooClose)

	// matured, but still inside the margin
	s.advance(hour)
	_, err = s.hub.CheckSlash(s.ctx, s.env("anyone"))
	require.ErrorIs(t, err, ErrUnbondingTooClose)
	requireInt(t, 900_000, s.supply().TotalBonded)

	s.advance(2 * hour)
	_, err = s.hub.CheckSlash(s.ctx, s.env("anyone"))
	require.NoError(t, err)
	requireInt(t, 899_100, s.supply().TotalBonded)
	requireInt(t, 0, s.supply().TotalUnbonding)
	s.checkInvariants()
}

func TestRecentMaturitiesArePruned(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))
	_, err := s.bond("alice", 1_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	_, err = s.unbond("alice", sdkmath.NewInt(100))
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	s.advance(28*day + 3*hour)
	_, err = s.hub.CheckSlash(s.ctx, s.env("anyone"))
	require.NoError(t, err)

	found, err := s.hub.QueryUnbonding(s.ctx)
	require.NoError(t, err)
	assert.Empty(t, found)
	requireInt(t, 0, s.supply().TotalUnbonding)
	requireInt(t, 100, s.chain.Balance(hubAddr))

	// matured long before the margin, so nothing is remembered
	require.NoError(t, s.store.View(s.ctx, func(tx storage.Tx) error {
		_, near, err := ledger.Queue.NearMaturity(tx, "v1", s.chain.Now(), 10*day)
		assert.False(t, near)
		return err
	}))
}
