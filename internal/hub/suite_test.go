package hub

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lsdHub/internal/ledger"
	"lsdHub/internal/model"
	"lsdHub/internal/sim"
	"lsdHub/internal/storage"
	"lsdHub/internal/storage/leveldb"
)

const (
	owner    = "owner"
	token    = "lsd-token"
	treasury = "treasury"
	denom    = "ufun"
	hubAddr  = "hub"

	hour = uint64(60 * 60)
	day  = 24 * hour

	genesisTime = uint64(1_700_000_000)
)

type suite struct {
	t     *testing.T
	ctx   context.Context
	hub   *Hub
	chain *sim.Chain
	store storage.Store
	cfg   model.Genesis
}

func percent(p int64) sdkmath.LegacyDec {
	return sdkmath.LegacyNewDecWithPrec(p, 2)
}

func weight(validator string, p int64) model.ValidatorWeight {
	return model.ValidatorWeight{Validator: validator, Weight: percent(p)}
}

func defaultGenesis(validators ...model.ValidatorWeight) model.Genesis {
	return model.Genesis{
		Owner:                   owner,
		TokenContract:           token,
		Treasury:                treasury,
		BondDenom:               denom,
		Commission:              sdkmath.LegacyZeroDec(),
		Validators:              validators,
		EpochPeriod:             23 * hour,
		UnbondPeriod:            28 * day,
		MaxConcurrentUnbondings: 7,
		LiquidityDiscount:       percent(5),
		TombstoneThreshold:      sdkmath.LegacyNewDecWithPrec(1, 4),
		SlashingSafetyMargin:    hour,
	}
}

func newSuite(t *testing.T, genesis model.Genesis) *suite {
	t.Helper()
	store, err := leveldb.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	chain := sim.New(denom, hubAddr, genesis.UnbondPeriod, genesisTime)
	h := New(store, chain, nil, zaptest.NewLogger(t))
	h.newID = func() string { return "cycle" }

	s := &suite{t: t, ctx: context.Background(), hub: h, chain: chain, store: store, cfg: genesis}
	_, err = h.Instantiate(s.ctx, s.env(owner), genesis)
	require.NoError(t, err)
	return s
}

func (s *suite) env(sender string, funds ...model.Coin) model.Env {
	return model.Env{Time: s.chain.Now(), Sender: sender, Funds: funds}
}

func (s *suite) advance(seconds uint64) {
	s.chain.Advance(seconds)
}

// dispatch executes resp on the chain and feeds every reply back to the hub.
func (s *suite) dispatch(resp model.Response) {
	s.t.Helper()
	replies, err := s.chain.Dispatch(s.ctx, resp.Messages)
	require.NoError(s.t, err)
	for _, r := range replies {
		next, err := s.hub.Reply(s.ctx, s.env(hubAddr), r)
		require.NoError(s.t, err)
		s.dispatch(next)
	}
}

func (s *suite) bond(holder string, amount int64) (model.Response, error) {
	s.t.Helper()
	s.chain.Fund(holder, sdkmath.NewInt(amount))
	coins, err := s.chain.Deposit(holder, sdkmath.NewInt(amount))
	require.NoError(s.t, err)
	resp, err := s.hub.Bond(s.ctx, s.env(holder, coins...))
	if err != nil {
		return resp, err
	}
	s.dispatch(resp)
	return resp, nil
}

func (s *suite) unbond(holder string, shares sdkmath.Int) (model.Response, error) {
	s.t.Helper()
	require.NoError(s.t, s.chain.SendShares(holder, shares))
	resp, err := s.hub.Receive(s.ctx, s.env(token), holder, shares)
	if err != nil {
		return resp, err
	}
	s.dispatch(resp)
	return resp, nil
}

func (s *suite) reinvest() error {
	s.t.Helper()
	resp, err := s.hub.Reinvest(s.ctx, s.env(hubAddr))
	if err != nil {
		return err
	}
	s.dispatch(resp)
	return nil
}

func (s *suite) claim(holder string) (model.Response, error) {
	s.t.Helper()
	resp, err := s.hub.Claim(s.ctx, s.env(holder))
	if err != nil {
		return resp, err
	}
	s.dispatch(resp)
	return resp, nil
}

func (s *suite) supply() ledger.Supply {
	s.t.Helper()
	var supply ledger.Supply
	require.NoError(s.t, s.store.View(s.ctx, func(tx storage.Tx) error {
		var err error
		supply, err = ledger.SupplyRecord.Load(tx)
		return err
	}))
	return supply
}

func (s *suite) bonded() map[string]int64 {
	s.t.Helper()
	list, err := s.hub.QueryBonded(s.ctx)
	require.NoError(s.t, err)
	out := make(map[string]int64, len(list))
	for _, b := range list {
		out[b.Validator] = b.Amount.Int64()
	}
	return out
}

func (s *suite) delegations() map[string]int64 {
	out := make(map[string]int64)
	for _, b := range s.chain.Delegations() {
		out[b.Validator] = b.Amount.Int64()
	}
	return out
}

func (s *suite) rate() sdkmath.LegacyDec {
	s.t.Helper()
	rate, err := s.hub.QueryExchangeRate(s.ctx, s.chain.Now())
	require.NoError(s.t, err)
	return rate
}

// checkInvariants asserts the ledger totals match their collections and the
// pool is solvent.
func (s *suite) checkInvariants() {
	s.t.Helper()
	require.NoError(s.t, s.store.View(s.ctx, func(tx storage.Tx) error {
		supply, err := ledger.SupplyRecord.Load(tx)
		require.NoError(s.t, err)

		bonded, _, err := ledger.BondedRecord.MayLoad(tx)
		require.NoError(s.t, err)
		require.Truef(s.t, ledger.SumBonded(bonded).Equal(supply.TotalBonded), "bonded %s != %s", ledger.SumBonded(bonded), supply.TotalBonded)

		unbonding, err := ledger.Queue.Total(tx)
		require.NoError(s.t, err)
		require.Truef(s.t, unbonding.Equal(supply.TotalUnbonding), "unbonding %s != %s", unbonding, supply.TotalUnbonding)

		claims, err := ledger.Claims.Total(tx)
		require.NoError(s.t, err)
		require.Truef(s.t, claims.Equal(supply.Claims), "claims %s != %s", claims, supply.Claims)

		_, err = supply.Assets(s.chain.Balance(hubAddr))
		require.NoError(s.t, err)
		return nil
	}))
}

func requireInt(t *testing.T, want int64, got sdkmath.Int) {
	t.Helper()
	require.Truef(t, got.Equal(sdkmath.NewInt(want)), "want %d, got %s", want, got)
}
