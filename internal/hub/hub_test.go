package hub

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"lsdHub/internal/epoch"
	"lsdHub/internal/model"
	"lsdHub/internal/sim"
	"lsdHub/internal/storage"
	"lsdHub/internal/storage/leveldb"
)

func TestGenesisBond(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("testvaloper1", 100)))

	resp, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, model.MsgMint, resp.Messages[0].Kind)
	assert.Equal(t, "alice", resp.Messages[0].Recipient)

	assert.True(t, s.rate().Equal(sdkmath.LegacyOneDec()))
	requireInt(t, 1_000_000, s.supply().Issued)
	requireInt(t, 1_000_000, s.chain.Shares("alice"))
	s.checkInvariants()
}

func TestReinvestRemainderGoesToFirstValidator(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("testvaloper1", 50), weight("testvaloper2", 50)))

	_, err := s.bond("alice", 1_000_003)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	want := map[string]int64{"testvaloper1": 500_002, "testvaloper2": 500_001}
	assert.Equal(t, want, s.delegations())
	assert.Equal(t, want, s.bonded())
	requireInt(t, 1_000_003, s.supply().TotalBonded)

	wf, err := s.hub.QueryWorkflow(s.ctx)
	require.NoError(t, err)
	assert.False(t, wf.Pending())
	s.checkInvariants()
}

func TestReinvestRemainderFollowsCallerOrder(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("valB", 50), weight("valA", 50)))

	_, err := s.bond("alice", 1_000_003)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	want := map[string]int64{"valA": 500_001, "valB": 500_002}
	assert.Equal(t, want, s.delegations())
	assert.Equal(t, want, s.bonded())

	validators, err := s.hub.QueryValidatorSet(s.ctx)
	require.NoError(t, err)
	require.Len(t, validators, 2)
	assert.Equal(t, "valB", validators[0].Validator)
	s.checkInvariants()
}

func TestBondAfterAllHoldersExit(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))

	_, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	_, err = s.unbond("alice", sdkmath.NewInt(1_000_000))
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	s.advance(28 * day)
	_, err = s.claim("alice")
	require.NoError(t, err)
	requireInt(t, 0, s.supply().Issued)

	// flooring dust or a stray transfer stays behind without holders
	s.chain.Fund(hubAddr, sdkmath.NewInt(1))

	_, err = s.bond("bob", 1_000_000)
	require.NoError(t, err)
	requireInt(t, 1_000_000, s.chain.Shares("bob"))
	requireInt(t, 1_000_000, s.supply().Issued)
	s.checkInvariants()
}

func TestFirstBondAfterStrayTransfer(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))
	s.chain.Fund(hubAddr, sdkmath.NewInt(1))

	_, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	requireInt(t, 1_000_000, s.chain.Shares("alice"))
	assert.True(t, s.rate().GT(sdkmath.LegacyOneDec()))
	s.checkInvariants()
}

func TestRejectedCommandLogsWithoutStack(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))
	core, logs := observer.New(zap.InfoLevel)
	s.hub.logger = zap.New(core)

	_, err := s.hub.Bond(s.ctx, s.env("alice", model.Coin{Denom: "uother", Amount: sdkmath.NewInt(10)}))
	require.ErrorIs(t, err, ErrWrongDenom)
	require.True(t, IsRejection(err))

	entries := logs.FilterMessage("command rejected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, err.Error(), fields["error"])
	assert.NotContains(t, fields, "errorVerbose")
	assert.Zero(t, logs.FilterMessage("command failed").Len())

	assert.False(t, IsRejection(errors.New("rpc down")))
	assert.False(t, IsRejection(errors.Wrap(ErrInsolvent, "reinvest")))
}

func TestUnbondCreatesClaimAtNextUnbond(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("testvaloper1", 100)))

	_, err := s.bond("alice", 5_000)
	require.NoError(t, err)
	resp, err := s.unbond("alice", sdkmath.NewInt(5_000))
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, model.MsgBurn, resp.Messages[0].Kind)

	cfg, err := s.hub.QueryConfig(s.ctx)
	require.NoError(t, err)
	claims, err := s.hub.QueryClaims(s.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	requireInt(t, 5_000, claims[0].Amount)
	assert.Equal(t, cfg.NextUnbond+cfg.UnbondPeriod, claims[0].ReleaseAt)

	requireInt(t, 0, s.supply().Issued)
	requireInt(t, 0, s.chain.Shares(hubAddr))
	s.checkInvariants()
}

func TestUnbondRequiresShareToken(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("testvaloper1", 100)))
	_, err := s.bond("alice", 1_000)
	require.NoError(t, err)

	_, err = s.hub.Receive(s.ctx, s.env("other-token"), "alice", sdkmath.NewInt(1_000))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.hub.Receive(s.ctx, s.env(token), "alice", sdkmath.NewInt(1_001))
	require.ErrorIs(t, err, ErrInsufficientShares)
}

func TestBondPaymentErrors(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("testvaloper1", 100)))
	amount := sdkmath.NewInt(10)

	cases := []struct {
		name  string
		funds []model.Coin
		want  error
	}{
		{name: "no funds", funds: nil, want: ErrNoFunds},
		{name: "wrong denom", funds: []model.Coin{{Denom: "uother", Amount: amount}}, want: ErrWrongDenom},
		{name: "two denoms", funds: []model.Coin{{Denom: denom, Amount: amount}, {Denom: "uother", Amount: amount}}, want: ErrMultipleDenom},
		{name: "zero amount", funds: []model.Coin{{Denom: denom, Amount: sdkmath.ZeroInt()}}, want: ErrNoFunds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.hub.Bond(s.ctx, s.env("alice", tc.funds...))
			require.ErrorIs(t, err, tc.want)
		})
	}
	requireInt(t, 0, s.supply().Issued)
}

func TestReinvestEpochGate(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("testvaloper1", 100)))

	err := s.reinvest()
	require.ErrorIs(t, err, ErrEpochNotReached)
	var notReached *epoch.NotReachedError
	require.True(t, errors.As(err, &notReached))
	assert.Equal(t, genesisTime+23*hour, notReached.Next)

	// a late call keeps the original rhythm
	s.advance(23*hour + 50*hour)
	require.NoError(t, s.reinvest())
	cfg, err := s.hub.QueryConfig(s.ctx)
	require.NoError(t, err)
	assert.Equal(t, genesisTime+4*23*hour, cfg.NextEpoch)
}

func TestReinvestWithdrawsAndTakesCommission(t *testing.T) {
	genesis := defaultGenesis(weight("v1", 50), weight("v2", 50))
	genesis.Commission = percent(10)
	s := newSuite(t, genesis)

	_, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	before := s.rate()

	s.chain.AddRewards("v1", sdkmath.NewInt(1_000))
	s.chain.AddRewards("v2", sdkmath.NewInt(1_000))
	s.advance(23 * hour)

	resp, err := s.hub.Reinvest(s.ctx, s.env(hubAddr))
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, model.WithdrawReward("v1", model.ReplyOnError, model.ReplyWithdrawIntermittent), resp.Messages[0])
	assert.Equal(t, model.WithdrawReward("v2", model.ReplyAlways, model.ReplyWithdrawComplete), resp.Messages[1])

	wf, err := s.hub.QueryWorkflow(s.ctx)
	require.NoError(t, err)
	assert.True(t, wf.Pending())
	assert.Equal(t, "cycle", wf.CycleID)

	// a second cycle cannot start before the first one resumes
	s.advance(23 * hour)
	_, err = s.hub.Reinvest(s.ctx, s.env(hubAddr))
	require.ErrorIs(t, err, ErrReinvestPending)

	s.dispatch(resp)
	requireInt(t, 200, s.chain.Balance(treasury))
	assert.Equal(t, map[string]int64{"v1": 500_900, "v2": 500_900}, s.delegations())
	assert.Equal(t, s.delegations(), s.bonded())
	assert.True(t, s.rate().GT(before))
	s.checkInvariants()
}

func TestDepositDuringWithdrawalIsNotReward(t *testing.T) {
	genesis := defaultGenesis(weight("v1", 100))
	genesis.Commission = percent(10)
	s := newSuite(t, genesis)

	_, err := s.bond("alice", 100_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	s.chain.AddRewards("v1", sdkmath.NewInt(1_000))
	s.advance(23 * hour)
	resp, err := s.hub.Reinvest(s.ctx, s.env(hubAddr))
	require.NoError(t, err)

	_, err = s.bond("bob", 50_000)
	require.NoError(t, err)
	s.dispatch(resp)

	requireInt(t, 100, s.chain.Balance(treasury))
	requireInt(t, 150_900, s.supply().TotalBonded)
	s.checkInvariants()
}

func TestFailedWithdrawalStillResumes(t *testing.T) {
	genesis := defaultGenesis(weight("v1", 50), weight("v2", 50))
	genesis.Commission = percent(10)
	s := newSuite(t, genesis)

	_, err := s.bond("alice", 1_000_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	s.chain.AddRewards("v1", sdkmath.NewInt(1_000))
	s.chain.AddRewards("v2", sdkmath.NewInt(1_000))
	s.chain.FailWithdrawals("v1", true)
	s.chain.FailWithdrawals("v2", true)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	wf, err := s.hub.QueryWorkflow(s.ctx)
	require.NoError(t, err)
	assert.False(t, wf.Pending())
	requireInt(t, 0, s.chain.Balance(treasury))

	s.chain.FailWithdrawals("v1", false)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	// only v1 paid out this time; v2 still fails
	requireInt(t, 100, s.chain.Balance(treasury))
	s.checkInvariants()
}

func TestReplyErrors(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))

	_, err := s.hub.Reply(s.ctx, s.env(hubAddr), model.Reply{ID: model.ReplyWithdrawComplete})
	require.ErrorIs(t, err, ErrNoPendingReinvest)

	_, err = s.hub.Reply(s.ctx, s.env(hubAddr), model.Reply{ID: 99})
	require.ErrorIs(t, err, ErrUnknownReply)

	resp, err := s.hub.Reply(s.ctx, s.env(hubAddr), model.Reply{ID: model.ReplyWithdrawIntermittent, Error: "jailed"})
	require.NoError(t, err)
	assert.Empty(t, resp.Messages)
}

func TestClaimLifecycle(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 50), weight("v2", 50)))

	_, err := s.bond("alice", 1_000_003)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	_, err = s.unbond("alice", sdkmath.NewInt(400_000))
	require.NoError(t, err)
	_, err = s.claim("alice")
	require.ErrorIs(t, err, ErrNothingToClaim)

	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	unbonding, err := s.hub.QueryUnbonding(s.ctx)
	require.NoError(t, err)
	require.Len(t, unbonding, 1)
	assert.Equal(t, s.chain.Now()+28*day, unbonding[0].Maturity)
	requireInt(t, 400_000, s.supply().TotalUnbonding)
	assert.Equal(t, map[string]int64{"v1": 300_002, "v2": 300_001}, s.bonded())
	s.checkInvariants()

	s.advance(28 * day)
	resp, err := s.claim("alice")
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	requireInt(t, 400_000, s.chain.Balance("alice"))

	supply := s.supply()
	requireInt(t, 0, supply.Claims)
	requireInt(t, 0, supply.TotalUnbonding)
	s.checkInvariants()

	_, err = s.claim("alice")
	require.ErrorIs(t, err, ErrNothingToClaim)
}

func TestUndelegationWaitsForUnbondCadence(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 100)))

	_, err := s.bond("alice", 10_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	_, err = s.unbond("alice", sdkmath.NewInt(1_000))
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	requireInt(t, 1_000, s.supply().TotalUnbonding)

	// cadence is 4 days: the next deficit waits
	_, err = s.unbond("alice", sdkmath.NewInt(1_000))
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())
	requireInt(t, 1_000, s.supply().TotalUnbonding)

	s.advance(4 * day)
	require.NoError(t, s.reinvest())
	requireInt(t, 2_000, s.supply().TotalUnbonding)
	s.checkInvariants()
}

func TestSetValidatorsRebalances(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("a", 50), weight("b", 50)))

	_, err := s.bond("alice", 1_000)
	require.NoError(t, err)
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	next := []model.ValidatorWeight{weight("a", 15), weight("c", 50), weight("d", 35)}
	_, err = s.hub.SetValidators(s.ctx, s.env("mallory"), next)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.hub.SetValidators(s.ctx, s.env(owner), []model.ValidatorWeight{weight("a", 50), weight("c", 49)})
	require.ErrorIs(t, err, ErrInvalidValidatorWeights)

	resp, err := s.hub.SetValidators(s.ctx, s.env(owner), next)
	require.NoError(t, err)
	for _, msg := range resp.Messages {
		assert.Equal(t, model.MsgRedelegate, msg.Kind)
	}
	s.dispatch(resp)

	want := map[string]int64{"a": 150, "c": 500, "d": 350}
	assert.Equal(t, want, s.bonded())
	assert.Equal(t, want, s.delegations())

	validators, err := s.hub.QueryValidatorSet(s.ctx)
	require.NoError(t, err)
	assert.Len(t, validators, 3)
	s.checkInvariants()
}

func TestSetValidatorsWithoutStake(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("a", 100)))

	resp, err := s.hub.SetValidators(s.ctx, s.env(owner), []model.ValidatorWeight{weight("b", 100)})
	require.NoError(t, err)
	assert.Empty(t, resp.Messages)

	validators, err := s.hub.QueryValidatorSet(s.ctx)
	require.NoError(t, err)
	require.Len(t, validators, 1)
	assert.Equal(t, "b", validators[0].Validator)
}

func TestLiquidityDiscount(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("a", 100)))
	_, err := s.bond("alice", 1_000)
	require.NoError(t, err)

	value, err := s.hub.QueryTargetValue(s.ctx, s.chain.Now())
	require.NoError(t, err)
	assert.True(t, value.Equal(percent(95)), value.String())

	_, err = s.hub.UpdateLiquidityDiscount(s.ctx, s.env("mallory"), percent(10))
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.hub.UpdateLiquidityDiscount(s.ctx, s.env(owner), percent(50))
	require.ErrorIs(t, err, ErrInvalidLiquidityDiscount)
	_, err = s.hub.UpdateLiquidityDiscount(s.ctx, s.env(owner), percent(10))
	require.NoError(t, err)

	value, err = s.hub.QueryTargetValue(s.ctx, s.chain.Now())
	require.NoError(t, err)
	assert.True(t, value.Equal(percent(90)), value.String())
}

func TestExchangeRateMonotonicAcrossReinvests(t *testing.T) {
	genesis := defaultGenesis(weight("v1", 30), weight("v2", 70))
	genesis.Commission = percent(5)
	s := newSuite(t, genesis)

	_, err := s.bond("alice", 777_777)
	require.NoError(t, err)
	_, err = s.bond("bob", 123_457)
	require.NoError(t, err)

	last := s.rate()
	for i := 0; i < 12; i++ {
		s.chain.AddRewards("v1", sdkmath.NewInt(int64(97*(i+1))))
		s.chain.AddRewards("v2", sdkmath.NewInt(int64(13*(i+3))))
		s.advance(23 * hour)
		require.NoError(t, s.reinvest())

		switch i {
		case 3:
			_, err = s.unbond("alice", sdkmath.NewInt(100_001))
			require.NoError(t, err)
		case 6:
			_, err = s.bond("carol", 55_555)
			require.NoError(t, err)
		}

		rate := s.rate()
		require.Truef(t, rate.GTE(last), "rate dropped from %s to %s", last, rate)
		last = rate
		s.checkInvariants()
	}
}

func TestBondUnbondRoundTrip(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("v1", 50), weight("v2", 50)))
	_, err := s.bond("alice", 1_000_003)
	require.NoError(t, err)
	s.advance(23 * hour)
	s.chain.AddRewards("v1", sdkmath.NewInt(33_333))
	require.NoError(t, s.reinvest())
	s.advance(23 * hour)
	require.NoError(t, s.reinvest())

	_, err = s.bond("bob", 424_242)
	require.NoError(t, err)
	shares := s.chain.Shares("bob")
	_, err = s.unbond("bob", shares)
	require.NoError(t, err)

	claims, err := s.hub.QueryClaims(s.ctx, "bob")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	lost := sdkmath.NewInt(424_242).Sub(claims[0].Amount)
	assert.True(t, !lost.IsNegative() && lost.LTE(sdkmath.NewInt(2)), "lost %s", lost)
}

func TestInstantiateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(g *model.Genesis)
		want   error
	}{
		{name: "commission too high", mutate: func(g *model.Genesis) { g.Commission = percent(51) }, want: ErrInvalidCommission},
		{name: "weights below one", mutate: func(g *model.Genesis) { g.Validators = []model.ValidatorWeight{weight("a", 90)} }, want: ErrInvalidValidatorWeights},
		{name: "duplicate validator", mutate: func(g *model.Genesis) {
			g.Validators = []model.ValidatorWeight{weight("a", 50), weight("a", 50)}
		}, want: ErrInvalidValidatorWeights},
		{name: "epoch too short", mutate: func(g *model.Genesis) { g.EpochPeriod = hour - 1 }, want: ErrInvalidEpochPeriod},
		{name: "unbond too long", mutate: func(g *model.Genesis) { g.UnbondPeriod = epoch.MaxPeriod + 1 }, want: ErrInvalidUnbondPeriod},
		{name: "no concurrent unbondings", mutate: func(g *model.Genesis) { g.MaxConcurrentUnbondings = 0 }, want: ErrInvalidMaxConcurrentUnbondings},
		{name: "discount too high", mutate: func(g *model.Genesis) { g.LiquidityDiscount = percent(50) }, want: ErrInvalidLiquidityDiscount},
		{name: "missing treasury", mutate: func(g *model.Genesis) { g.Treasury = "" }, want: ErrInvalidGenesis},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := leveldb.NewMemory()
			require.NoError(t, err)
			defer store.Close()

			g := defaultGenesis(weight("a", 100))
			tc.mutate(&g)
			h := New(store, sim.New(denom, hubAddr, g.UnbondPeriod, genesisTime), nil, nil)
			_, err = h.Instantiate(context.Background(), model.Env{Time: genesisTime, Sender: owner}, g)
			require.ErrorIs(t, err, tc.want)

			_, err = h.QueryConfig(context.Background())
			require.ErrorIs(t, err, ErrNotInstantiated)
		})
	}
}

func TestInstantiateTwice(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("a", 100)))
	_, err := s.hub.Instantiate(s.ctx, s.env(owner), s.cfg)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

type failingQuerier struct {
	Querier
	err error
}

func (q failingQuerier) LiquidBalance(context.Context) (sdkmath.Int, error) {
	return sdkmath.ZeroInt(), q.err
}

func TestFailedCommandLeavesNoTrace(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("a", 100)))
	s.advance(23 * hour)

	boom := errors.New("rpc down")
	broken := New(s.store, failingQuerier{Querier: s.chain, err: boom}, nil, nil)
	_, err := broken.Reinvest(s.ctx, s.env(hubAddr))
	require.ErrorIs(t, err, boom)

	cfg, err := s.hub.QueryConfig(s.ctx)
	require.NoError(t, err)
	assert.Equal(t, genesisTime+23*hour, cfg.NextEpoch)

	require.NoError(t, s.reinvest())
}

func TestSplitSurplusRemainderToFirst(t *testing.T) {
	validators := []model.ValidatorWeight{weight("a", 50), weight("b", 50)}
	got := splitSurplus(sdkmath.NewInt(1_000_003), validators)
	requireInt(t, 500_002, got[0])
	requireInt(t, 500_001, got[1])

	thirds := []model.ValidatorWeight{
		{Validator: "a", Weight: sdkmath.LegacyMustNewDecFromStr("0.333333333333333333")},
		{Validator: "b", Weight: sdkmath.LegacyMustNewDecFromStr("0.333333333333333333")},
		{Validator: "c", Weight: sdkmath.LegacyMustNewDecFromStr("0.333333333333333334")},
	}
	got = splitSurplus(sdkmath.NewInt(11), thirds)
	requireInt(t, 5, got[0])
	requireInt(t, 3, got[1])
	requireInt(t, 3, got[2])
}

func TestSplitDeficitRespectsBonded(t *testing.T) {
	validators := []model.ValidatorWeight{weight("a", 50), weight("b", 50)}
	bonded := map[string]sdkmath.Int{"a": sdkmath.NewInt(10), "b": sdkmath.NewInt(100)}

	got := splitDeficit(sdkmath.NewInt(61), validators, bonded)
	requireInt(t, 10, got[0])
	requireInt(t, 51, got[1])

	got = splitDeficit(sdkmath.NewInt(3), validators, map[string]sdkmath.Int{"a": sdkmath.NewInt(10), "b": sdkmath.NewInt(10)})
	requireInt(t, 2, got[0])
	requireInt(t, 1, got[1])
}

func TestMigrateLegacySupply(t *testing.T) {
	s := newSuite(t, defaultGenesis(weight("a", 100)))
	legacy := legacySupply{
		BondDenom:      denom,
		Issued:         sdkmath.NewInt(100),
		TotalBonded:    sdkmath.NewInt(100),
		Claims:         sdkmath.ZeroInt(),
		TotalUnbonding: sdkmath.ZeroInt(),
		Bonded:         []model.Bonded{{Validator: "a", Amount: sdkmath.NewInt(100)}},
	}
	writeLegacy := func(l legacySupply) {
		require.NoError(t, s.store.Update(s.ctx, func(tx storage.Tx) error {
			if err := versionRecord.Save(tx, Version{Contract: contractName, Version: 1}); err != nil {
				return err
			}
			return legacySupplyRecord.Save(tx, l)
		}))
	}

	withUnbonding := legacy
	withUnbonding.Unbonding = []model.Unbonding{{Validator: "a", Amount: sdkmath.NewInt(1)}}
	writeLegacy(withUnbonding)
	_, err := s.hub.Migrate(s.ctx, s.env(owner))
	require.ErrorIs(t, err, ErrMigrationFailed)

	writeLegacy(legacy)
	_, err = s.hub.Migrate(s.ctx, s.env(owner))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 100}, s.bonded())
	requireInt(t, 100, s.supply().TotalBonded)
	s.checkInvariants()

	resp, err := s.hub.Migrate(s.ctx, s.env(owner))
	require.NoError(t, err)
	from, _ := resp.Attribute("from_version")
	assert.Equal(t, "2", from)
}
