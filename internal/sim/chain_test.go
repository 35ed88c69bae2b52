package sim

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsdHub/internal/model"
)

func TestDispatchRepliesAndUnbonding(t *testing.T) {
	ctx := context.Background()
	chain := New("ufun", "hub", 100, 0)
	chain.Fund("hub", sdkmath.NewInt(1000))
	chain.AddRewards("v1", sdkmath.NewInt(7))
	chain.FailWithdrawals("v2", true)

	replies, err := chain.Dispatch(ctx, []model.Msg{
		model.Delegate("v1", sdkmath.NewInt(600)),
		model.WithdrawReward("v2", model.ReplyOnError, model.ReplyWithdrawIntermittent),
		model.WithdrawReward("v1", model.ReplyAlways, model.ReplyWithdrawComplete),
		model.Undelegate("v1", sdkmath.NewInt(100)),
	})
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, model.ReplyWithdrawIntermittent, replies[0].ID)
	assert.NotEmpty(t, replies[0].Error)
	assert.Equal(t, model.ReplyWithdrawComplete, replies[1].ID)
	assert.Empty(t, replies[1].Error)

	balance, err := chain.LiquidBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Equal(sdkmath.NewInt(407)), balance.String())

	chain.Advance(100)
	assert.True(t, chain.Balance("hub").Equal(sdkmath.NewInt(507)))

	delegated, err := chain.DelegatedAmount(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, delegated.Equal(sdkmath.NewInt(500)))
}

func TestDispatchFailsOnInsufficientFunds(t *testing.T) {
	chain := New("ufun", "hub", 100, 0)
	_, err := chain.Dispatch(context.Background(), []model.Msg{model.Send("alice", "ufun", sdkmath.NewInt(1))})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSlash(t *testing.T) {
	chain := New("ufun", "hub", 100, 0)
	chain.Fund("hub", sdkmath.NewInt(1_000_000))
	_, err := chain.Dispatch(context.Background(), []model.Msg{model.Delegate("v1", sdkmath.NewInt(1_000_000))})
	require.NoError(t, err)

	chain.Slash("v1", sdkmath.LegacyNewDecWithPrec(1, 3))
	assert.Equal(t, []model.Bonded{{Validator: "v1", Amount: sdkmath.NewInt(999_000)}}, chain.Delegations())
}
