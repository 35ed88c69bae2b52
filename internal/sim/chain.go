// Package sim is an in-memory staking chain that executes the instructions
// emitted by the hub. It backs end-to-end tests and dry runs.
package sim

import (
	"context"
	"sort"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/pkg/errors"

	"lsdHub/internal/model"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type pendingUnbond struct {
	completes uint64
	amount    sdkmath.Int
}

// Chain tracks native balances, share balances and the hub's delegations.
type Chain struct {
	mu sync.Mutex

	denom         string
	hub           string
	unbondingTime uint64
	now           uint64

	balances    map[string]sdkmath.Int
	shares      map[string]sdkmath.Int
	delegations map[string]sdkmath.Int
	rewards     map[string]sdkmath.Int
	failing     map[string]bool
	unbonding   []pendingUnbond
}

func New(denom, hub string, unbondingTime, now uint64) *Chain {
	return &Chain{
		denom:         denom,
		hub:           hub,
		unbondingTime: unbondingTime,
		now:           now,
		balances:      make(map[string]sdkmath.Int),
		shares:        make(map[string]sdkmath.Int),
		delegations:   make(map[string]sdkmath.Int),
		rewards:       make(map[string]sdkmath.Int),
		failing:       make(map[string]bool),
	}
}

func (c *Chain) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward and completes matured undelegations.
func (c *Chain) Advance(seconds uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
	kept := c.unbonding[:0]
	for _, u := range c.unbonding {
		if u.completes <= c.now {
			c.credit(c.balances, c.hub, u.amount)
			continue
		}
		kept = append(kept, u)
	}
	c.unbonding = kept
	return c.now
}

func (c *Chain) Fund(addr string, amount sdkmath.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit(c.balances, addr, amount)
}

// Deposit moves funds from addr to the hub and returns the coins to attach to Bond.
func (c *Chain) Deposit(addr string, amount sdkmath.Int) ([]model.Coin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.debit(c.balances, addr, amount); err != nil {
		return nil, err
	}
	c.credit(c.balances, c.hub, amount)
	return []model.Coin{{Denom: c.denom, Amount: amount}}, nil
}

// SendShares moves shares from holder to the hub ahead of the receive hook.
func (c *Chain) SendShares(holder string, amount sdkmath.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.debit(c.shares, holder, amount); err != nil {
		return err
	}
	c.credit(c.shares, c.hub, amount)
	return nil
}

func (c *Chain) AddRewards(validator string, amount sdkmath.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit(c.rewards, validator, amount)
}

// Slash burns fraction of the hub's delegation to validator.
func (c *Chain) Slash(validator string, fraction sdkmath.LegacyDec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := amountOf(c.delegations, validator)
	c.delegations[validator] = sdkmath.LegacyOneDec().Sub(fraction).MulInt(current).TruncateInt()
}

// FailWithdrawals makes reward withdrawals from validator fail.
func (c *Chain) FailWithdrawals(validator string, fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[validator] = fail
}

func (c *Chain) Balance(addr string) sdkmath.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return amountOf(c.balances, addr)
}

func (c *Chain) Shares(addr string) sdkmath.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return amountOf(c.shares, addr)
}

// Delegations returns the hub's delegations sorted by validator.
func (c *Chain) Delegations() []model.Bonded {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Bonded, 0, len(c.delegations))
	for v, amount := range c.delegations {
		if amount.IsPositive() {
			out = append(out, model.Bonded{Validator: v, Amount: amount})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Validator < out[j].Validator })
	return out
}

func (c *Chain) LiquidBalance(context.Context) (sdkmath.Int, error) {
	return c.Balance(c.hub), nil
}

func (c *Chain) DelegatedAmount(_ context.Context, validator string) (sdkmath.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return amountOf(c.delegations, validator), nil
}

// Dispatch executes msgs in order and returns the replies they requested.
// A failing withdrawal is reported through its reply; any other failure
// aborts the batch.
func (c *Chain) Dispatch(_ context.Context, msgs []model.Msg) ([]model.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var replies []model.Reply
	for _, msg := range msgs {
		err := c.apply(msg)
		if err != nil && msg.Kind != model.MsgWithdrawReward {
			return replies, errors.Wrapf(err, "execute %s", msg)
		}
		switch {
		case msg.ReplyOn == model.ReplyAlways:
			replies = append(replies, reply(msg.ReplyID, err))
		case msg.ReplyOn == model.ReplyOnError && err != nil:
			replies = append(replies, reply(msg.ReplyID, err))
		}
	}
	return replies, nil
}

func (c *Chain) apply(msg model.Msg) error {
	switch msg.Kind {
	case model.MsgDelegate:
		if err := c.debit(c.balances, c.hub, msg.Amount); err != nil {
			return err
		}
		c.credit(c.delegations, msg.Validator, msg.Amount)
	case model.MsgUndelegate:
		if err := c.debit(c.delegations, msg.Validator, msg.Amount); err != nil {
			return err
		}
		c.unbonding = append(c.unbonding, pendingUnbond{completes: c.now + c.unbondingTime, amount: msg.Amount})
	case model.MsgRedelegate:
		if err := c.debit(c.delegations, msg.Validator, msg.Amount); err != nil {
			return err
		}
		c.credit(c.delegations, msg.DstValidator, msg.Amount)
	case model.MsgWithdrawReward:
		if c.failing[msg.Validator] {
			return errors.Errorf("withdraw from %s failed", msg.Validator)
		}
		c.credit(c.balances, c.hub, amountOf(c.rewards, msg.Validator))
		delete(c.rewards, msg.Validator)
	case model.MsgSend:
		if err := c.debit(c.balances, c.hub, msg.Amount); err != nil {
			return err
		}
		c.credit(c.balances, msg.Recipient, msg.Amount)
	case model.MsgMint:
		c.credit(c.shares, msg.Recipient, msg.Amount)
	case model.MsgBurn:
		return c.debit(c.shares, c.hub, msg.Amount)
	default:
		return errors.Errorf("unknown msg kind %q", msg.Kind)
	}
	return nil
}

func (c *Chain) credit(book map[string]sdkmath.Int, addr string, amount sdkmath.Int) {
	book[addr] = amountOf(book, addr).Add(amount)
}

func (c *Chain) debit(book map[string]sdkmath.Int, addr string, amount sdkmath.Int) error {
	current := amountOf(book, addr)
	if current.LT(amount) {
		return errors.Wrapf(ErrInsufficientFunds, "%s has %s, needs %s", addr, current, amount)
	}
	book[addr] = current.Sub(amount)
	return nil
}

func amountOf(book map[string]sdkmath.Int, addr string) sdkmath.Int {
	if amount, ok := book[addr]; ok {
		return amount
	}
	return sdkmath.ZeroInt()
}

func reply(id uint64, err error) model.Reply {
	r := model.Reply{ID: id}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
