package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

// DefaultStakingPrecompile is the address of the staking precompile on
// Cosmos EVM chains.
const DefaultStakingPrecompile = "0x0000000000000000000000000000000000000800"

const stakingDelegationABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "delegatorAddress", "type": "address"}, {"internalType": "string", "name": "validatorAddress", "type": "string"}], "name": "delegation", "outputs": [{"internalType": "uint256", "name": "shares", "type": "uint256"}, {"components": [{"internalType": "string", "name": "denom", "type": "string"}, {"internalType": "uint256", "name": "amount", "type": "uint256"}], "internalType": "struct Coin", "name": "balance", "type": "tuple"}], "stateMutability": "view", "type": "function"}
]`

var (
	stakingABI     abi.ABI
	stakingABIOnce sync.Once
	stakingABIErr  error
)

func getStakingABI() (abi.ABI, error) {
	stakingABIOnce.Do(func() {
		stakingABI, stakingABIErr = abi.JSON(strings.NewReader(stakingDelegationABIJSON))
	})
	return stakingABI, stakingABIErr
}

// precompileCoin mirrors the Coin tuple returned by the precompile.
type precompileCoin struct {
	Denom  string
	Amount *big.Int
}

// Backend is the subset of Client used by StakingQuerier.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// StakingQuerier reads the hub account's liquid balance and delegations.
type StakingQuerier struct {
	backend    Backend
	hub        common.Address
	precompile common.Address
	denom      string
	limiter    *rate.Limiter
}

// NewStakingQuerier validates the addresses and builds a querier for hub.
func NewStakingQuerier(backend Backend, hub, precompile, denom string) (*StakingQuerier, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	if !common.IsHexAddress(hub) {
		return nil, fmt.Errorf("invalid hub address %q", hub)
	}
	if precompile == "" {
		precompile = DefaultStakingPrecompile
	}
	if !common.IsHexAddress(precompile) {
		return nil, fmt.Errorf("invalid staking precompile address %q", precompile)
	}
	return &StakingQuerier{
		backend:    backend,
		hub:        common.HexToAddress(hub),
		precompile: common.HexToAddress(precompile),
		denom:      denom,
	}, nil
}

// WithRateLimit caps the RPC calls issued by the querier to perSecond with
// the given burst.
func (q *StakingQuerier) WithRateLimit(perSecond float64, burst int) *StakingQuerier {
	if burst < 1 {
		burst = 1
	}
	q.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return q
}

func (q *StakingQuerier) wait(ctx context.Context) error {
	if q.limiter == nil {
		return nil
	}
	if err := q.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rpc rate limit: %w", err)
	}
	return nil
}

// LiquidBalance returns the hub's native balance at the latest block.
func (q *StakingQuerier) LiquidBalance(ctx context.Context) (sdkmath.Int, error) {
	if err := q.wait(ctx); err != nil {
		return sdkmath.ZeroInt(), err
	}
	bal, err := q.backend.BalanceAt(ctx, q.hub, nil)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("balance of %s: %w", q.hub.Hex(), err)
	}
	return sdkmath.NewIntFromBigInt(bal), nil
}

// DelegatedAmount returns the tokens the hub has delegated to validator.
func (q *StakingQuerier) DelegatedAmount(ctx context.Context, validator string) (sdkmath.Int, error) {
	stakingABI, err := getStakingABI()
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	data, err := stakingABI.Pack("delegation", q.hub, validator)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("pack delegation: %w", err)
	}

	if err := q.wait(ctx); err != nil {
		return sdkmath.ZeroInt(), err
	}
	msg := ethereum.CallMsg{To: &q.precompile, Data: data}
	resp, err := q.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("call delegation: %w", err)
	}

	values, err := stakingABI.Unpack("delegation", resp)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("unpack delegation: %w", err)
	}
	if len(values) != 2 {
		return sdkmath.ZeroInt(), fmt.Errorf("delegation return size %d", len(values))
	}
	coin, ok := abi.ConvertType(values[1], new(precompileCoin)).(*precompileCoin)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("delegation unexpected type %T", values[1])
	}
	if q.denom != "" && coin.Denom != "" && coin.Denom != q.denom {
		return sdkmath.ZeroInt(), fmt.Errorf("delegation denom %s, expected %s", coin.Denom, q.denom)
	}
	if coin.Amount == nil {
		return sdkmath.ZeroInt(), nil
	}
	return sdkmath.NewIntFromBigInt(coin.Amount), nil
}
