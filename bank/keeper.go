// Package bank models the host bank module the contracts lean on for
// permission-token accounting: balances live here, never in contract state.
package bank

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoFunds           = errors.New("no funds sent")
	ErrExtraDenoms       = errors.New("more than one denom sent")
	ErrMissingDenom      = errors.New("must send the reserved denom")
)

type Keeper interface {
	Balance(addr, denom string) math.Int
	Send(from, to string, amount sdktypes.Coins) error
	Mint(to string, amount sdktypes.Coins) error
	Burn(from string, amount sdktypes.Coins) error
}

// MemKeeper is an in-memory Keeper for in-process execution and tests.
type MemKeeper struct {
	balances map[string]sdktypes.Coins
}

var _ Keeper = (*MemKeeper)(nil)

func NewMemKeeper() *MemKeeper {
	return &MemKeeper{balances: make(map[string]sdktypes.Coins)}
}

func (k *MemKeeper) Balance(addr, denom string) math.Int {
	return k.balances[addr].AmountOf(denom)
}

func (k *MemKeeper) Send(from, to string, amount sdktypes.Coins) error {
	remaining, neg := k.balances[from].SafeSub(amount...)
	if neg {
		return fmt.Errorf("%w: %s spends %s", ErrInsufficientFunds, from, amount)
	}
	k.balances[from] = remaining
	k.balances[to] = k.balances[to].Add(amount...)
	return nil
}

func (k *MemKeeper) Mint(to string, amount sdktypes.Coins) error {
	k.balances[to] = k.balances[to].Add(amount...)
	return nil
}

func (k *MemKeeper) Burn(from string, amount sdktypes.Coins) error {
	remaining, neg := k.balances[from].SafeSub(amount...)
	if neg {
		return fmt.Errorf("%w: %s burns %s", ErrInsufficientFunds, from, amount)
	}
	k.balances[from] = remaining
	return nil
}

// MustPay returns the amount of denom attached to a call, requiring the
// funds to consist of that denom alone.
func MustPay(funds sdktypes.Coins, denom string) (math.Int, error) {
	switch {
	case funds.IsZero():
		return math.ZeroInt(), ErrNoFunds
	case len(funds) > 1:
		return math.ZeroInt(), ErrExtraDenoms
	case funds[0].Denom != denom:
		return math.ZeroInt(), fmt.Errorf("%w: %s", ErrMissingDenom, denom)
	}
	return funds[0].Amount, nil
}
