package bank

import (
	"fmt"

	"cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/valence-protocol/valence-go/state"
)

// StoreKeeper persists balances in a state store, so its writes follow the
// transactional semantics of the store branch it is bound to.
type StoreKeeper struct {
	store state.Store
}

var _ Keeper = (*StoreKeeper)(nil)

func NewStoreKeeper(store state.Store) *StoreKeeper {
	return &StoreKeeper{store: store}
}

func (k *StoreKeeper) key(addr, denom string) []byte {
	return []byte(fmt.Sprintf("balances/%s/%s", addr, denom))
}

func (k *StoreKeeper) Balance(addr, denom string) math.Int {
	raw := k.store.Get(k.key(addr, denom))
	if raw == nil {
		return math.ZeroInt()
	}
	amount, ok := math.NewIntFromString(string(raw))
	if !ok {
		return math.ZeroInt()
	}
	return amount
}

func (k *StoreKeeper) setBalance(addr, denom string, amount math.Int) {
	if amount.IsZero() {
		k.store.Delete(k.key(addr, denom))
		return
	}
	k.store.Set(k.key(addr, denom), []byte(amount.String()))
}

func (k *StoreKeeper) Send(from, to string, amount sdktypes.Coins) error {
	for _, coin := range amount {
		balance := k.Balance(from, coin.Denom)
		if balance.LT(coin.Amount) {
			return fmt.Errorf("%w: %s spends %s", ErrInsufficientFunds, from, coin)
		}
		k.setBalance(from, coin.Denom, balance.Sub(coin.Amount))
		k.setBalance(to, coin.Denom, k.Balance(to, coin.Denom).Add(coin.Amount))
	}
	return nil
}

func (k *StoreKeeper) Mint(to string, amount sdktypes.Coins) error {
	for _, coin := range amount {
		k.setBalance(to, coin.Denom, k.Balance(to, coin.Denom).Add(coin.Amount))
	}
	return nil
}

func (k *StoreKeeper) Burn(from string, amount sdktypes.Coins) error {
	for _, coin := range amount {
		balance := k.Balance(from, coin.Denom)
		if balance.LT(coin.Amount) {
			return fmt.Errorf("%w: %s burns %s", ErrInsufficientFunds, from, coin)
		}
		k.setBalance(from, coin.Denom, balance.Sub(coin.Amount))
	}
	return nil
}
