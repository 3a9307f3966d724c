package bank

import (
	"testing"

	"cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valence-protocol/valence-go/state"
)

func coins(amount int64, denom string) sdktypes.Coins {
	return sdktypes.NewCoins(sdktypes.NewInt64Coin(denom, amount))
}

func TestMemKeeper(t *testing.T) {
	k := NewMemKeeper()

	require.NoError(t, k.Mint("alice", coins(100, "untrn")))
	assert.Equal(t, math.NewInt(100), k.Balance("alice", "untrn"))

	require.NoError(t, k.Send("alice", "bob", coins(40, "untrn")))
	assert.Equal(t, math.NewInt(60), k.Balance("alice", "untrn"))
	assert.Equal(t, math.NewInt(40), k.Balance("bob", "untrn"))

	err := k.Send("alice", "bob", coins(100, "untrn"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, k.Burn("bob", coins(40, "untrn")))
	assert.True(t, k.Balance("bob", "untrn").IsZero())

	err = k.Burn("bob", coins(1, "untrn"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestStoreKeeperTransactional(t *testing.T) {
	root := state.NewMemStore()
	k := NewStoreKeeper(root)

	require.NoError(t, k.Mint("alice", coins(100, "untrn")))

	// Writes on a branch are invisible until commit.
	branch := root.Branch()
	bk := NewStoreKeeper(branch)
	require.NoError(t, bk.Send("alice", "bob", coins(30, "untrn")))
	assert.Equal(t, math.NewInt(100), k.Balance("alice", "untrn"))

	branch.Commit()
	assert.Equal(t, math.NewInt(70), k.Balance("alice", "untrn"))
	assert.Equal(t, math.NewInt(30), k.Balance("bob", "untrn"))
}

func TestMustPay(t *testing.T) {
	amount, err := MustPay(coins(1, "factory/auth/swap"), "factory/auth/swap")
	require.NoError(t, err)
	assert.Equal(t, math.OneInt(), amount)

	_, err = MustPay(sdktypes.Coins{}, "factory/auth/swap")
	assert.ErrorIs(t, err, ErrNoFunds)

	_, err = MustPay(coins(1, "untrn"), "factory/auth/swap")
	assert.ErrorIs(t, err, ErrMissingDenom)

	two := sdktypes.NewCoins(
		sdktypes.NewInt64Coin("untrn", 1),
		sdktypes.NewInt64Coin("factory/auth/swap", 1),
	)
	_, err = MustPay(two, "factory/auth/swap")
	assert.ErrorIs(t, err, ErrExtraDenoms)
}
