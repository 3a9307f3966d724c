// Package runtime is the in-process host the contracts run against. It
// mirrors the entry-point ABI a CosmWasm contract is bound to: a contract is
// a handler invoked with its environment, the caller info, and dependencies
// scoped to the current transaction.
package runtime

import (
	"time"

	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/valence-protocol/valence-go/bank"
	"github.com/valence-protocol/valence-go/state"
)

type BlockInfo struct {
	Height uint64
	Time   time.Time
}

type Env struct {
	Block BlockInfo
	// Address of the contract being invoked
	Contract string
}

type MessageInfo struct {
	Sender string
	Funds  sdktypes.Coins
}

// Deps carries the host handles scoped to the current transaction: writes to
// Store and Bank are discarded if the transaction fails.
type Deps struct {
	Store  state.Store
	Bank   bank.Keeper
	Router Dispatcher
}

// Dispatcher lets a contract invoke another contract synchronously.
type Dispatcher interface {
	// Execute invokes the target contract within the current transaction.
	Execute(sender, target string, msg []byte, funds sdktypes.Coins) ([]byte, error)
	// Transactional runs fn against a branched transaction, committing its
	// effects only when fn returns nil.
	Transactional(fn func(tx Dispatcher) error) error
}

type Contract interface {
	Instantiate(deps Deps, env Env, info MessageInfo, msg []byte) error
	Execute(deps Deps, env Env, info MessageInfo, msg []byte) ([]byte, error)
	Query(deps Deps, env Env, msg []byte) ([]byte, error)
}

// SudoHandler is implemented by contracts that accept privileged host
// callbacks (IBC/ICA lifecycle events).
type SudoHandler interface {
	Sudo(deps Deps, env Env, msg []byte) error
}
