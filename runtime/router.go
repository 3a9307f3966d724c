package runtime

import (
	"errors"
	"fmt"
	"time"

	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/valence-protocol/valence-go/bank"
	"github.com/valence-protocol/valence-go/logger"
	"github.com/valence-protocol/valence-go/state"
)

var ErrUnknownContract = errors.New("unknown contract")

// Router owns the shared store and dispatches synchronous calls between
// registered contracts. Every top-level entry point runs on a branch that is
// committed only on success, matching the transactional semantics of the
// host runtime.
type Router struct {
	root      *state.MemStore
	contracts map[string]Contract
	block     BlockInfo
	log       logger.Logger
}

func NewRouter(log logger.Logger) *Router {
	return &Router{
		root:      state.NewMemStore(),
		contracts: make(map[string]Contract),
		block:     BlockInfo{Height: 1, Time: time.Unix(1, 0)},
		log:       log,
	}
}

func (r *Router) Block() BlockInfo {
	return r.block
}

func (r *Router) SetBlock(block BlockInfo) {
	r.block = block
}

// AdvanceBlock moves the chain forward one height and the given duration.
func (r *Router) AdvanceBlock(d time.Duration) {
	r.block.Height++
	r.block.Time = r.block.Time.Add(d)
}

// Instantiate registers the contract under addr and runs its Instantiate
// entry point transactionally.
func (r *Router) Instantiate(addr string, contract Contract, sender string, msg []byte, funds sdktypes.Coins) error {
	r.contracts[addr] = contract
	branch := r.root.Branch()
	d := &txDispatcher{router: r, store: branch}
	if err := d.instantiate(sender, addr, msg, funds); err != nil {
		delete(r.contracts, addr)
		return err
	}
	branch.Commit()
	return nil
}

// Execute runs the target contract's Execute entry point transactionally.
func (r *Router) Execute(sender, target string, msg []byte, funds sdktypes.Coins) ([]byte, error) {
	branch := r.root.Branch()
	d := &txDispatcher{router: r, store: branch}
	resp, err := d.Execute(sender, target, msg, funds)
	if err != nil {
		return nil, err
	}
	branch.Commit()
	return resp, nil
}

// Sudo runs a privileged host callback on the target contract.
func (r *Router) Sudo(target string, msg []byte) error {
	contract, ok := r.contracts[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContract, target)
	}
	handler, ok := contract.(SudoHandler)
	if !ok {
		return fmt.Errorf("contract %s has no sudo entry point", target)
	}
	branch := r.root.Branch()
	d := &txDispatcher{router: r, store: branch}
	if err := handler.Sudo(d.deps(target), r.env(target), msg); err != nil {
		return err
	}
	branch.Commit()
	return nil
}

// Query runs the target contract's Query entry point against committed
// state.
func (r *Router) Query(target string, msg []byte) ([]byte, error) {
	contract, ok := r.contracts[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, target)
	}
	d := &txDispatcher{router: r, store: r.root.Branch()}
	return contract.Query(d.deps(target), r.env(target), msg)
}

// BankKeeper exposes the committed bank state, for seeding balances and
// assertions.
func (r *Router) BankKeeper() bank.Keeper {
	return bank.NewStoreKeeper(state.NewPrefixStore(r.root, "bank/"))
}

func (r *Router) env(addr string) Env {
	return Env{Block: r.block, Contract: addr}
}

// txDispatcher binds dispatch to one store branch.
type txDispatcher struct {
	router *Router
	store  *state.MemStore
}

var _ Dispatcher = (*txDispatcher)(nil)

func (d *txDispatcher) deps(addr string) Deps {
	return Deps{
		Store:  state.NewPrefixStore(d.store, "wasm/"+addr+"/"),
		Bank:   bank.NewStoreKeeper(state.NewPrefixStore(d.store, "bank/")),
		Router: d,
	}
}

func (d *txDispatcher) instantiate(sender, target string, msg []byte, funds sdktypes.Coins) error {
	contract, ok := d.router.contracts[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContract, target)
	}
	branch := d.store.Branch()
	sub := &txDispatcher{router: d.router, store: branch}
	if !funds.IsZero() {
		if err := sub.deps(target).Bank.Send(sender, target, funds); err != nil {
			return err
		}
	}
	if err := contract.Instantiate(sub.deps(target), d.router.env(target), MessageInfo{Sender: sender, Funds: funds}, msg); err != nil {
		return err
	}
	branch.Commit()
	return nil
}

func (d *txDispatcher) Execute(sender, target string, msg []byte, funds sdktypes.Coins) ([]byte, error) {
	contract, ok := d.router.contracts[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, target)
	}
	branch := d.store.Branch()
	sub := &txDispatcher{router: d.router, store: branch}
	if !funds.IsZero() {
		if err := sub.deps(target).Bank.Send(sender, target, funds); err != nil {
			return nil, err
		}
	}
	resp, err := contract.Execute(sub.deps(target), d.router.env(target), MessageInfo{Sender: sender, Funds: funds}, msg)
	if err != nil {
		return nil, err
	}
	branch.Commit()
	return resp, nil
}

func (d *txDispatcher) Transactional(fn func(tx Dispatcher) error) error {
	branch := d.store.Branch()
	sub := &txDispatcher{router: d.router, store: branch}
	if err := fn(sub); err != nil {
		return err
	}
	branch.Commit()
	return nil
}
