// Package splitter is a library contract that splits its token balance
// across a fixed set of receivers by ratio.
package splitter

import (
	"encoding/json"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/shopspring/decimal"

	"github.com/valence-protocol/valence-go/runtime"
	"github.com/valence-protocol/valence-go/state"
)

var (
	ErrRatiosDoNotSumToOne = errors.New("split ratios must sum to 1")
	ErrNothingToSplit      = errors.New("nothing to split")
	ErrNoReceivers         = errors.New("at least one receiver is required")
)

type InstantiateMsg struct {
	Splits []Split `json:"splits"`
}

type Split struct {
	Receiver string `json:"receiver"`
	// Decimal ratio of the balance, e.g. "0.25"
	Ratio string `json:"ratio"`
}

type ExecuteMsg struct {
	Split *SplitMsg `json:"split,omitempty"`
}

type SplitMsg struct {
	Denom string `json:"denom"`
}

type QueryMsg struct {
	Splits *SplitsQuery `json:"splits,omitempty"`
}

type SplitsQuery struct{}

var splitsItem = state.NewItem[[]Split]("splits")

type Contract struct{}

var _ runtime.Contract = (*Contract)(nil)

func New() *Contract {
	return &Contract{}
}

func (c *Contract) Instantiate(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) error {
	var init InstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return err
	}
	if len(init.Splits) == 0 {
		return ErrNoReceivers
	}
	total := decimal.Zero
	for _, split := range init.Splits {
		ratio, err := decimal.NewFromString(split.Ratio)
		if err != nil {
			return fmt.Errorf("invalid ratio %q: %w", split.Ratio, err)
		}
		if ratio.IsNegative() || ratio.IsZero() {
			return fmt.Errorf("ratio %q must be positive", split.Ratio)
		}
		total = total.Add(ratio)
	}
	if !total.Equal(decimal.New(1, 0)) {
		return fmt.Errorf("%w: got %s", ErrRatiosDoNotSumToOne, total)
	}
	return splitsItem.Save(deps.Store, init.Splits)
}

func (c *Contract) Execute(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) ([]byte, error) {
	var exec ExecuteMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return nil, err
	}
	if exec.Split != nil {
		return nil, c.split(deps, env, exec.Split.Denom)
	}
	return nil, errors.New("unknown execute message")
}

func (c *Contract) split(deps runtime.Deps, env runtime.Env, denom string) error {
	balance := deps.Bank.Balance(env.Contract, denom)
	if balance.IsZero() {
		return ErrNothingToSplit
	}
	splits, _, err := splitsItem.Load(deps.Store)
	if err != nil {
		return err
	}
	total := decimal.RequireFromString(balance.String())
	distributed := math.ZeroInt()
	for i, split := range splits {
		var amount math.Int
		if i == len(splits)-1 {
			// Last receiver takes the remainder, so rounding dust never
			// sticks to the contract.
			amount = balance.Sub(distributed)
		} else {
			ratio := decimal.RequireFromString(split.Ratio)
			part, ok := math.NewIntFromString(total.Mul(ratio).Floor().String())
			if !ok {
				return fmt.Errorf("split amount overflow for %s", split.Receiver)
			}
			amount = part
		}
		if amount.IsZero() {
			continue
		}
		coins := sdktypes.NewCoins(sdktypes.NewCoin(denom, amount))
		if err := deps.Bank.Send(env.Contract, split.Receiver, coins); err != nil {
			return err
		}
		distributed = distributed.Add(amount)
	}
	return nil
}

func (c *Contract) Query(deps runtime.Deps, env runtime.Env, msg []byte) ([]byte, error) {
	var query QueryMsg
	if err := json.Unmarshal(msg, &query); err != nil {
		return nil, err
	}
	if query.Splits != nil {
		splits, _, err := splitsItem.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		return json.Marshal(splits)
	}
	return nil, errors.New("unknown query message")
}
