package chainio

import (
	"encoding/json"

	sdktypes "github.com/cosmos/cosmos-sdk/types"
)

// BroadcastOptions carries everything Execute needs to build a
// MsgExecuteContract beyond the signing context itself.
type BroadcastOptions struct {
	ContractAddr string
	// JSON-encoded execute message
	ExecuteMsg []byte
	// Coins attached to the call, e.g. a permission token on a call
	// limited send
	Funds         sdktypes.Coins
	GasAdjustment float64
	GasPrice      sdktypes.DecCoin
	// Gas limit used as-is when Simulate is false; otherwise the simulated
	// estimate scaled by GasAdjustment wins
	Gas      uint64
	Simulate bool
}

func DefaultBroadcastOptions() BroadcastOptions {
	return BroadcastOptions{
		Funds:         sdktypes.Coins{},
		GasAdjustment: 1.2,
		GasPrice:      sdktypes.NewInt64DecCoin("untrn", 2500),
		Gas:           200_000,
		Simulate:      true,
	}
}

func (opts BroadcastOptions) WithContractAddr(contractAddr string) BroadcastOptions {
	opts.ContractAddr = contractAddr
	return opts
}

func (opts BroadcastOptions) WithExecuteMsg(executeMsg any) BroadcastOptions {
	executeMsgBytes, err := json.Marshal(executeMsg)
	if err != nil {
		panic(err)
	}

	opts.ExecuteMsg = executeMsgBytes
	return opts
}

func (opts BroadcastOptions) WithFunds(funds string) BroadcastOptions {
	coinFunds, err := sdktypes.ParseCoinsNormalized(funds)
	if err != nil {
		panic(err)
	}

	opts.Funds = coinFunds
	return opts
}

func (opts BroadcastOptions) WithGasAdjustment(gasAdjustment float64) BroadcastOptions {
	opts.GasAdjustment = gasAdjustment
	return opts
}

func (opts BroadcastOptions) WithGasPrice(gasPrice string) BroadcastOptions {
	coin, err := sdktypes.ParseDecCoin(gasPrice)
	if err != nil {
		panic(err)
	}
	opts.GasPrice = coin
	return opts
}

func (opts BroadcastOptions) WithGas(gas uint64) BroadcastOptions {
	opts.Gas = gas
	return opts
}

func (opts BroadcastOptions) WithSimulate(simulate bool) BroadcastOptions {
	opts.Simulate = simulate
	return opts
}
