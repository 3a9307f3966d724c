package chainio

import (
	"context"
	"encoding/json"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	cryptocodec "github.com/cosmos/cosmos-sdk/crypto/codec"
	"github.com/cosmos/cosmos-sdk/std"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/CosmWasm/wasmd/x/wasm"
)

// NewClientCtx creates a client.Context wired to the given CometBFT RPC
// endpoint. The context carries the wasm module codecs so that contract
// messages can be signed and broadcast without further setup.
func NewClientCtx(nodeURI string, chainID string) client.Context {
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	authtypes.RegisterInterfaces(interfaceRegistry)
	cryptocodec.RegisterInterfaces(interfaceRegistry)
	std.RegisterInterfaces(interfaceRegistry)
	module.NewBasicManager(wasm.AppModuleBasic{}).RegisterInterfaces(interfaceRegistry)

	marshaler := codec.NewProtoCodec(interfaceRegistry)
	txConfig := authtx.NewTxConfig(marshaler, authtx.DefaultSignModes)

	rpcClient, err := client.NewClientFromNode(nodeURI)
	if err != nil {
		panic(err)
	}

	return client.Context{}.
		WithChainID(chainID).
		WithOutputFormat("json").
		WithInterfaceRegistry(interfaceRegistry).
		WithTxConfig(txConfig).
		WithCodec(marshaler).
		WithAccountRetriever(authtypes.AccountRetriever{}).
		WithBroadcastMode(flags.BroadcastSync).
		WithClient(rpcClient)
}

func Query[Response interface{}](
	clientCtx client.Context, ctx context.Context, addr string, msg interface{},
) (Response, error) {
	var result Response
	queryClient := wasmtypes.NewQueryClient(clientCtx)

	queryBytes, err := json.Marshal(msg)
	if err != nil {
		return result, err
	}

	queryMsg := &wasmtypes.QuerySmartContractStateRequest{
		Address:   addr,
		QueryData: queryBytes,
	}

	response, err := queryClient.SmartContractState(ctx, queryMsg)
	if err != nil {
		return result, err
	}

	err = json.Unmarshal(response.Data, &result)
	return result, err
}

// Execute signs a MsgExecuteContract with the sender's key and broadcasts it,
// waiting for the transaction to be committed.
func Execute(
	clientCtx client.Context, ctx context.Context, sender string, opts BroadcastOptions,
) (*coretypes.ResultBroadcastTxCommit, error) {
	senderAddr, err := sdktypes.AccAddressFromBech32(sender)
	if err != nil {
		return nil, err
	}

	msg := &wasmtypes.MsgExecuteContract{
		Sender:   sender,
		Contract: opts.ContractAddr,
		Msg:      opts.ExecuteMsg,
		Funds:    opts.Funds,
	}

	txf := tx.Factory{}.
		WithChainID(clientCtx.ChainID).
		WithTxConfig(clientCtx.TxConfig).
		WithKeybase(clientCtx.Keyring).
		WithAccountRetriever(clientCtx.AccountRetriever).
		WithGas(opts.Gas).
		WithGasAdjustment(opts.GasAdjustment).
		WithGasPrices(opts.GasPrice.String()).
		WithSimulateAndExecute(opts.Simulate)

	txf, err = txf.Prepare(clientCtx.WithFromAddress(senderAddr))
	if err != nil {
		return nil, err
	}

	txBuilder, err := txf.BuildUnsignedTx(msg)
	if err != nil {
		return nil, err
	}

	if err := tx.Sign(ctx, txf, clientCtx.FromName, txBuilder, true); err != nil {
		return nil, err
	}

	txBytes, err := clientCtx.TxConfig.TxEncoder()(txBuilder.GetTx())
	if err != nil {
		return nil, err
	}

	node, err := clientCtx.GetNode()
	if err != nil {
		return nil, err
	}

	return node.BroadcastTxCommit(ctx, txBytes)
}
