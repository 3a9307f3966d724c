package chainio

import (
	"context"

	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/cosmos-sdk/client"

	"github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
	"github.com/valence-protocol/valence-go/cosmwasm-schema/processor"
)

// ProcessorClient executes and queries a deployed processor contract.
type ProcessorClient struct {
	clientCtx    client.Context
	ContractAddr string
	opts         BroadcastOptions
}

func NewProcessorClient(clientCtx client.Context, contractAddr string, opts BroadcastOptions) *ProcessorClient {
	return &ProcessorClient{
		clientCtx:    clientCtx,
		ContractAddr: contractAddr,
		opts:         opts.WithContractAddr(contractAddr),
	}
}

// Tick processes the next batch from the head of the high priority queue,
// falling back to the medium priority queue. Anyone can call it.
func (c *ProcessorClient) Tick(ctx context.Context) (*coretypes.ResultBroadcastTxCommit, error) {
	msg := processor.ExecuteMsg{
		PermissionlessAction: &processor.PermissionlessMsg{Tick: &processor.Tick{}},
	}

	return Execute(
		c.clientCtx,
		ctx,
		c.clientCtx.GetFromAddress().String(),
		c.opts.WithExecuteMsg(msg),
	)
}

func (c *ProcessorClient) Config(ctx context.Context) (processor.Config, error) {
	return Query[processor.Config](c.clientCtx, ctx, c.ContractAddr, processor.QueryMsg{
		Config: &processor.ConfigQuery{},
	})
}

func (c *ProcessorClient) GetQueue(ctx context.Context, from, to *uint64, priority authorization.Priority) ([]processor.MessageBatch, error) {
	return Query[[]processor.MessageBatch](c.clientCtx, ctx, c.ContractAddr, processor.QueryMsg{
		GetQueue: &processor.GetQueueQuery{From: from, To: to, Priority: priority},
	})
}
