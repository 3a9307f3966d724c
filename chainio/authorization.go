package chainio

import (
	"context"

	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cosmos/cosmos-sdk/client"

	"github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
)

// AuthorizationClient executes and queries a deployed authorization contract.
type AuthorizationClient struct {
	clientCtx    client.Context
	ContractAddr string
	opts         BroadcastOptions
}

func NewAuthorizationClient(clientCtx client.Context, contractAddr string, opts BroadcastOptions) *AuthorizationClient {
	return &AuthorizationClient{
		clientCtx:    clientCtx,
		ContractAddr: contractAddr,
		opts:         opts.WithContractAddr(contractAddr),
	}
}

func (c *AuthorizationClient) execute(ctx context.Context, msg authorization.ExecuteMsg) (*coretypes.ResultBroadcastTxCommit, error) {
	return Execute(
		c.clientCtx,
		ctx,
		c.clientCtx.GetFromAddress().String(),
		c.opts.WithExecuteMsg(msg),
	)
}

func (c *AuthorizationClient) CreateAuthorizations(ctx context.Context, infos []authorization.AuthorizationInfo) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{
		CreateAuthorizations: &authorization.CreateAuthorizations{Authorizations: infos},
	})
}

func (c *AuthorizationClient) ModifyAuthorization(ctx context.Context, msg authorization.ModifyAuthorization) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{ModifyAuthorization: &msg})
}

func (c *AuthorizationClient) DisableAuthorization(ctx context.Context, label string) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{
		DisableAuthorization: &authorization.DisableAuthorization{Label: label},
	})
}

func (c *AuthorizationClient) EnableAuthorization(ctx context.Context, label string) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{
		EnableAuthorization: &authorization.EnableAuthorization{Label: label},
	})
}

// SendMsgs submits messages under the given authorization label. For call
// limited permissioned labels the caller must attach exactly one permission
// token via funds on the broadcast options.
func (c *AuthorizationClient) SendMsgs(ctx context.Context, label string, messages []authorization.ProcessorMessage, ttl *uint64) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{
		SendMsgs: &authorization.SendMsgs{Label: label, Messages: messages, TTL: ttl},
	})
}

func (c *AuthorizationClient) InsertMsgs(ctx context.Context, msg authorization.InsertMsgs) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{InsertMsgs: &msg})
}

func (c *AuthorizationClient) EvictMsgs(ctx context.Context, msg authorization.EvictMsgs) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{EvictMsgs: &msg})
}

func (c *AuthorizationClient) PauseProcessor(ctx context.Context, domain authorization.Domain) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{
		PauseProcessor: &authorization.PauseProcessor{Domain: domain},
	})
}

func (c *AuthorizationClient) ResumeProcessor(ctx context.Context, domain authorization.Domain) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{
		ResumeProcessor: &authorization.ResumeProcessor{Domain: domain},
	})
}

func (c *AuthorizationClient) TransferOwnership(ctx context.Context, newOwner string, expiry *uint64) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{
		TransferOwnership: &authorization.TransferOwnership{NewOwner: newOwner, Expiry: expiry},
	})
}

func (c *AuthorizationClient) AcceptOwnership(ctx context.Context) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.execute(ctx, authorization.ExecuteMsg{
		AcceptOwnership: &authorization.AcceptOwnership{},
	})
}

func (c *AuthorizationClient) Ownership(ctx context.Context) (authorization.OwnershipResponse, error) {
	return Query[authorization.OwnershipResponse](c.clientCtx, ctx, c.ContractAddr, authorization.QueryMsg{
		Ownership: &authorization.OwnershipQuery{},
	})
}

func (c *AuthorizationClient) Authorizations(ctx context.Context, startAfter *string, limit *uint32) ([]authorization.Authorization, error) {
	return Query[[]authorization.Authorization](c.clientCtx, ctx, c.ContractAddr, authorization.QueryMsg{
		Authorizations: &authorization.AuthorizationsQuery{StartAfter: startAfter, Limit: limit},
	})
}

func (c *AuthorizationClient) ProcessorCallbacks(ctx context.Context, startAfter *uint64, limit *uint32) ([]authorization.ProcessorCallbackInfo, error) {
	return Query[[]authorization.ProcessorCallbackInfo](c.clientCtx, ctx, c.ContractAddr, authorization.QueryMsg{
		ProcessorCallbacks: &authorization.ProcessorCallbacksQuery{StartAfter: startAfter, Limit: limit},
	})
}

func (c *AuthorizationClient) Callback(ctx context.Context, executionID uint64) (authorization.ProcessorCallbackInfo, error) {
	return Query[authorization.ProcessorCallbackInfo](c.clientCtx, ctx, c.ContractAddr, authorization.QueryMsg{
		Callback: &authorization.CallbackQuery{ExecutionID: executionID},
	})
}

func (c *AuthorizationClient) ExternalDomains(ctx context.Context) ([]authorization.ExternalDomain, error) {
	return Query[[]authorization.ExternalDomain](c.clientCtx, ctx, c.ContractAddr, authorization.QueryMsg{
		ExternalDomains: &authorization.ExternalDomainsQuery{},
	})
}
