// Package authorization implements the authorization contract: the registry
// of named authorizations, the gate every message batch passes before it
// reaches a processor, and the sink for processor callbacks.
package authorization

import (
	"encoding/json"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"

	authschema "github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
	procschema "github.com/valence-protocol/valence-go/cosmwasm-schema/processor"
	"github.com/valence-protocol/valence-go/logger"
	"github.com/valence-protocol/valence-go/runtime"
	"github.com/valence-protocol/valence-go/state"
)

const (
	defaultQueryLimit              = 25
	defaultMaxConcurrentExecutions = 1
)

type config struct {
	Owner        string        `json:"owner"`
	PendingOwner *pendingOwner `json:"pending_owner,omitempty"`
	Processor    string        `json:"processor"`
}

type pendingOwner struct {
	Address string  `json:"address"`
	Expiry  *uint64 `json:"expiry,omitempty"`
}

// pendingExecution correlates an in-flight batch with the bookkeeping needed
// when its callback arrives. Write-once, removed when the batch retires.
type pendingExecution struct {
	Label     string                        `json:"label"`
	Caller    string                        `json:"caller"`
	Domain    authschema.Domain             `json:"domain"`
	Messages  []authschema.ProcessorMessage `json:"messages"`
	TokenPaid bool                          `json:"token_paid"`
}

var (
	configItem           = state.NewItem[config]("config")
	authorizationsMap    = state.NewMap[authschema.Authorization]("authorizations")
	externalDomainsMap   = state.NewMap[authschema.ExternalDomain]("external_domains")
	executionIDItem      = state.NewItem[uint64]("execution_id")
	pendingExecutionsMap = state.NewMap[pendingExecution]("pending_executions")
	callbackInfoMap      = state.NewMap[authschema.ProcessorCallbackInfo]("processor_callbacks")
	currentExecutionsMap = state.NewMap[uint64]("current_executions")
)

// executionKey pads ids so lexicographic store order matches numeric order.
func executionKey(id uint64) string {
	return fmt.Sprintf("%020d", id)
}

type Contract struct {
	log logger.Logger
}

var _ runtime.Contract = (*Contract)(nil)

func New(log logger.Logger) *Contract {
	return &Contract{log: log}
}

func (c *Contract) Instantiate(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) error {
	init, err := authschema.UnmarshalInstantiateMsg(msg)
	if err != nil {
		return err
	}
	if init.Owner == "" {
		return errors.New("owner cannot be empty")
	}
	for _, domain := range init.ExternalDomains {
		if externalDomainsMap.Has(deps.Store, domain.Name) {
			return fmt.Errorf("duplicate external domain %q", domain.Name)
		}
		if err := externalDomainsMap.Save(deps.Store, domain.Name, domain); err != nil {
			return err
		}
	}
	return configItem.Save(deps.Store, config{Owner: init.Owner, Processor: init.Processor})
}

func (c *Contract) Execute(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) ([]byte, error) {
	exec, err := authschema.UnmarshalExecuteMsg(msg)
	if err != nil {
		return nil, err
	}
	cfg, _, err := configItem.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	switch {
	case exec.CreateAuthorizations != nil:
		return nil, c.createAuthorizations(deps, env, info, cfg, exec.CreateAuthorizations.Authorizations)
	case exec.ModifyAuthorization != nil:
		return nil, c.modifyAuthorization(deps, info, cfg, exec.ModifyAuthorization)
	case exec.DisableAuthorization != nil:
		return nil, c.setAuthorizationState(deps, info, cfg, exec.DisableAuthorization.Label, authschema.StateDisabled)
	case exec.EnableAuthorization != nil:
		return nil, c.setAuthorizationState(deps, info, cfg, exec.EnableAuthorization.Label, authschema.StateEnabled)
	case exec.SendMsgs != nil:
		return nil, c.sendMsgs(deps, env, info, cfg, exec.SendMsgs)
	case exec.InsertMsgs != nil:
		return nil, c.insertMsgs(deps, env, info, cfg, exec.InsertMsgs)
	case exec.EvictMsgs != nil:
		return nil, c.evictMsgs(deps, env, info, cfg, exec.EvictMsgs)
	case exec.PauseProcessor != nil:
		return nil, c.setProcessorState(deps, env, info, cfg, exec.PauseProcessor.Domain, true)
	case exec.ResumeProcessor != nil:
		return nil, c.setProcessorState(deps, env, info, cfg, exec.ResumeProcessor.Domain, false)
	case exec.ProcessorCallback != nil:
		return nil, c.processorCallback(deps, env, info, cfg, exec.ProcessorCallback)
	case exec.TransferOwnership != nil:
		return nil, c.transferOwnership(deps, info, cfg, exec.TransferOwnership)
	case exec.AcceptOwnership != nil:
		return nil, c.acceptOwnership(deps, env, info, cfg)
	}
	return nil, errors.New("unknown execute message")
}

func (c *Contract) createAuthorizations(
	deps runtime.Deps,
	env runtime.Env,
	info runtime.MessageInfo,
	cfg config,
	infos []authschema.AuthorizationInfo,
) error {
	if info.Sender != cfg.Owner {
		return ErrNotOwner
	}
	for _, authInfo := range infos {
		auth, err := c.buildAuthorization(deps.Store, authInfo)
		if err != nil {
			return err
		}
		if err := authorizationsMap.Save(deps.Store, auth.Label, auth); err != nil {
			return err
		}
		if err := c.mintPermissionTokens(deps, env, auth); err != nil {
			return err
		}
		c.log.Info("authorization created",
			logger.WithField("label", auth.Label),
			logger.WithField("priority", auth.Priority),
		)
	}
	return nil
}

// buildAuthorization validates an AuthorizationInfo and resolves defaults
// into the stored form.
func (c *Contract) buildAuthorization(store state.Store, info authschema.AuthorizationInfo) (authschema.Authorization, error) {
	var auth authschema.Authorization
	if info.Label == "" {
		return auth, ErrEmptyLabel
	}
	if authorizationsMap.Has(store, info.Label) {
		return auth, fmt.Errorf("%w: %s", ErrLabelExists, info.Label)
	}
	functions := info.Subroutine.Functions()
	if len(functions) == 0 {
		return auth, ErrNoFunctions
	}
	// All functions must live on the first function's domain; cross-domain
	// subroutines are not supported.
	domain := functions[0].Domain
	for _, function := range functions {
		if !function.Domain.Equal(domain) {
			return auth, ErrDifferentFunctionDomains
		}
	}
	if !domain.IsMain() && !externalDomainsMap.Has(store, *domain.External) {
		return auth, fmt.Errorf("%w: %s", ErrDomainNotRegistered, *domain.External)
	}

	priority := authschema.PriorityMedium
	if info.Priority != nil {
		priority = *info.Priority
	}
	if info.Mode.Permissionless != nil && priority == authschema.PriorityHigh {
		return auth, ErrPermissionlessWithHighPriority
	}
	maxConcurrent := uint64(defaultMaxConcurrentExecutions)
	if info.MaxConcurrentExecutions != nil && *info.MaxConcurrentExecutions > 0 {
		maxConcurrent = *info.MaxConcurrentExecutions
	}
	notBefore := authschema.NewNever()
	if info.NotBefore != nil {
		notBefore = *info.NotBefore
	}
	expiration := authschema.NewNever()
	if info.Expiration != nil {
		expiration = *info.Expiration
	}

	return authschema.Authorization{
		Label:                   info.Label,
		Mode:                    info.Mode,
		NotBefore:               notBefore,
		Expiration:              expiration,
		MaxConcurrentExecutions: maxConcurrent,
		Priority:                priority,
		Subroutine:              info.Subroutine,
		State:                   authschema.StateEnabled,
	}, nil
}

func (c *Contract) mintPermissionTokens(deps runtime.Deps, env runtime.Env, auth authschema.Authorization) error {
	permission := auth.Mode.Permissioned
	if permission == nil {
		return nil
	}
	denom := PermissionTokenDenom(env.Contract, auth.Label)
	if permission.WithoutCallLimit != nil {
		for _, addr := range permission.WithoutCallLimit {
			if err := deps.Bank.Mint(addr, sdktypes.NewCoins(sdktypes.NewCoin(denom, math.OneInt()))); err != nil {
				return err
			}
		}
		return nil
	}
	for _, budget := range permission.WithCallLimit {
		amount, ok := math.NewIntFromString(budget.Amount)
		if !ok || !amount.IsPositive() {
			return fmt.Errorf("%w: %q", ErrInvalidBudget, budget.Amount)
		}
		if err := deps.Bank.Mint(budget.Address, sdktypes.NewCoins(sdktypes.NewCoin(denom, amount))); err != nil {
			return err
		}
	}
	return nil
}

func (c *Contract) modifyAuthorization(deps runtime.Deps, info runtime.MessageInfo, cfg config, msg *authschema.ModifyAuthorization) error {
	if info.Sender != cfg.Owner {
		return ErrNotOwner
	}
	auth, found, err := authorizationsMap.Load(deps.Store, msg.Label)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownLabel, msg.Label)
	}
	if msg.NotBefore != nil {
		auth.NotBefore = *msg.NotBefore
	}
	if msg.Expiration != nil {
		auth.Expiration = *msg.Expiration
	}
	if msg.MaxConcurrentExecutions != nil && *msg.MaxConcurrentExecutions > 0 {
		auth.MaxConcurrentExecutions = *msg.MaxConcurrentExecutions
	}
	if msg.Priority != nil {
		if auth.Mode.Permissionless != nil && *msg.Priority == authschema.PriorityHigh {
			return ErrPermissionlessWithHighPriority
		}
		auth.Priority = *msg.Priority
	}
	return authorizationsMap.Save(deps.Store, msg.Label, auth)
}

func (c *Contract) setAuthorizationState(deps runtime.Deps, info runtime.MessageInfo, cfg config, label string, target authschema.AuthorizationState) error {
	if info.Sender != cfg.Owner {
		return ErrNotOwner
	}
	auth, found, err := authorizationsMap.Load(deps.Store, label)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownLabel, label)
	}
	if auth.State == target {
		if target == authschema.StateEnabled {
			return ErrAlreadyEnabled
		}
		return ErrAlreadyDisabled
	}
	auth.State = target
	return authorizationsMap.Save(deps.Store, label, auth)
}

func (c *Contract) sendMsgs(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, cfg config, msg *authschema.SendMsgs) error {
	auth, found, err := authorizationsMap.Load(deps.Store, msg.Label)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownLabel, msg.Label)
	}
	if err := validateExecutable(auth, env, deps.Bank, info.Sender, info.Funds, msg.Messages); err != nil {
		return err
	}
	inFlight, _, err := currentExecutionsMap.Load(deps.Store, msg.Label)
	if err != nil {
		return err
	}
	if inFlight >= auth.MaxConcurrentExecutions {
		return fmt.Errorf("%w: %s", ErrMaxConcurrentExecutions, msg.Label)
	}

	id, err := c.nextExecutionID(deps.Store)
	if err != nil {
		return err
	}
	tokenPaid := auth.Mode.Permissioned != nil && auth.Mode.Permissioned.WithCallLimit != nil
	domain := auth.Subroutine.Functions()[0].Domain
	pending := pendingExecution{
		Label:     msg.Label,
		Caller:    info.Sender,
		Domain:    domain,
		Messages:  msg.Messages,
		TokenPaid: tokenPaid,
	}
	if err := pendingExecutionsMap.Save(deps.Store, executionKey(id), pending); err != nil {
		return err
	}
	if err := currentExecutionsMap.Save(deps.Store, msg.Label, inFlight+1); err != nil {
		return err
	}

	var expirationTime *uint64
	if msg.TTL != nil {
		deadline := uint64(env.Block.Time.Unix()) + *msg.TTL
		expirationTime = &deadline
	}
	enqueue := procschema.ExecuteMsg{AuthorizationModuleAction: &procschema.AuthorizationMsg{
		EnqueueMsgs: &procschema.EnqueueMsgs{
			ID:             id,
			Msgs:           msg.Messages,
			Subroutine:     auth.Subroutine,
			Priority:       auth.Priority,
			ExpirationTime: expirationTime,
		},
	}}
	if err := c.sendToProcessor(deps, env, cfg, domain, enqueue); err != nil {
		return err
	}
	c.log.Info("batch enqueued",
		logger.WithField("label", msg.Label),
		logger.WithField("execution_id", id),
		logger.WithField("domain", domain.String()),
	)
	return nil
}

func (c *Contract) insertMsgs(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, cfg config, msg *authschema.InsertMsgs) error {
	if info.Sender != cfg.Owner {
		return ErrNotOwner
	}
	auth, found, err := authorizationsMap.Load(deps.Store, msg.Label)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownLabel, msg.Label)
	}
	if auth.State != authschema.StateEnabled {
		return ErrNotEnabled
	}
	if err := validateMessages(auth.Subroutine, msg.Messages); err != nil {
		return err
	}

	id, err := c.nextExecutionID(deps.Store)
	if err != nil {
		return err
	}
	domain := auth.Subroutine.Functions()[0].Domain
	pending := pendingExecution{
		Label:    msg.Label,
		Caller:   info.Sender,
		Domain:   domain,
		Messages: msg.Messages,
	}
	if err := pendingExecutionsMap.Save(deps.Store, executionKey(id), pending); err != nil {
		return err
	}
	inFlight, _, err := currentExecutionsMap.Load(deps.Store, msg.Label)
	if err != nil {
		return err
	}
	if err := currentExecutionsMap.Save(deps.Store, msg.Label, inFlight+1); err != nil {
		return err
	}

	insert := procschema.ExecuteMsg{AuthorizationModuleAction: &procschema.AuthorizationMsg{
		InsertMsgs: &procschema.InsertMsgs{
			ID:            id,
			QueuePosition: msg.QueuePosition,
			Msgs:          msg.Messages,
			Subroutine:    auth.Subroutine,
			Priority:      msg.Priority,
		},
	}}
	return c.sendToProcessor(deps, env, cfg, domain, insert)
}

func (c *Contract) evictMsgs(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, cfg config, msg *authschema.EvictMsgs) error {
	if info.Sender != cfg.Owner {
		return ErrNotOwner
	}
	evict := procschema.ExecuteMsg{AuthorizationModuleAction: &procschema.AuthorizationMsg{
		EvictMsgs: &procschema.EvictMsgs{
			QueuePosition: msg.QueuePosition,
			Priority:      msg.Priority,
		},
	}}
	return c.sendToProcessor(deps, env, cfg, msg.Domain, evict)
}

func (c *Contract) setProcessorState(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, cfg config, domain authschema.Domain, pause bool) error {
	if info.Sender != cfg.Owner {
		return ErrNotOwner
	}
	action := &procschema.AuthorizationMsg{}
	if pause {
		action.Pause = &procschema.Pause{}
	} else {
		action.Resume = &procschema.Resume{}
	}
	return c.sendToProcessor(deps, env, cfg, domain, procschema.ExecuteMsg{AuthorizationModuleAction: action})
}

// sendToProcessor routes a processor message to the local processor or, for
// an external domain, through the domain's bridge connector.
func (c *Contract) sendToProcessor(deps runtime.Deps, env runtime.Env, cfg config, domain authschema.Domain, msg procschema.ExecuteMsg) error {
	raw, err := msg.Marshal()
	if err != nil {
		return err
	}
	if domain.IsMain() {
		_, err := deps.Router.Execute(env.Contract, cfg.Processor, raw, nil)
		return err
	}
	external, found, err := externalDomainsMap.Load(deps.Store, *domain.External)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrDomainNotRegistered, *domain.External)
	}
	relay, err := json.Marshal(runtime.ConnectorExecuteMsg{Relay: &runtime.RelayMsg{
		Target: external.Processor,
		Msg:    raw,
	}})
	if err != nil {
		return err
	}
	resp, err := deps.Router.Execute(env.Contract, external.Connector, relay, nil)
	if err != nil {
		return err
	}
	var result runtime.RelayResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}
	if !result.Delivered {
		return fmt.Errorf("%w: %s", ErrBridgeDeliveryFailed, result.Error)
	}
	return nil
}

func (c *Contract) processorCallback(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, cfg config, msg *authschema.ProcessorCallback) error {
	pending, found, err := pendingExecutionsMap.Load(deps.Store, executionKey(msg.ExecutionID))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %d", ErrUnknownExecutionID, msg.ExecutionID)
	}
	if err := c.ensureCallbackSender(deps.Store, info.Sender, cfg, pending.Domain); err != nil {
		return err
	}

	callbackInfo := authschema.ProcessorCallbackInfo{
		ExecutionID:     msg.ExecutionID,
		Label:           pending.Label,
		Messages:        pending.Messages,
		ExecutionResult: msg.ExecutionResult,
	}
	if err := callbackInfoMap.Save(deps.Store, executionKey(msg.ExecutionID), callbackInfo); err != nil {
		return err
	}
	if !msg.ExecutionResult.IsFinal() {
		// Interim report for a batch still retrying; the execution stays
		// in flight.
		return nil
	}

	pendingExecutionsMap.Remove(deps.Store, executionKey(msg.ExecutionID))
	inFlight, _, err := currentExecutionsMap.Load(deps.Store, pending.Label)
	if err != nil {
		return err
	}
	if inFlight > 0 {
		if err := currentExecutionsMap.Save(deps.Store, pending.Label, inFlight-1); err != nil {
			return err
		}
	}

	if pending.TokenPaid {
		denom := PermissionTokenDenom(env.Contract, pending.Label)
		token := sdktypes.NewCoins(sdktypes.NewCoin(denom, math.OneInt()))
		if msg.ExecutionResult.Success != nil {
			if err := deps.Bank.Burn(env.Contract, token); err != nil {
				return err
			}
		} else {
			if err := deps.Bank.Send(env.Contract, pending.Caller, token); err != nil {
				return err
			}
		}
	}
	c.log.Info("execution retired",
		logger.WithField("execution_id", msg.ExecutionID),
		logger.WithField("label", pending.Label),
	)
	return nil
}

func (c *Contract) ensureCallbackSender(store state.Store, sender string, cfg config, domain authschema.Domain) error {
	if domain.IsMain() {
		if sender != cfg.Processor {
			return ErrNotProcessor
		}
		return nil
	}
	external, found, err := externalDomainsMap.Load(store, *domain.External)
	if err != nil {
		return err
	}
	if !found || sender != external.Connector {
		return ErrNotProcessor
	}
	return nil
}

func (c *Contract) transferOwnership(deps runtime.Deps, info runtime.MessageInfo, cfg config, msg *authschema.TransferOwnership) error {
	if info.Sender != cfg.Owner {
		return ErrNotOwner
	}
	cfg.PendingOwner = &pendingOwner{Address: msg.NewOwner, Expiry: msg.Expiry}
	return configItem.Save(deps.Store, cfg)
}

func (c *Contract) acceptOwnership(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, cfg config) error {
	if cfg.PendingOwner == nil {
		return ErrNoPendingOwner
	}
	if info.Sender != cfg.PendingOwner.Address {
		return ErrNotOwner
	}
	if cfg.PendingOwner.Expiry != nil && uint64(env.Block.Time.Unix()) > *cfg.PendingOwner.Expiry {
		return ErrTransferExpired
	}
	cfg.Owner = cfg.PendingOwner.Address
	cfg.PendingOwner = nil
	return configItem.Save(deps.Store, cfg)
}

func (c *Contract) nextExecutionID(store state.Store) (uint64, error) {
	id, _, err := executionIDItem.Load(store)
	if err != nil {
		return 0, err
	}
	if err := executionIDItem.Save(store, id+1); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Contract) Query(deps runtime.Deps, env runtime.Env, msg []byte) ([]byte, error) {
	query, err := authschema.UnmarshalQueryMsg(msg)
	if err != nil {
		return nil, err
	}
	switch {
	case query.Ownership != nil:
		cfg, _, err := configItem.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		resp := authschema.OwnershipResponse{Owner: cfg.Owner}
		if cfg.PendingOwner != nil {
			resp.PendingOwner = &cfg.PendingOwner.Address
			resp.PendingExpiry = cfg.PendingOwner.Expiry
		}
		return json.Marshal(resp)
	case query.Authorizations != nil:
		limit := defaultQueryLimit
		if query.Authorizations.Limit != nil {
			limit = int(*query.Authorizations.Limit)
		}
		out := []authschema.Authorization{}
		err := authorizationsMap.Range(deps.Store, query.Authorizations.StartAfter, limit, func(_ string, auth authschema.Authorization) bool {
			out = append(out, auth)
			return true
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	case query.ProcessorCallbacks != nil:
		limit := defaultQueryLimit
		if query.ProcessorCallbacks.Limit != nil {
			limit = int(*query.ProcessorCallbacks.Limit)
		}
		var startAfter *string
		if query.ProcessorCallbacks.StartAfter != nil {
			key := executionKey(*query.ProcessorCallbacks.StartAfter)
			startAfter = &key
		}
		out := []authschema.ProcessorCallbackInfo{}
		err := callbackInfoMap.Range(deps.Store, startAfter, limit, func(_ string, info authschema.ProcessorCallbackInfo) bool {
			out = append(out, info)
			return true
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	case query.Callback != nil:
		info, found, err := callbackInfoMap.Load(deps.Store, executionKey(query.Callback.ExecutionID))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %d", ErrUnknownExecutionID, query.Callback.ExecutionID)
		}
		return json.Marshal(info)
	case query.ExternalDomains != nil:
		out := []authschema.ExternalDomain{}
		err := externalDomainsMap.Range(deps.Store, nil, 0, func(_ string, domain authschema.ExternalDomain) bool {
			out = append(out, domain)
			return true
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	}
	return nil, errors.New("unknown query message")
}
