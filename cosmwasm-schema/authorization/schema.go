// This file was automatically generated from authorization/schema.json.
// DO NOT MODIFY IT BY HAND.

package authorization

import "encoding/json"

func UnmarshalInstantiateMsg(data []byte) (InstantiateMsg, error) {
	var r InstantiateMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *InstantiateMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func UnmarshalExecuteMsg(data []byte) (ExecuteMsg, error) {
	var r ExecuteMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *ExecuteMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func UnmarshalQueryMsg(data []byte) (QueryMsg, error) {
	var r QueryMsg
	err := json.Unmarshal(data, &r)
	return r, err
}

func (r *QueryMsg) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

type InstantiateMsg struct {
	// Owner of this contract, the only address allowed to manage authorizations
	Owner string `json:"owner"`
	// Address of the processor on the main domain
	Processor string `json:"processor"`
	// External domains reachable through a bridge connector
	ExternalDomains []ExternalDomain `json:"external_domains,omitempty"`
}

type ExternalDomain struct {
	// Unique name of the domain, e.g. "osmosis"
	Name string `json:"name"`
	// Address of the bridge connector used to reach the domain
	Connector string `json:"connector"`
	// Address of the processor deployed on the domain
	Processor string `json:"processor"`
}

type ExecuteMsg struct {
	CreateAuthorizations *CreateAuthorizations `json:"create_authorizations,omitempty"`
	ModifyAuthorization  *ModifyAuthorization  `json:"modify_authorization,omitempty"`
	DisableAuthorization *DisableAuthorization `json:"disable_authorization,omitempty"`
	EnableAuthorization  *EnableAuthorization  `json:"enable_authorization,omitempty"`
	SendMsgs             *SendMsgs             `json:"send_msgs,omitempty"`
	InsertMsgs           *InsertMsgs           `json:"insert_msgs,omitempty"`
	EvictMsgs            *EvictMsgs            `json:"evict_msgs,omitempty"`
	PauseProcessor       *PauseProcessor       `json:"pause_processor,omitempty"`
	ResumeProcessor      *ResumeProcessor      `json:"resume_processor,omitempty"`
	ProcessorCallback    *ProcessorCallback    `json:"processor_callback,omitempty"`
	TransferOwnership    *TransferOwnership    `json:"transfer_ownership,omitempty"`
	AcceptOwnership      *AcceptOwnership      `json:"accept_ownership,omitempty"`
}

type PauseProcessor struct {
	// Domain whose processor is paused
	Domain Domain `json:"domain"`
}

type ResumeProcessor struct {
	Domain Domain `json:"domain"`
}

type CreateAuthorizations struct {
	Authorizations []AuthorizationInfo `json:"authorizations"`
}

type ModifyAuthorization struct {
	Label string `json:"label"`
	// Fields below are applied only when present; the subroutine is immutable
	NotBefore               *Expiration `json:"not_before,omitempty"`
	Expiration              *Expiration `json:"expiration,omitempty"`
	MaxConcurrentExecutions *uint64     `json:"max_concurrent_executions,omitempty"`
	Priority                *Priority   `json:"priority,omitempty"`
}

type DisableAuthorization struct {
	Label string `json:"label"`
}

type EnableAuthorization struct {
	Label string `json:"label"`
}

type SendMsgs struct {
	Label    string             `json:"label"`
	Messages []ProcessorMessage `json:"messages"`
	// Seconds the resulting batch stays executable once enqueued
	TTL *uint64 `json:"ttl,omitempty"`
}

type InsertMsgs struct {
	Label         string             `json:"label"`
	QueuePosition uint64             `json:"queue_position"`
	Priority      Priority           `json:"priority"`
	Messages      []ProcessorMessage `json:"messages"`
}

type EvictMsgs struct {
	// Domain the queue lives on
	Domain        Domain   `json:"domain"`
	QueuePosition uint64   `json:"queue_position"`
	Priority      Priority `json:"priority"`
}

type ProcessorCallback struct {
	ExecutionID     uint64          `json:"execution_id"`
	ExecutionResult ExecutionResult `json:"execution_result"`
}

type TransferOwnership struct {
	NewOwner string `json:"new_owner"`
	// Unix seconds after which the pending transfer can no longer be accepted
	Expiry *uint64 `json:"expiry,omitempty"`
}

type AcceptOwnership struct{}

type AuthorizationInfo struct {
	Label string            `json:"label"`
	Mode  AuthorizationMode `json:"mode"`
	// Window before which the authorization cannot be executed
	NotBefore *Expiration `json:"not_before,omitempty"`
	// Window after which the authorization can no longer be executed
	Expiration              *Expiration `json:"expiration,omitempty"`
	MaxConcurrentExecutions *uint64     `json:"max_concurrent_executions,omitempty"`
	Priority                *Priority   `json:"priority,omitempty"`
	Subroutine              Subroutine  `json:"subroutine"`
}

// Authorization is the stored form of an AuthorizationInfo with defaults
// resolved and the lifecycle state attached.
type Authorization struct {
	Label                   string             `json:"label"`
	Mode                    AuthorizationMode  `json:"mode"`
	NotBefore               Expiration         `json:"not_before"`
	Expiration              Expiration         `json:"expiration"`
	MaxConcurrentExecutions uint64             `json:"max_concurrent_executions"`
	Priority                Priority           `json:"priority"`
	Subroutine              Subroutine         `json:"subroutine"`
	State                   AuthorizationState `json:"state"`
}

type AuthorizationMode struct {
	Permissionless *Permissionless `json:"permissionless,omitempty"`
	Permissioned   *PermissionType `json:"permissioned,omitempty"`
}

type Permissionless struct{}

type PermissionType struct {
	// Callers holding at least one permission token, minted one per address
	WithoutCallLimit []string `json:"without_call_limit,omitempty"`
	// Callers granted a budget of permission tokens, one burned per call
	WithCallLimit []CallBudget `json:"with_call_limit,omitempty"`
}

type CallBudget struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type AuthorizationState string

const (
	StateEnabled  AuthorizationState = "enabled"
	StateDisabled AuthorizationState = "disabled"
)

type Priority string

const (
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Subroutine struct {
	Atomic    *AtomicSubroutine    `json:"atomic,omitempty"`
	NonAtomic *NonAtomicSubroutine `json:"non_atomic,omitempty"`
}

type AtomicSubroutine struct {
	Functions []AtomicFunction `json:"functions"`
	// Retry policy for the whole batch; no retries when absent
	RetryLogic *RetryLogic `json:"retry_logic,omitempty"`
}

type AtomicFunction struct {
	Domain          Domain         `json:"domain"`
	MessageDetails  MessageDetails `json:"message_details"`
	ContractAddress string         `json:"contract_address"`
}

type NonAtomicSubroutine struct {
	Functions []NonAtomicFunction `json:"functions"`
}

type NonAtomicFunction struct {
	Domain          Domain         `json:"domain"`
	MessageDetails  MessageDetails `json:"message_details"`
	ContractAddress string         `json:"contract_address"`
	// Retry policy for this function alone; no retries when absent
	RetryLogic *RetryLogic `json:"retry_logic,omitempty"`
}

type Domain struct {
	Main *Main `json:"main,omitempty"`
	// Name of a registered external domain
	External *string `json:"external,omitempty"`
}

type Main struct{}

type MessageDetails struct {
	MessageType MessageType `json:"message_type"`
	Message     Message     `json:"message"`
}

type MessageType string

const (
	MessageTypeCosmwasmExecuteMsg MessageType = "cosmwasm_execute_msg"
	MessageTypeCosmwasmMigrateMsg MessageType = "cosmwasm_migrate_msg"
)

type Message struct {
	// Expected single top-level key of the JSON payload
	Name               string             `json:"name"`
	ParamsRestrictions []ParamRestriction `json:"params_restrictions,omitempty"`
}

type ParamRestriction struct {
	MustBeIncluded   *MustBeIncluded   `json:"must_be_included,omitempty"`
	CannotBeIncluded *CannotBeIncluded `json:"cannot_be_included,omitempty"`
	MustBeValue      *MustBeValue      `json:"must_be_value,omitempty"`
}

type MustBeIncluded struct {
	Keys []string `json:"keys"`
}

type CannotBeIncluded struct {
	Keys []string `json:"keys"`
}

type MustBeValue struct {
	Keys  []string        `json:"keys"`
	Value json.RawMessage `json:"value"`
}

type ProcessorMessage struct {
	CosmwasmExecuteMsg *CosmwasmExecuteMsg `json:"cosmwasm_execute_msg,omitempty"`
	CosmwasmMigrateMsg *CosmwasmMigrateMsg `json:"cosmwasm_migrate_msg,omitempty"`
}

type CosmwasmExecuteMsg struct {
	Msg json.RawMessage `json:"msg"`
}

type CosmwasmMigrateMsg struct {
	CodeID uint64          `json:"code_id"`
	Msg    json.RawMessage `json:"msg"`
}

type RetryLogic struct {
	Times RetryTimes `json:"times"`
	// Minimum wait between attempts; immediate when absent
	Interval *Duration `json:"interval,omitempty"`
}

type RetryTimes struct {
	Indefinitely *Indefinitely `json:"indefinitely,omitempty"`
	Amount       *uint64       `json:"amount,omitempty"`
}

type Indefinitely struct{}

type Duration struct {
	// Number of blocks
	Height *uint64 `json:"height,omitempty"`
	// Number of seconds
	Time *uint64 `json:"time,omitempty"`
}

type Expiration struct {
	AtHeight *uint64 `json:"at_height,omitempty"`
	// Unix timestamp in nanoseconds, as a string
	AtTime *string `json:"at_time,omitempty"`
	Never  *Never  `json:"never,omitempty"`
}

type Never struct{}

type ExecutionResult struct {
	Success        *Success        `json:"success,omitempty"`
	PartialSuccess *PartialSuccess `json:"partial_success,omitempty"`
	Error          *ExecutionError `json:"error,omitempty"`
	Expired        *Expired        `json:"expired,omitempty"`
	Evicted        *Evicted        `json:"evicted,omitempty"`
}

// Evicted reports a batch removed from the queue by the owner before it ran.
type Evicted struct{}

type Success struct{}

type PartialSuccess struct {
	// One entry per function, positionally
	FunctionResults []FunctionResult `json:"function_results"`
}

type ExecutionError struct {
	// Index of the first failing function
	Index   uint64 `json:"index"`
	Message string `json:"message"`
}

type Expired struct {
	// Functions that completed before the batch expired
	ExecutedCount uint64 `json:"executed_count"`
}

type FunctionResult string

const (
	FunctionResultSuccess  FunctionResult = "success"
	FunctionResultFailed   FunctionResult = "failed"
	FunctionResultRetrying FunctionResult = "retrying"
)

type QueryMsg struct {
	Ownership          *OwnershipQuery          `json:"ownership,omitempty"`
	Authorizations     *AuthorizationsQuery     `json:"authorizations,omitempty"`
	ProcessorCallbacks *ProcessorCallbacksQuery `json:"processor_callbacks,omitempty"`
	Callback           *CallbackQuery           `json:"callback,omitempty"`
	ExternalDomains    *ExternalDomainsQuery    `json:"external_domains,omitempty"`
}

type OwnershipQuery struct{}

type AuthorizationsQuery struct {
	StartAfter *string `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type ProcessorCallbacksQuery struct {
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}

type CallbackQuery struct {
	ExecutionID uint64 `json:"execution_id"`
}

type ExternalDomainsQuery struct{}

type OwnershipResponse struct {
	Owner        string  `json:"owner"`
	PendingOwner *string `json:"pending_owner,omitempty"`
	// Unix seconds deadline for the pending transfer
	PendingExpiry *uint64 `json:"pending_expiry,omitempty"`
}

type ProcessorCallbackInfo struct {
	ExecutionID     uint64             `json:"execution_id"`
	Label           string             `json:"label"`
	Messages        []ProcessorMessage `json:"messages"`
	ExecutionResult ExecutionResult    `json:"execution_result"`
}
