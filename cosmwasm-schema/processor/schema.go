// This file was automatically generated from processor/schema.json.
// DO NOT MODIFY IT BY HAND.

package processor

import (
	"encoding/json"

	"github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
)

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
	// Address of the authorization contract receiving callbacks
	AuthorizationContract string `json:"authorization_contract"`
	// Bridge connector callbacks are relayed through when the processor sits
	// on an external domain; direct delivery when absent
	CallbackConnector *string `json:"callback_connector,omitempty"`
}

type ExecuteMsg struct {
	PermissionlessAction      *PermissionlessMsg `json:"permissionless_action,omitempty"`
	AuthorizationModuleAction *AuthorizationMsg  `json:"authorization_module_action,omitempty"`
}

type PermissionlessMsg struct {
	Tick *Tick `json:"tick,omitempty"`
}

type Tick struct{}

// AuthorizationMsg is accepted only from the authorization contract.
type AuthorizationMsg struct {
	EnqueueMsgs *EnqueueMsgs `json:"enqueue_msgs,omitempty"`
	InsertMsgs  *InsertMsgs  `json:"insert_msgs,omitempty"`
	EvictMsgs   *EvictMsgs   `json:"evict_msgs,omitempty"`
	Pause       *Pause       `json:"pause,omitempty"`
	Resume      *Resume      `json:"resume,omitempty"`
}

type EnqueueMsgs struct {
	ID         uint64                           `json:"id"`
	Msgs       []authorization.ProcessorMessage `json:"msgs"`
	Subroutine authorization.Subroutine         `json:"subroutine"`
	Priority   authorization.Priority           `json:"priority"`
	// Unix seconds after which the batch is dropped instead of executed
	ExpirationTime *uint64 `json:"expiration_time,omitempty"`
}

type InsertMsgs struct {
	ID            uint64                           `json:"id"`
	QueuePosition uint64                           `json:"queue_position"`
	Msgs          []authorization.ProcessorMessage `json:"msgs"`
	Subroutine    authorization.Subroutine         `json:"subroutine"`
	Priority      authorization.Priority           `json:"priority"`
}

type EvictMsgs struct {
	QueuePosition uint64                 `json:"queue_position"`
	Priority      authorization.Priority `json:"priority"`
}

type Pause struct{}

type Resume struct{}

type QueryMsg struct {
	Config   *ConfigQuery   `json:"config,omitempty"`
	GetQueue *GetQueueQuery `json:"get_queue,omitempty"`
}

type ConfigQuery struct{}

type GetQueueQuery struct {
	From     *uint64                `json:"from,omitempty"`
	To       *uint64                `json:"to,omitempty"`
	Priority authorization.Priority `json:"priority"`
}

type ProcessorState string

const (
	ProcessorActive ProcessorState = "active"
	ProcessorPaused ProcessorState = "paused"
)

type Config struct {
	AuthorizationContract string         `json:"authorization_contract"`
	CallbackConnector     *string        `json:"callback_connector,omitempty"`
	State                 ProcessorState `json:"state"`
}

// MessageBatch is one queued unit of execution.
type MessageBatch struct {
	ID         uint64                           `json:"id"`
	Msgs       []authorization.ProcessorMessage `json:"msgs"`
	Subroutine authorization.Subroutine         `json:"subroutine"`
	Priority   authorization.Priority           `json:"priority"`
	// Unix seconds after which the batch is dropped instead of executed
	ExpirationTime *uint64 `json:"expiration_time,omitempty"`
	// Retry bookkeeping for atomic batches
	Retry *CurrentRetry `json:"retry,omitempty"`
	// Per-function bookkeeping for non-atomic batches, positional
	FunctionStates []FunctionState `json:"function_states,omitempty"`
}

type CurrentRetry struct {
	// Attempts already made
	RetryAmounts uint64 `json:"retry_amounts"`
	// Point before which the next attempt must not run
	NextAttemptAfter *authorization.Expiration `json:"next_attempt_after,omitempty"`
}

type FunctionExecutionState string

const (
	FunctionPending  FunctionExecutionState = "pending"
	FunctionSuccess  FunctionExecutionState = "success"
	FunctionFailed   FunctionExecutionState = "failed"
	FunctionRetrying FunctionExecutionState = "retrying"
)

type FunctionState struct {
	State    FunctionExecutionState `json:"state"`
	Attempts uint64                 `json:"attempts"`
	// Point before which the next attempt must not run
	NextAttemptAfter *authorization.Expiration `json:"next_attempt_after,omitempty"`
}
