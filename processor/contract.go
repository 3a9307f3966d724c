// Package processor implements the processor contract: the priority-queued,
// at-most-once execution engine for message batches validated by the
// authorization contract.
package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	authschema "github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
	procschema "github.com/valence-protocol/valence-go/cosmwasm-schema/processor"
	"github.com/valence-protocol/valence-go/logger"
	"github.com/valence-protocol/valence-go/metrics/indicators/processorqueue"
	"github.com/valence-protocol/valence-go/runtime"
	"github.com/valence-protocol/valence-go/state"
)

// pendingCallback is a callback whose delivery failed; it is retried before
// any further batch executes.
type pendingCallback struct {
	ExecutionID uint64                     `json:"execution_id"`
	Result      authschema.ExecutionResult `json:"result"`
}

var (
	configItem       = state.NewItem[procschema.Config]("config")
	pendingCallbacks = state.NewDeque[pendingCallback]("pending_callbacks")
)

type Contract struct {
	log        logger.Logger
	indicators *processorqueue.Indicators
}

var _ runtime.Contract = (*Contract)(nil)

func New(log logger.Logger) *Contract {
	return &Contract{log: log}
}

func (c *Contract) WithIndicators(indicators *processorqueue.Indicators) *Contract {
	c.indicators = indicators
	return c
}

func (c *Contract) Instantiate(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) error {
	init, err := procschema.UnmarshalInstantiateMsg(msg)
	if err != nil {
		return err
	}
	if init.AuthorizationContract == "" {
		return errors.New("authorization contract cannot be empty")
	}
	return configItem.Save(deps.Store, procschema.Config{
		AuthorizationContract: init.AuthorizationContract,
		CallbackConnector:     init.CallbackConnector,
		State:                 procschema.ProcessorActive,
	})
}

func (c *Contract) Execute(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) ([]byte, error) {
	exec, err := procschema.UnmarshalExecuteMsg(msg)
	if err != nil {
		return nil, err
	}
	cfg, _, err := configItem.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	switch {
	case exec.PermissionlessAction != nil && exec.PermissionlessAction.Tick != nil:
		return nil, c.tick(deps, env, cfg)
	case exec.AuthorizationModuleAction != nil:
		return nil, c.authorizationAction(deps, env, info, cfg, exec.AuthorizationModuleAction)
	}
	return nil, errors.New("unknown execute message")
}

// authorizationAction handles the privileged surface. On the main domain the
// sender must be the authorization contract; on an external domain, the
// bridge connector that relays for it.
func (c *Contract) authorizationAction(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, cfg procschema.Config, msg *procschema.AuthorizationMsg) error {
	authorized := cfg.AuthorizationContract
	if cfg.CallbackConnector != nil {
		authorized = *cfg.CallbackConnector
	}
	if info.Sender != authorized {
		return ErrNotAuthorizationModule
	}
	switch {
	case msg.EnqueueMsgs != nil:
		return c.enqueue(deps.Store, msg.EnqueueMsgs)
	case msg.InsertMsgs != nil:
		return c.insert(deps.Store, msg.InsertMsgs)
	case msg.EvictMsgs != nil:
		return c.evict(deps, env, cfg, msg.EvictMsgs)
	case msg.Pause != nil:
		cfg.State = procschema.ProcessorPaused
		return configItem.Save(deps.Store, cfg)
	case msg.Resume != nil:
		cfg.State = procschema.ProcessorActive
		return configItem.Save(deps.Store, cfg)
	}
	return errors.New("unknown authorization module action")
}

func (c *Contract) enqueue(store state.Store, msg *procschema.EnqueueMsgs) error {
	batch := procschema.MessageBatch{
		ID:             msg.ID,
		Msgs:           msg.Msgs,
		Subroutine:     msg.Subroutine,
		Priority:       msg.Priority,
		ExpirationTime: msg.ExpirationTime,
		FunctionStates: initialFunctionStates(msg.Subroutine),
	}
	return queueFor(msg.Priority).PushBack(store, batch)
}

func (c *Contract) insert(store state.Store, msg *procschema.InsertMsgs) error {
	batch := procschema.MessageBatch{
		ID:             msg.ID,
		Msgs:           msg.Msgs,
		Subroutine:     msg.Subroutine,
		Priority:       msg.Priority,
		FunctionStates: initialFunctionStates(msg.Subroutine),
	}
	return queueFor(msg.Priority).InsertAt(store, msg.QueuePosition, batch)
}

func (c *Contract) evict(deps runtime.Deps, env runtime.Env, cfg procschema.Config, msg *procschema.EvictMsgs) error {
	batch, found, err := queueFor(msg.Priority).RemoveAt(deps.Store, msg.QueuePosition)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %d in %s", ErrInvalidQueuePosition, msg.QueuePosition, msg.Priority)
	}
	result := authschema.ExecutionResult{Evicted: &authschema.Evicted{}}
	c.countRetired(result)
	return c.sendCallback(deps, env, cfg, batch.ID, result)
}

func initialFunctionStates(subroutine authschema.Subroutine) []procschema.FunctionState {
	if subroutine.IsAtomic() {
		return nil
	}
	states := make([]procschema.FunctionState, len(subroutine.Functions()))
	for i := range states {
		states[i] = procschema.FunctionState{State: procschema.FunctionPending}
	}
	return states
}

// tick is the core state transition: retry undelivered callbacks, then pop
// and execute the head batch of the highest-priority non-empty lane.
func (c *Contract) tick(deps runtime.Deps, env runtime.Env, cfg procschema.Config) error {
	if cfg.State == procschema.ProcessorPaused {
		return ErrPaused
	}
	if c.indicators != nil {
		c.indicators.AddTick()
		c.indicators.SetQueueLength(string(authschema.PriorityHigh), float64(highQueue.Len(deps.Store)))
		c.indicators.SetQueueLength(string(authschema.PriorityMedium), float64(mediumQueue.Len(deps.Store)))
	}

	flushed, err := c.flushCallbacks(deps, env, cfg)
	if err != nil {
		return err
	}
	if !flushed {
		c.log.Warn("callback delivery suspended, skipping execution")
		return nil
	}

	batch, ok, err := popNext(deps.Store)
	if err != nil {
		return err
	}
	if !ok {
		c.log.Debug("tick on empty queues")
		return nil
	}

	if batch.ExpirationTime != nil && uint64(env.Block.Time.Unix()) >= *batch.ExpirationTime {
		result := authschema.ExecutionResult{Expired: &authschema.Expired{ExecutedCount: executedCount(batch)}}
		c.countRetired(result)
		return c.sendCallback(deps, env, cfg, batch.ID, result)
	}

	start := time.Now()
	defer func() {
		if c.indicators != nil {
			c.indicators.ObserveExecutionDuration(time.Since(start).Seconds())
		}
	}()

	if batch.Subroutine.IsAtomic() {
		return c.executeAtomic(deps, env, cfg, batch)
	}
	return c.executeNonAtomic(deps, env, cfg, batch)
}

// executeAtomic runs every function in one transaction. Any failure discards
// all effects; the batch is re-enqueued at the tail while its retry policy
// allows, then reported with the index of the first failure.
func (c *Contract) executeAtomic(deps runtime.Deps, env runtime.Env, cfg procschema.Config, batch procschema.MessageBatch) error {
	if batch.Retry != nil && !isDue(batch.Retry.NextAttemptAfter, env.Block) {
		// Not yet due; rotate without consuming an attempt.
		return queueFor(batch.Priority).PushBack(deps.Store, batch)
	}

	functions := batch.Subroutine.Functions()
	failedIndex := -1
	var failErr error
	err := deps.Router.Transactional(func(tx runtime.Dispatcher) error {
		for i, function := range functions {
			if _, err := tx.Execute(env.Contract, function.ContractAddress, batch.Msgs[i].Payload(), nil); err != nil {
				failedIndex = i
				failErr = err
				return err
			}
		}
		return nil
	})
	if err == nil {
		result := authschema.ExecutionResult{Success: &authschema.Success{}}
		c.countRetired(result)
		return c.sendCallback(deps, env, cfg, batch.ID, result)
	}

	attempts := uint64(1)
	if batch.Retry != nil {
		attempts = batch.Retry.RetryAmounts + 1
	}
	retryLogic := batch.Subroutine.BatchRetryLogic()
	if retryLogic.Allows(attempts) {
		c.log.Info("atomic batch failed, retrying",
			logger.WithField("id", batch.ID),
			logger.WithField("attempts", attempts),
			logger.WithField("failed_index", failedIndex),
		)
		var interval *authschema.Duration
		if retryLogic != nil {
			interval = retryLogic.Interval
		}
		batch.Retry = &procschema.CurrentRetry{
			RetryAmounts:     attempts,
			NextAttemptAfter: nextAttemptAfter(interval, env.Block),
		}
		return queueFor(batch.Priority).PushBack(deps.Store, batch)
	}

	result := authschema.ExecutionResult{Error: &authschema.ExecutionError{
		Index:   uint64(failedIndex),
		Message: failErr.Error(),
	}}
	c.countRetired(result)
	return c.sendCallback(deps, env, cfg, batch.ID, result)
}

// executeNonAtomic runs each function in its own transaction, in declared
// order, each with its own retry policy. A function's failure does not block
// the others; the batch retires only when every function is terminal.
func (c *Contract) executeNonAtomic(deps runtime.Deps, env runtime.Env, cfg procschema.Config, batch procschema.MessageBatch) error {
	functions := batch.Subroutine.Functions()
	attempted := false
	for i := range functions {
		st := &batch.FunctionStates[i]
		if st.State == procschema.FunctionSuccess || st.State == procschema.FunctionFailed {
			continue
		}
		if !isDue(st.NextAttemptAfter, env.Block) {
			continue
		}
		attempted = true
		err := deps.Router.Transactional(func(tx runtime.Dispatcher) error {
			_, err := tx.Execute(env.Contract, functions[i].ContractAddress, batch.Msgs[i].Payload(), nil)
			return err
		})
		st.Attempts++
		st.NextAttemptAfter = nil
		if err == nil {
			st.State = procschema.FunctionSuccess
			continue
		}
		if functions[i].RetryLogic.Allows(st.Attempts) {
			st.State = procschema.FunctionRetrying
			var interval *authschema.Duration
			if functions[i].RetryLogic != nil {
				interval = functions[i].RetryLogic.Interval
			}
			st.NextAttemptAfter = nextAttemptAfter(interval, env.Block)
		} else {
			st.State = procschema.FunctionFailed
			c.log.Info("function terminally failed",
				logger.WithField("id", batch.ID),
				logger.WithField("index", i),
				logger.WithField("error", err.Error()),
			)
		}
	}
	if !attempted {
		// Nothing was due; rotate without consuming attempts.
		return queueFor(batch.Priority).PushBack(deps.Store, batch)
	}

	allSuccess := true
	retired := true
	results := make([]authschema.FunctionResult, len(batch.FunctionStates))
	for i, st := range batch.FunctionStates {
		switch st.State {
		case procschema.FunctionSuccess:
			results[i] = authschema.FunctionResultSuccess
		case procschema.FunctionFailed:
			results[i] = authschema.FunctionResultFailed
			allSuccess = false
		default:
			results[i] = authschema.FunctionResultRetrying
			allSuccess = false
			retired = false
		}
	}

	if retired && allSuccess {
		result := authschema.ExecutionResult{Success: &authschema.Success{}}
		c.countRetired(result)
		return c.sendCallback(deps, env, cfg, batch.ID, result)
	}
	result := authschema.ExecutionResult{PartialSuccess: &authschema.PartialSuccess{FunctionResults: results}}
	if retired {
		c.countRetired(result)
		return c.sendCallback(deps, env, cfg, batch.ID, result)
	}
	// Interim report; the batch goes back to the tail of its lane.
	if err := c.sendCallback(deps, env, cfg, batch.ID, result); err != nil {
		return err
	}
	return queueFor(batch.Priority).PushBack(deps.Store, batch)
}

// sendCallback reports an execution result to the authorization contract,
// directly on the main domain or through the bridge connector. A relay that
// cannot be delivered is parked and retried on later ticks.
func (c *Contract) sendCallback(deps runtime.Deps, env runtime.Env, cfg procschema.Config, id uint64, result authschema.ExecutionResult) error {
	delivered, err := c.deliverCallback(deps, env, cfg, id, result)
	if err != nil {
		return err
	}
	if !delivered {
		c.log.Warn("callback delivery failed, parking",
			logger.WithField("execution_id", id),
		)
		return pendingCallbacks.PushBack(deps.Store, pendingCallback{ExecutionID: id, Result: result})
	}
	return nil
}

func (c *Contract) deliverCallback(deps runtime.Deps, env runtime.Env, cfg procschema.Config, id uint64, result authschema.ExecutionResult) (bool, error) {
	callback := authschema.ExecuteMsg{ProcessorCallback: &authschema.ProcessorCallback{
		ExecutionID:     id,
		ExecutionResult: result,
	}}
	raw, err := callback.Marshal()
	if err != nil {
		return false, err
	}
	if cfg.CallbackConnector == nil {
		if _, err := deps.Router.Execute(env.Contract, cfg.AuthorizationContract, raw, nil); err != nil {
			return false, err
		}
		return true, nil
	}
	relay, err := json.Marshal(runtime.ConnectorExecuteMsg{Relay: &runtime.RelayMsg{
		Target: cfg.AuthorizationContract,
		Msg:    raw,
	}})
	if err != nil {
		return false, err
	}
	resp, err := deps.Router.Execute(env.Contract, *cfg.CallbackConnector, relay, nil)
	if err != nil {
		return false, err
	}
	var relayResult runtime.RelayResponse
	if err := json.Unmarshal(resp, &relayResult); err != nil {
		return false, err
	}
	return relayResult.Delivered, nil
}

// flushCallbacks retries parked callbacks in order. It reports false when
// the head callback still cannot be delivered.
func (c *Contract) flushCallbacks(deps runtime.Deps, env runtime.Env, cfg procschema.Config) (bool, error) {
	for {
		cb, found, err := pendingCallbacks.Get(deps.Store, 0)
		if err != nil {
			return false, err
		}
		if !found {
			return true, nil
		}
		delivered, err := c.deliverCallback(deps, env, cfg, cb.ExecutionID, cb.Result)
		if err != nil {
			return false, err
		}
		if !delivered {
			return false, nil
		}
		if _, _, err := pendingCallbacks.PopFront(deps.Store); err != nil {
			return false, err
		}
	}
}

func (c *Contract) countRetired(result authschema.ExecutionResult) {
	if c.indicators == nil {
		return
	}
	switch {
	case result.Success != nil:
		c.indicators.AddBatchResult("success")
	case result.PartialSuccess != nil:
		c.indicators.AddBatchResult("partial_success")
	case result.Error != nil:
		c.indicators.AddBatchResult("error")
	case result.Expired != nil:
		c.indicators.AddBatchResult("expired")
	case result.Evicted != nil:
		c.indicators.AddBatchResult("evicted")
	}
}

func executedCount(batch procschema.MessageBatch) uint64 {
	var count uint64
	for _, st := range batch.FunctionStates {
		if st.State == procschema.FunctionSuccess {
			count++
		}
	}
	return count
}

func isDue(after *authschema.Expiration, block runtime.BlockInfo) bool {
	if after == nil {
		return true
	}
	return after.IsReached(block.Height, block.Time)
}

func nextAttemptAfter(interval *authschema.Duration, block runtime.BlockInfo) *authschema.Expiration {
	if interval == nil {
		return nil
	}
	switch {
	case interval.Height != nil:
		e := authschema.NewAtHeight(block.Height + *interval.Height)
		return &e
	case interval.Time != nil:
		e := authschema.NewAtTime(block.Time.Add(time.Duration(*interval.Time) * time.Second))
		return &e
	}
	return nil
}

func (c *Contract) Query(deps runtime.Deps, env runtime.Env, msg []byte) ([]byte, error) {
	query, err := procschema.UnmarshalQueryMsg(msg)
	if err != nil {
		return nil, err
	}
	switch {
	case query.Config != nil:
		cfg, _, err := configItem.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cfg)
	case query.GetQueue != nil:
		batches, err := queueFor(query.GetQueue.Priority).All(deps.Store)
		if err != nil {
			return nil, err
		}
		from := uint64(0)
		if query.GetQueue.From != nil {
			from = *query.GetQueue.From
		}
		to := uint64(len(batches))
		if query.GetQueue.To != nil && *query.GetQueue.To < to {
			to = *query.GetQueue.To
		}
		if from > to {
			from = to
		}
		return json.Marshal(batches[from:to])
	}
	return nil, errors.New("unknown query message")
}
