package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/valence-protocol/valence-go/authorization"
	authschema "github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
	procschema "github.com/valence-protocol/valence-go/cosmwasm-schema/processor"
	"github.com/valence-protocol/valence-go/logger"
	"github.com/valence-protocol/valence-go/metrics/indicators/processorqueue"
	"github.com/valence-protocol/valence-go/runtime"
	"github.com/valence-protocol/valence-go/state"
)

const (
	authAddr      = "valence1authorization"
	processorAddr = "valence1processor"
	recorderAddr  = "valence1recorder"
	ownerAddr     = "valence1owner"
	aliceAddr     = "valence1alice"
	tickerAddr    = "valence1ticker"
)

// recorderContract records the tag of every successful call, and fails on
// demand, so tests can observe execution order and steer outcomes.
type recorderContract struct{}

var tagsItem = state.NewItem[[]string]("tags")

func (c *recorderContract) Instantiate(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) error {
	return nil
}

func (c *recorderContract) Execute(deps runtime.Deps, env runtime.Env, info runtime.MessageInfo, msg []byte) ([]byte, error) {
	var exec struct {
		Record *struct {
			Tag string `json:"tag"`
		} `json:"record,omitempty"`
		Fail *struct{} `json:"fail,omitempty"`
	}
	if err := json.Unmarshal(msg, &exec); err != nil {
		return nil, err
	}
	switch {
	case exec.Record != nil:
		tags, _, err := tagsItem.Load(deps.Store)
		if err != nil {
			return nil, err
		}
		return nil, tagsItem.Save(deps.Store, append(tags, exec.Record.Tag))
	case exec.Fail != nil:
		return nil, errors.New("told to fail")
	}
	return nil, errors.New("unknown recorder message")
}

func (c *recorderContract) Query(deps runtime.Deps, env runtime.Env, msg []byte) ([]byte, error) {
	tags, _, err := tagsItem.Load(deps.Store)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tags)
}

type ProcessorTestSuite struct {
	suite.Suite
	router   *runtime.Router
	registry *prometheus.Registry
}

func TestProcessor(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}

func (s *ProcessorTestSuite) SetupTest() {
	s.router = runtime.NewRouter(logger.NewMockLogger())
	s.registry = prometheus.NewRegistry()

	init := authschema.InstantiateMsg{Owner: ownerAddr, Processor: processorAddr}
	raw, err := init.Marshal()
	s.Require().NoError(err)
	s.Require().NoError(s.router.Instantiate(authAddr, authorization.New(logger.NewMockLogger()), ownerAddr, raw, nil))

	contract := New(logger.NewMockLogger()).WithIndicators(processorqueue.NewIndicators(processorAddr, s.registry))
	procInit := procschema.InstantiateMsg{AuthorizationContract: authAddr}
	raw, err = procInit.Marshal()
	s.Require().NoError(err)
	s.Require().NoError(s.router.Instantiate(processorAddr, contract, ownerAddr, raw, nil))

	s.Require().NoError(s.router.Instantiate(recorderAddr, &recorderContract{}, ownerAddr, []byte(`{}`), nil))
}

func (s *ProcessorTestSuite) createAuthorization(info authschema.AuthorizationInfo) {
	msg := authschema.ExecuteMsg{
		CreateAuthorizations: &authschema.CreateAuthorizations{Authorizations: []authschema.AuthorizationInfo{info}},
	}
	raw, err := msg.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(ownerAddr, authAddr, raw, nil)
	s.Require().NoError(err)
}

func atomicAuthorization(label string, retry *authschema.RetryLogic, messageNames ...string) authschema.AuthorizationInfo {
	functions := make([]authschema.AtomicFunction, 0, len(messageNames))
	for _, name := range messageNames {
		functions = append(functions, authschema.AtomicFunction{
			Domain:          authschema.MainDomain(),
			ContractAddress: recorderAddr,
			MessageDetails: authschema.MessageDetails{
				MessageType: authschema.MessageTypeCosmwasmExecuteMsg,
				Message:     authschema.Message{Name: name},
			},
		})
	}
	return authschema.AuthorizationInfo{
		Label: label,
		Mode:  authschema.AuthorizationMode{Permissionless: &authschema.Permissionless{}},
		Subroutine: authschema.Subroutine{
			Atomic: &authschema.AtomicSubroutine{Functions: functions, RetryLogic: retry},
		},
	}
}

func nonAtomicAuthorization(label string, retries []*authschema.RetryLogic, messageNames ...string) authschema.AuthorizationInfo {
	functions := make([]authschema.NonAtomicFunction, 0, len(messageNames))
	for i, name := range messageNames {
		functions = append(functions, authschema.NonAtomicFunction{
			Domain:          authschema.MainDomain(),
			ContractAddress: recorderAddr,
			MessageDetails: authschema.MessageDetails{
				MessageType: authschema.MessageTypeCosmwasmExecuteMsg,
				Message:     authschema.Message{Name: name},
			},
			RetryLogic: retries[i],
		})
	}
	return authschema.AuthorizationInfo{
		Label: label,
		Mode:  authschema.AuthorizationMode{Permissionless: &authschema.Permissionless{}},
		Subroutine: authschema.Subroutine{
			NonAtomic: &authschema.NonAtomicSubroutine{Functions: functions},
		},
	}
}

func recordMessage(tag string) authschema.ProcessorMessage {
	return authschema.ProcessorMessage{CosmwasmExecuteMsg: &authschema.CosmwasmExecuteMsg{
		Msg: json.RawMessage(fmt.Sprintf(`{"record":{"tag":"%s"}}`, tag)),
	}}
}

func failMessage() authschema.ProcessorMessage {
	return authschema.ProcessorMessage{CosmwasmExecuteMsg: &authschema.CosmwasmExecuteMsg{
		Msg: json.RawMessage(`{"fail":{}}`),
	}}
}

func (s *ProcessorTestSuite) send(label string, ttl *uint64, messages ...authschema.ProcessorMessage) {
	msg := authschema.ExecuteMsg{SendMsgs: &authschema.SendMsgs{
		Label:    label,
		Messages: messages,
		TTL:      ttl,
	}}
	raw, err := msg.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(aliceAddr, authAddr, raw, nil)
	s.Require().NoError(err)
}

func (s *ProcessorTestSuite) tick() error {
	msg := procschema.ExecuteMsg{PermissionlessAction: &procschema.PermissionlessMsg{Tick: &procschema.Tick{}}}
	raw, err := msg.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(tickerAddr, processorAddr, raw, nil)
	return err
}

func (s *ProcessorTestSuite) recordedTags() []string {
	raw, err := s.router.Query(recorderAddr, []byte(`{}`))
	s.Require().NoError(err)
	var tags []string
	s.Require().NoError(json.Unmarshal(raw, &tags))
	return tags
}

func (s *ProcessorTestSuite) callback(executionID uint64) (authschema.ProcessorCallbackInfo, error) {
	raw, err := s.router.Query(authAddr, []byte(fmt.Sprintf(`{"callback":{"execution_id":%d}}`, executionID)))
	if err != nil {
		return authschema.ProcessorCallbackInfo{}, err
	}
	var cb authschema.ProcessorCallbackInfo
	s.Require().NoError(json.Unmarshal(raw, &cb))
	return cb, nil
}

func (s *ProcessorTestSuite) queue(priority authschema.Priority) []procschema.MessageBatch {
	query := procschema.QueryMsg{GetQueue: &procschema.GetQueueQuery{Priority: priority}}
	raw, err := query.Marshal()
	s.Require().NoError(err)
	resp, err := s.router.Query(processorAddr, raw)
	s.Require().NoError(err)
	var batches []procschema.MessageBatch
	s.Require().NoError(json.Unmarshal(resp, &batches))
	return batches
}

func (s *ProcessorTestSuite) Test_TickOnEmptyQueues() {
	s.NoError(s.tick())
}

func (s *ProcessorTestSuite) Test_EnqueueRequiresAuthorizationContract() {
	msg := procschema.ExecuteMsg{AuthorizationModuleAction: &procschema.AuthorizationMsg{
		EnqueueMsgs: &procschema.EnqueueMsgs{
			ID:       7,
			Msgs:     []authschema.ProcessorMessage{recordMessage("X")},
			Priority: authschema.PriorityMedium,
			Subroutine: authschema.Subroutine{
				Atomic: &authschema.AtomicSubroutine{},
			},
		},
	}}
	raw, err := msg.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(aliceAddr, processorAddr, raw, nil)
	s.ErrorIs(err, ErrNotAuthorizationModule)
}

func (s *ProcessorTestSuite) Test_HighPriorityDrainsFirst() {
	s.createAuthorization(atomicAuthorization("routine", nil, "record"))

	urgent := atomicAuthorization("urgent", nil, "record")
	high := authschema.PriorityHigh
	urgent.Priority = &high
	urgent.Mode = authschema.AuthorizationMode{Permissioned: &authschema.PermissionType{
		WithoutCallLimit: []string{aliceAddr},
	}}
	s.createAuthorization(urgent)

	// Each label has its own concurrency slot, so the third batch uses its
	// own label.
	s.createAuthorization(atomicAuthorization("cleanup", nil, "record"))
	s.send("routine", nil, recordMessage("B1"))
	s.send("urgent", nil, recordMessage("B2"))
	s.send("cleanup", nil, recordMessage("B3"))

	s.Require().NoError(s.tick())
	s.Require().NoError(s.tick())
	s.Require().NoError(s.tick())

	s.Equal([]string{"B2", "B1", "B3"}, s.recordedTags())
}

func (s *ProcessorTestSuite) Test_AtomicSuccess() {
	s.createAuthorization(atomicAuthorization("pair", nil, "record", "record"))
	s.send("pair", nil, recordMessage("A"), recordMessage("B"))

	s.Require().NoError(s.tick())

	s.Equal([]string{"A", "B"}, s.recordedTags())
	cb, err := s.callback(0)
	s.Require().NoError(err)
	s.NotNil(cb.ExecutionResult.Success)
	s.Equal("pair", cb.Label)
}

func (s *ProcessorTestSuite) Test_AtomicRollback() {
	s.createAuthorization(atomicAuthorization("fragile", nil, "record", "fail"))
	s.send("fragile", nil, recordMessage("A"), failMessage())

	s.Require().NoError(s.tick())

	// The first function's write must not be observable.
	s.Empty(s.recordedTags())

	cb, err := s.callback(0)
	s.Require().NoError(err)
	s.Require().NotNil(cb.ExecutionResult.Error)
	s.Equal(uint64(1), cb.ExecutionResult.Error.Index)
	s.Contains(cb.ExecutionResult.Error.Message, "told to fail")
}

func (s *ProcessorTestSuite) Test_AtomicRetryThenError() {
	one := uint64(1)
	retry := &authschema.RetryLogic{Times: authschema.RetryTimes{Amount: &one}}
	s.createAuthorization(atomicAuthorization("retrying", retry, "fail"))
	s.send("retrying", nil, failMessage())

	// First attempt fails and the batch goes back to the tail.
	s.Require().NoError(s.tick())
	_, err := s.callback(0)
	s.Error(err)
	batches := s.queue(authschema.PriorityMedium)
	s.Require().Len(batches, 1)
	s.Require().NotNil(batches[0].Retry)
	s.Equal(uint64(1), batches[0].Retry.RetryAmounts)

	// The retry also fails; the policy is exhausted.
	s.Require().NoError(s.tick())
	cb, err := s.callback(0)
	s.Require().NoError(err)
	s.Require().NotNil(cb.ExecutionResult.Error)
	s.Equal(uint64(0), cb.ExecutionResult.Error.Index)
	s.Empty(s.queue(authschema.PriorityMedium))
}

func (s *ProcessorTestSuite) Test_AtomicRetryIntervalRotatesWithoutAttempt() {
	one := uint64(1)
	twoBlocks := uint64(2)
	retry := &authschema.RetryLogic{
		Times:    authschema.RetryTimes{Amount: &one},
		Interval: &authschema.Duration{Height: &twoBlocks},
	}
	s.createAuthorization(atomicAuthorization("cooled", retry, "fail"))
	s.send("cooled", nil, failMessage())

	s.Require().NoError(s.tick())
	batches := s.queue(authschema.PriorityMedium)
	s.Require().Len(batches, 1)
	s.Require().NotNil(batches[0].Retry)

	// Not yet due: the batch rotates and keeps its attempt count.
	s.Require().NoError(s.tick())
	batches = s.queue(authschema.PriorityMedium)
	s.Require().Len(batches, 1)
	s.Equal(uint64(1), batches[0].Retry.RetryAmounts)

	s.router.AdvanceBlock(6 * time.Second)
	s.router.AdvanceBlock(6 * time.Second)

	s.Require().NoError(s.tick())
	cb, err := s.callback(0)
	s.Require().NoError(err)
	s.NotNil(cb.ExecutionResult.Error)
}

func (s *ProcessorTestSuite) Test_NonAtomicPartialSuccess() {
	one := uint64(1)
	retries := []*authschema.RetryLogic{
		nil,
		{Times: authschema.RetryTimes{Amount: &one}},
	}
	s.createAuthorization(nonAtomicAuthorization("split", retries, "record", "fail"))
	s.send("split", nil, recordMessage("kept"), failMessage())

	// First pass: function 0 succeeds and its effect sticks, function 1
	// fails but may retry. The interim report keeps the batch in flight.
	s.Require().NoError(s.tick())
	s.Equal([]string{"kept"}, s.recordedTags())

	cb, err := s.callback(0)
	s.Require().NoError(err)
	s.Require().NotNil(cb.ExecutionResult.PartialSuccess)
	s.Equal([]authschema.FunctionResult{
		authschema.FunctionResultSuccess,
		authschema.FunctionResultRetrying,
	}, cb.ExecutionResult.PartialSuccess.FunctionResults)
	s.False(cb.ExecutionResult.IsFinal())
	s.Require().Len(s.queue(authschema.PriorityMedium), 1)

	// Second pass: function 1 exhausts its retries. The batch retires with
	// the successful function NOT re-executed.
	s.Require().NoError(s.tick())
	s.Equal([]string{"kept"}, s.recordedTags())

	cb, err = s.callback(0)
	s.Require().NoError(err)
	s.Require().NotNil(cb.ExecutionResult.PartialSuccess)
	s.Equal([]authschema.FunctionResult{
		authschema.FunctionResultSuccess,
		authschema.FunctionResultFailed,
	}, cb.ExecutionResult.PartialSuccess.FunctionResults)
	s.True(cb.ExecutionResult.IsFinal())
	s.Empty(s.queue(authschema.PriorityMedium))
}

func (s *ProcessorTestSuite) Test_NonAtomicAllSuccess() {
	retries := []*authschema.RetryLogic{nil, nil}
	s.createAuthorization(nonAtomicAuthorization("steps", retries, "record", "record"))
	s.send("steps", nil, recordMessage("one"), recordMessage("two"))

	s.Require().NoError(s.tick())

	cb, err := s.callback(0)
	s.Require().NoError(err)
	s.NotNil(cb.ExecutionResult.Success)
	s.Equal([]string{"one", "two"}, s.recordedTags())
}

func (s *ProcessorTestSuite) Test_LazyExpiration() {
	ttl := uint64(10)
	s.createAuthorization(atomicAuthorization("shortlived", nil, "record"))
	s.send("shortlived", &ttl, recordMessage("late"))

	s.router.AdvanceBlock(60 * time.Second)
	s.Require().NoError(s.tick())

	s.Empty(s.recordedTags())
	cb, err := s.callback(0)
	s.Require().NoError(err)
	s.Require().NotNil(cb.ExecutionResult.Expired)
	s.Equal(uint64(0), cb.ExecutionResult.Expired.ExecutedCount)
}

func (s *ProcessorTestSuite) Test_InsertAtPosition() {
	s.createAuthorization(atomicAuthorization("first", nil, "record"))
	s.createAuthorization(atomicAuthorization("second", nil, "record"))
	s.send("first", nil, recordMessage("B1"))
	s.send("second", nil, recordMessage("B2"))

	s.createAuthorization(atomicAuthorization("jumper", nil, "record"))
	insert := authschema.ExecuteMsg{InsertMsgs: &authschema.InsertMsgs{
		Label:         "jumper",
		QueuePosition: 0,
		Priority:      authschema.PriorityMedium,
		Messages:      []authschema.ProcessorMessage{recordMessage("B0")},
	}}
	raw, err := insert.Marshal()
	s.Require().NoError(err)

	// Only the owner may insert.
	_, err = s.router.Execute(aliceAddr, authAddr, raw, nil)
	s.ErrorIs(err, authorization.ErrNotOwner)

	_, err = s.router.Execute(ownerAddr, authAddr, raw, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.tick())
	s.Require().NoError(s.tick())
	s.Require().NoError(s.tick())
	s.Equal([]string{"B0", "B1", "B2"}, s.recordedTags())
}

func (s *ProcessorTestSuite) Test_Evict() {
	s.createAuthorization(atomicAuthorization("doomed", nil, "record"))
	s.send("doomed", nil, recordMessage("never"))

	evict := authschema.ExecuteMsg{EvictMsgs: &authschema.EvictMsgs{
		Domain:        authschema.MainDomain(),
		QueuePosition: 0,
		Priority:      authschema.PriorityMedium,
	}}
	raw, err := evict.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(ownerAddr, authAddr, raw, nil)
	s.Require().NoError(err)

	s.Empty(s.queue(authschema.PriorityMedium))
	cb, err := s.callback(0)
	s.Require().NoError(err)
	s.NotNil(cb.ExecutionResult.Evicted)

	// The slot is free again.
	s.send("doomed", nil, recordMessage("second"))
}

func (s *ProcessorTestSuite) Test_EvictInvalidPosition() {
	evict := authschema.ExecuteMsg{EvictMsgs: &authschema.EvictMsgs{
		Domain:        authschema.MainDomain(),
		QueuePosition: 3,
		Priority:      authschema.PriorityMedium,
	}}
	raw, err := evict.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(ownerAddr, authAddr, raw, nil)
	s.ErrorIs(err, ErrInvalidQueuePosition)
}

func (s *ProcessorTestSuite) Test_PauseResume() {
	s.createAuthorization(atomicAuthorization("swap", nil, "record"))
	s.send("swap", nil, recordMessage("held"))

	pause := procschema.ExecuteMsg{AuthorizationModuleAction: &procschema.AuthorizationMsg{Pause: &procschema.Pause{}}}
	raw, err := pause.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(authAddr, processorAddr, raw, nil)
	s.Require().NoError(err)

	s.ErrorIs(s.tick(), ErrPaused)
	s.Empty(s.recordedTags())

	resume := procschema.ExecuteMsg{AuthorizationModuleAction: &procschema.AuthorizationMsg{Resume: &procschema.Resume{}}}
	raw, err = resume.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(authAddr, processorAddr, raw, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.tick())
	s.Equal([]string{"held"}, s.recordedTags())
}

func (s *ProcessorTestSuite) Test_OwnerPauseResume() {
	s.createAuthorization(atomicAuthorization("swap", nil, "record"))
	s.send("swap", nil, recordMessage("held"))

	pause := authschema.ExecuteMsg{PauseProcessor: &authschema.PauseProcessor{Domain: authschema.MainDomain()}}
	raw, err := pause.Marshal()
	s.Require().NoError(err)

	// Only the owner can pause through the authorization contract.
	_, err = s.router.Execute(aliceAddr, authAddr, raw, nil)
	s.ErrorIs(err, authorization.ErrNotOwner)
	_, err = s.router.Execute(ownerAddr, authAddr, raw, nil)
	s.Require().NoError(err)

	s.ErrorIs(s.tick(), ErrPaused)

	resume := authschema.ExecuteMsg{ResumeProcessor: &authschema.ResumeProcessor{Domain: authschema.MainDomain()}}
	raw, err = resume.Marshal()
	s.Require().NoError(err)
	_, err = s.router.Execute(ownerAddr, authAddr, raw, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.tick())
	s.Equal([]string{"held"}, s.recordedTags())
}

// metricValue reads a counter or gauge sample from the suite registry by
// family name and label subset.
func (s *ProcessorTestSuite) metricValue(name string, labels map[string]string) float64 {
	families, err := s.registry.Gather()
	s.Require().NoError(err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := true
			for key, value := range labels {
				found := false
				for _, pair := range metric.GetLabel() {
					if pair.GetName() == key && pair.GetValue() == value {
						found = true
						break
					}
				}
				if !found {
					matched = false
					break
				}
			}
			if !matched {
				continue
			}
			if metric.GetCounter() != nil {
				return metric.GetCounter().GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	s.T().Fatalf("no sample for %s %v", name, labels)
	return 0
}

func (s *ProcessorTestSuite) Test_IndicatorsTrackTicks() {
	s.createAuthorization(atomicAuthorization("swap", nil, "record"))
	s.createAuthorization(atomicAuthorization("doomed", nil, "fail"))
	s.send("swap", nil, recordMessage("m1"))
	s.send("doomed", nil, failMessage())

	s.Require().NoError(s.tick())
	s.Require().NoError(s.tick())
	s.Require().NoError(s.tick())

	s.Equal(3.0, s.metricValue("valence_processor_ticks_total", nil))
	s.Equal(1.0, s.metricValue("valence_processor_batches_total", map[string]string{"result": "success"}))
	s.Equal(1.0, s.metricValue("valence_processor_batches_total", map[string]string{"result": "error"}))
	s.Equal(0.0, s.metricValue("valence_processor_queue_length", map[string]string{"priority": "medium"}))
}

func (s *ProcessorTestSuite) Test_ConfigQuery() {
	query := procschema.QueryMsg{Config: &procschema.ConfigQuery{}}
	raw, err := query.Marshal()
	s.Require().NoError(err)
	resp, err := s.router.Query(processorAddr, raw)
	s.Require().NoError(err)

	var cfg procschema.Config
	s.Require().NoError(json.Unmarshal(resp, &cfg))
	s.Equal(authAddr, cfg.AuthorizationContract)
	s.Equal(procschema.ProcessorActive, cfg.State)
}
