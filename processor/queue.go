package processor

import (
	authschema "github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
	procschema "github.com/valence-protocol/valence-go/cosmwasm-schema/processor"
	"github.com/valence-protocol/valence-go/state"
)

var (
	highQueue   = state.NewDeque[procschema.MessageBatch]("queue_high")
	mediumQueue = state.NewDeque[procschema.MessageBatch]("queue_medium")
)

func queueFor(priority authschema.Priority) state.Deque[procschema.MessageBatch] {
	if priority == authschema.PriorityHigh {
		return highQueue
	}
	return mediumQueue
}

// popNext pops the head of the highest-priority non-empty lane. Strict
// priority: medium starves under sustained high load.
func popNext(store state.Store) (procschema.MessageBatch, bool, error) {
	if batch, ok, err := highQueue.PopFront(store); err != nil || ok {
		return batch, ok, err
	}
	return mediumQueue.PopFront(store)
}
