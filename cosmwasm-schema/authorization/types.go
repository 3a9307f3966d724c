package authorization

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Function is the flattened view of one subroutine step, shared by the
// atomic and non-atomic variants.
type Function struct {
	Domain          Domain
	MessageDetails  MessageDetails
	ContractAddress string
	RetryLogic      *RetryLogic
}

// IsAtomic reports whether the subroutine executes all-or-nothing.
func (s Subroutine) IsAtomic() bool {
	return s.Atomic != nil
}

// Functions flattens the subroutine into its ordered step list. For atomic
// subroutines the per-function retry logic is nil; the batch-level policy is
// exposed by BatchRetryLogic.
func (s Subroutine) Functions() []Function {
	if s.Atomic != nil {
		functions := make([]Function, 0, len(s.Atomic.Functions))
		for _, f := range s.Atomic.Functions {
			functions = append(functions, Function{
				Domain:          f.Domain,
				MessageDetails:  f.MessageDetails,
				ContractAddress: f.ContractAddress,
			})
		}
		return functions
	}
	if s.NonAtomic != nil {
		functions := make([]Function, 0, len(s.NonAtomic.Functions))
		for _, f := range s.NonAtomic.Functions {
			functions = append(functions, Function{
				Domain:          f.Domain,
				MessageDetails:  f.MessageDetails,
				ContractAddress: f.ContractAddress,
				RetryLogic:      f.RetryLogic,
			})
		}
		return functions
	}
	return nil
}

// BatchRetryLogic returns the batch-level retry policy of an atomic
// subroutine, nil for non-atomic subroutines.
func (s Subroutine) BatchRetryLogic() *RetryLogic {
	if s.Atomic != nil {
		return s.Atomic.RetryLogic
	}
	return nil
}

func (d Domain) IsMain() bool {
	return d.External == nil
}

func (d Domain) Equal(other Domain) bool {
	if d.IsMain() != other.IsMain() {
		return false
	}
	if d.IsMain() {
		return true
	}
	return *d.External == *other.External
}

func (d Domain) String() string {
	if d.External != nil {
		return *d.External
	}
	return "main"
}

// MainDomain returns the local execution domain.
func MainDomain() Domain {
	return Domain{Main: &Main{}}
}

// ExternalDomainNamed returns the external execution domain with the given
// registered name.
func ExternalDomainNamed(name string) Domain {
	return Domain{External: &name}
}

// Type returns the declared message type of the payload, empty when no
// variant is set.
func (m ProcessorMessage) Type() MessageType {
	switch {
	case m.CosmwasmExecuteMsg != nil:
		return MessageTypeCosmwasmExecuteMsg
	case m.CosmwasmMigrateMsg != nil:
		return MessageTypeCosmwasmMigrateMsg
	}
	return ""
}

// Payload returns the opaque serialized message body carried by the variant.
func (m ProcessorMessage) Payload() []byte {
	switch {
	case m.CosmwasmExecuteMsg != nil:
		return m.CosmwasmExecuteMsg.Msg
	case m.CosmwasmMigrateMsg != nil:
		return m.CosmwasmMigrateMsg.Msg
	}
	return nil
}

// NewAtHeight builds a height-based expiration.
func NewAtHeight(height uint64) Expiration {
	return Expiration{AtHeight: &height}
}

// NewAtTime builds a time-based expiration.
func NewAtTime(t time.Time) Expiration {
	nanos := strconv.FormatUint(uint64(t.UnixNano()), 10)
	return Expiration{AtTime: &nanos}
}

// NewNever builds an expiration that is never reached.
func NewNever() Expiration {
	return Expiration{Never: &Never{}}
}

// IsNever reports whether the expiration can ever be reached. The zero value
// counts as never.
func (e Expiration) IsNever() bool {
	return e.AtHeight == nil && e.AtTime == nil
}

// IsReached reports whether the expiration point has passed at the given
// block height and time. A never expiration is not reached. An unparseable
// at_time is treated as reached so that a corrupted deadline fails closed.
func (e Expiration) IsReached(height uint64, blockTime time.Time) bool {
	switch {
	case e.AtHeight != nil:
		return height >= *e.AtHeight
	case e.AtTime != nil:
		nanos, err := strconv.ParseUint(*e.AtTime, 10, 64)
		if err != nil {
			return true
		}
		return uint64(blockTime.UnixNano()) >= nanos
	}
	return false
}

// Allows reports whether another attempt is permitted after the given number
// of completed attempts. A nil policy allows only the first attempt.
func (r *RetryLogic) Allows(attempts uint64) bool {
	if r == nil {
		return attempts == 0
	}
	if r.Times.Indefinitely != nil {
		return true
	}
	if r.Times.Amount != nil {
		// Amount counts retries, on top of the initial attempt.
		return attempts <= *r.Times.Amount
	}
	return attempts == 0
}

// IsFinal reports whether the result retires the execution. A partial
// success is final only once no function is still retrying.
func (r ExecutionResult) IsFinal() bool {
	if r.PartialSuccess != nil {
		for _, fr := range r.PartialSuccess.FunctionResults {
			if fr == FunctionResultRetrying {
				return false
			}
		}
		return true
	}
	return r.Success != nil || r.Error != nil || r.Expired != nil || r.Evicted != nil
}

// Equal compares execution results structurally.
func (r ExecutionResult) Equal(other ExecutionResult) bool {
	a, errA := json.Marshal(r)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}
