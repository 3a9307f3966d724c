package authorization

import "errors"

// Creation-time validation errors, never retried.
var (
	ErrEmptyLabel                     = errors.New("authorization label cannot be empty")
	ErrLabelExists                    = errors.New("authorization label already exists")
	ErrNoFunctions                    = errors.New("subroutine must have at least one function")
	ErrDifferentFunctionDomains       = errors.New("all functions must be on the same domain")
	ErrDomainNotRegistered            = errors.New("external domain is not registered")
	ErrPermissionlessWithHighPriority = errors.New("permissionless authorizations cannot have high priority")
	ErrInvalidBudget                  = errors.New("invalid call limit amount")
)

// Call-time authorization errors; the caller resubmits once the condition
// is satisfied.
var (
	ErrUnknownLabel            = errors.New("authorization does not exist")
	ErrNotEnabled              = errors.New("authorization is not enabled")
	ErrAlreadyEnabled          = errors.New("authorization is already enabled")
	ErrAlreadyDisabled         = errors.New("authorization is already disabled")
	ErrNotActiveYet            = errors.New("authorization is not active yet")
	ErrExpired                 = errors.New("authorization is expired")
	ErrNotAllowed              = errors.New("caller is not allowed to use this authorization")
	ErrRequiresOneToken        = errors.New("exactly one permission token must be sent with the call")
	ErrMaxConcurrentExecutions = errors.New("authorization reached its maximum concurrent executions")
)

// Message validation errors; always a hard reject.
var (
	ErrInvalidAmount        = errors.New("message count does not match function count")
	ErrInvalidType          = errors.New("message type does not match the function's message type")
	ErrInvalidStructure     = errors.New("message must be a JSON object with exactly one top-level key")
	ErrDoesNotMatch         = errors.New("message name does not match the function's message name")
	ErrInvalidMessageParams = errors.New("message params violate the function's restrictions")
)

var (
	ErrNotOwner             = errors.New("only the owner can do that")
	ErrNoPendingOwner       = errors.New("no pending ownership transfer")
	ErrTransferExpired      = errors.New("pending ownership transfer has expired")
	ErrNotProcessor         = errors.New("callbacks are accepted only from the processor")
	ErrUnknownExecutionID   = errors.New("unknown execution id")
	ErrBridgeDeliveryFailed = errors.New("bridge delivery failed")
)
