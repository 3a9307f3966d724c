package processor

import "errors"

var (
	ErrPaused                 = errors.New("processor is paused")
	ErrNotAuthorizationModule = errors.New("only the authorization module can do that")
	ErrInvalidQueuePosition   = errors.New("no batch at that queue position")
)
