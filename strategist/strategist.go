// Package strategist drives processor queues from off-chain. It repeatedly
// submits Tick transactions, rate limited so a busy queue does not flood the
// node with broadcasts.
package strategist

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/valence-protocol/valence-go/logger"
)

// TickSender submits a single Tick to a processor. chainio.ProcessorClient
// satisfies it through SenderFunc; tests inject in-process runtimes.
type TickSender interface {
	SendTick(ctx context.Context) error
}

type SenderFunc func(ctx context.Context) error

func (f SenderFunc) SendTick(ctx context.Context) error {
	return f(ctx)
}

type Strategist struct {
	sender     TickSender
	limiter    *rate.Limiter
	logger     logger.Logger
	errBackoff time.Duration
}

func NewStrategist(sender TickSender, rateLimit rate.Limit, l logger.Logger) *Strategist {
	return &Strategist{
		sender:     sender,
		limiter:    rate.NewLimiter(rateLimit, 1),
		logger:     l,
		errBackoff: 5 * time.Second,
	}
}

// Run ticks the processor until the context is cancelled. Tick failures are
// logged and retried after a backoff; an empty queue is not an error at the
// processor so a successful no-op tick simply waits for the next permit.
func (s *Strategist) Run(ctx context.Context) error {
	s.logger.Info("Strategist starting")
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := s.sender.SendTick(ctx); err != nil {
			s.logger.Error("Failed to tick processor", logger.WithField("error", err.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.errBackoff):
			}
			continue
		}

		s.logger.Debug("Processor ticked")
	}
}
