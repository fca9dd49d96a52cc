// Package fallback sends audit events to a primary publisher behind a
// circuit breaker and diverts them to a secondary one while it is down.
package fallback

import (
	"context"
	"log/slog"

	audit "sportclub/pkg/platform/audit"
	"sportclub/pkg/platform/circuit"
)

// Emitter is implemented by every audit publisher.
type Emitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Publisher struct {
	primary   Emitter
	secondary Emitter
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

func New(primary, secondary Emitter, breaker *circuit.Breaker, logger *slog.Logger) *Publisher {
	return &Publisher{primary: primary, secondary: secondary, breaker: breaker, logger: logger}
}

// Emit never loses an event to a primary outage: failures and open-breaker
// periods go to the secondary publisher.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.breaker.Allow() {
		err := p.primary.Emit(ctx, event)
		if err == nil {
			if _, change := p.breaker.RecordSuccess(); change.Closed {
				p.logger.InfoContext(ctx, "audit publisher recovered", "breaker", p.breaker.Name())
			}
			return nil
		}
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "audit publisher circuit opened",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		} else {
			p.logger.WarnContext(ctx, "audit publish failed, using fallback",
				"breaker", p.breaker.Name(),
				"action", string(event.Action),
				"error", err,
			)
		}
	}
	return p.secondary.Emit(ctx, event)
}
