// Package logpub writes audit events to the structured log. It is the
// fallback when no broker is configured.
package logpub

import (
	"context"
	"log/slog"

	audit "sportclub/pkg/platform/audit"
)

type Publisher struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	p.logger.InfoContext(ctx, "audit event",
		"action", string(event.Action),
		"category", string(event.Category),
		"user_id", event.UserID.String(),
		"actor_id", event.ActorID,
		"club_id", event.ClubID,
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"client_browser", event.Client.Browser,
		"client_os", event.Client.OS,
		"client_mobile", event.Client.Mobile,
	)
	return nil
}
