package sse

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/approval-hub/approval-hub/internal/domain/notification"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
)

// StatusPublisher pushes workflow status events to every connected client.
// The invoicing subsystem consumes them to keep invoice state in sync.
type StatusPublisher struct {
	hub    *Hub
	logger zerolog.Logger
}

func NewStatusPublisher(hub *Hub, logger zerolog.Logger) *StatusPublisher {
	return &StatusPublisher{
		hub:    hub,
		logger: logger.With().Str("component", "status-publisher").Logger(),
	}
}

func (p *StatusPublisher) PublishStatus(ev workflow.StatusEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal status event")
		return
	}
	p.logger.Info().
		Str("invoiceId", ev.InvoiceID.String()).
		Str("status", string(ev.WorkflowStatus)).
		Msg("workflow status published")
	p.hub.BroadcastToAll(notification.NewSSEMessage("workflow_status", payload))
}
