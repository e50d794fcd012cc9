package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ticketflow/ticketflow/internal/events"
	"github.com/ticketflow/ticketflow/internal/observability"
)

// NotificationService reacts to ticket events. There is no outbound channel
// yet, so every event ends up as a structured log line and a metric sample.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service. metrics may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	fields := n.baseFields(event)
	if payload, ok := event.Payload.(events.TicketCreatedPayload); ok {
		fields = append(fields, zap.String("title", payload.Title), zap.String("priority", string(payload.Priority)))
	}
	n.logger.Info("TicketCreated", fields...)
	n.metrics.RecordTicketEvent(string(event.Type))
	return nil
}

func (n *NotificationService) handleTicketUpdated(_ context.Context, event events.Event) error {
	fields := n.baseFields(event)
	if payload, ok := event.Payload.(events.TicketUpdatedPayload); ok {
		if payload.Status != nil {
			fields = append(fields, zap.String("status", string(*payload.Status)))
		}
		if payload.Priority != nil {
			fields = append(fields, zap.String("priority", string(*payload.Priority)))
		}
		if payload.AssignedToEmail != nil {
			fields = append(fields, zap.String("assigned_to_email", *payload.AssignedToEmail))
		}
	}
	n.logger.Info("TicketUpdated", fields...)
	n.metrics.RecordTicketEvent(string(event.Type))
	return nil
}

func (n *NotificationService) handleCommentAdded(_ context.Context, event events.Event) error {
	fields := n.baseFields(event)
	if payload, ok := event.Payload.(events.CommentAddedPayload); ok {
		fields = append(fields,
			zap.Int64("comment_id", payload.CommentID),
			zap.String("author_role", payload.AuthorRole),
			zap.String("preview", payload.BodyPreview))
	}
	n.logger.Info("CommentAdded", fields...)
	n.metrics.RecordTicketEvent(string(event.Type))
	return nil
}

func (n *NotificationService) baseFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.Int64("ticket_id", event.TicketID),
		zap.String("actor", event.Actor),
	}
}
