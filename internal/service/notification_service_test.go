package service

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ticketflow/ticketflow/internal/domain"
	"github.com/ticketflow/ticketflow/internal/events"
	"github.com/ticketflow/ticketflow/internal/observability"
	"github.com/ticketflow/ticketflow/internal/repository"
)

func TestNotificationService_LogsAndCountsEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.New(core), metrics).RegisterHandlers()

	tickets := repository.NewMemoryTicketRepository(nil)
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		CommentRepo: repository.NewMemoryCommentRepository(tickets, nil),
		Dispatcher:  dispatcher,
	})

	ctx := context.Background()
	ticket, err := svc.CreateTicket(ctx, ana, TicketCreateInput{Title: "Printer is broken", Description: "Paper jam on floor 3"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateTicket(ctx, support, ticket.ID, TicketUpdateInput{Status: strPtr(string(domain.TicketStatusInProgress))}))
	_, err = svc.AddComment(ctx, support, ticket.ID, "Looking into it")
	require.NoError(t, err)

	messages := make([]string, 0, logs.Len())
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{"TicketCreated", "TicketUpdated", "CommentAdded"}, messages)

	updated := logs.FilterMessage("TicketUpdated").All()[0].ContextMap()
	assert.Equal(t, "EN_PROGRESO", updated["status"])
	assert.Equal(t, "s@x.com", updated["actor"])

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `ticketflow_ticket_events_total{type="ticket_created"} 1`)
	assert.Contains(t, string(body), `ticketflow_ticket_events_total{type="comment_added"} 1`)
}

func TestNotificationService_NilDispatcher(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNotificationService(nil, nil, nil).RegisterHandlers()
	})
}
