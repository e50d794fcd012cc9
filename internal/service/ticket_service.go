package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticketflow/ticketflow/internal/domain"
	"github.com/ticketflow/ticketflow/internal/events"
	"github.com/ticketflow/ticketflow/internal/repository"
	apperrors "github.com/ticketflow/ticketflow/pkg/util/errorutil"
)

const (
	minTitleLength       = 5
	maxTitleLength       = 255
	minDescriptionLength = 10
	commentPreviewLength = 80
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload. A nil Priority
// selects the default.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    *string
}

// TicketUpdateInput describes a partial update. Nil fields are absent.
type TicketUpdateInput struct {
	Status          *string
	Priority        *string
	AssignedToEmail *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket opens a ticket on behalf of identity.
func (s *TicketService) CreateTicket(ctx context.Context, identity domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	priority := domain.TicketPriorityMedium

	details := map[string]any{}
	switch n := utf8.RuneCountInString(title); {
	case n < minTitleLength:
		details["title"] = fmt.Sprintf("must be at least %d characters", minTitleLength)
	case n > maxTitleLength:
		details["title"] = fmt.Sprintf("must be at most %d characters", maxTitleLength)
	case hasNUL(title):
		details["title"] = nulMessage
	}
	switch {
	case utf8.RuneCountInString(description) < minDescriptionLength:
		details["description"] = fmt.Sprintf("must be at least %d characters", minDescriptionLength)
	case hasNUL(description):
		details["description"] = nulMessage
	}
	if input.Priority != nil {
		priority = domain.TicketPriority(*input.Priority)
		if !priority.Valid() {
			details["priority"] = "must be one of " + joinValues(domain.TicketPriorities)
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket payload", details)
	}

	ticket := &domain.Ticket{
		Title:          title,
		Description:    description,
		Priority:       priority,
		Status:         domain.TicketStatusOpen,
		CreatedByEmail: identity.Email,
		CreatedByName:  domain.StorableName(identity.Name),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("create ticket: %w", err))
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    identity.Email,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// ListTickets returns every ticket to staff and only their own to everyone else.
func (s *TicketService) ListTickets(ctx context.Context, identity domain.Identity) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{}
	if !identity.IsStaff() {
		email := identity.Email
		filter.CreatedByEmail = &email
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list tickets: %w", err))
	}
	return tickets, nil
}

// UpdateTicket applies the present fields of input to ticket id.
func (s *TicketService) UpdateTicket(ctx context.Context, identity domain.Identity, id int64, input TicketUpdateInput) error {
	changes, err := validateUpdate(input)
	if err != nil {
		return err
	}

	if err := s.tickets.Update(ctx, id, changes); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NewNotFound("ticket")
		case errors.Is(err, repository.ErrNoChanges):
			return apperrors.NewValidationError("no fields to update", nil)
		default:
			return apperrors.NewInternalError(fmt.Errorf("update ticket %d: %w", id, err))
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: id,
		Actor:    identity.Email,
		Payload: events.TicketUpdatedPayload{
			Status:          changes.Status,
			Priority:        changes.Priority,
			AssignedToEmail: changes.AssignedToEmail,
		},
	})
	return nil
}

func validateUpdate(input TicketUpdateInput) (repository.TicketChanges, error) {
	var changes repository.TicketChanges
	details := map[string]any{}

	if input.Status != nil {
		status := domain.TicketStatus(*input.Status)
		if status.Valid() {
			changes.Status = &status
		} else {
			details["status"] = "must be one of " + joinValues(domain.TicketStatuses)
		}
	}
	if input.Priority != nil {
		priority := domain.TicketPriority(*input.Priority)
		if priority.Valid() {
			changes.Priority = &priority
		} else {
			details["priority"] = "must be one of " + joinValues(domain.TicketPriorities)
		}
	}
	if input.AssignedToEmail != nil {
		email := strings.TrimSpace(*input.AssignedToEmail)
		switch {
		case !isEmail(email):
			details["assigned_to_email"] = "must be a valid email address"
		case utf8.RuneCountInString(email) > domain.MaxEmailLength:
			details["assigned_to_email"] = fmt.Sprintf("must be at most %d characters", domain.MaxEmailLength)
		default:
			changes.AssignedToEmail = &email
		}
	}

	if len(details) > 0 {
		return changes, apperrors.NewValidationError("invalid update payload", details)
	}
	if changes.Empty() {
		return changes, apperrors.NewValidationError("no fields to update", nil)
	}
	return changes, nil
}

// AddComment appends a comment to ticket ticketID, labelled by the author's role.
func (s *TicketService) AddComment(ctx context.Context, identity domain.Identity, ticketID int64, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return nil, apperrors.NewValidationError("invalid comment payload", map[string]any{
			"content": "must not be empty",
		})
	case hasNUL(content):
		return nil, apperrors.NewValidationError("invalid comment payload", map[string]any{
			"content": nulMessage,
		})
	}

	comment := &domain.Comment{
		TicketID:  ticketID,
		UserEmail: identity.Email,
		UserRole:  identity.CommentRole(),
		Content:   content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("create comment on ticket %d: %w", ticketID, err))
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticketID,
		Actor:    identity.Email,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorRole:  comment.UserRole,
			BodyPreview: stringPreview(comment.Content, commentPreviewLength),
		},
	})
	return comment, nil
}

// ListComments returns the comments of a ticket, oldest first.
func (s *TicketService) ListComments(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list comments of ticket %d: %w", ticketID, err))
	}
	return comments, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	// The write already happened; a failing subscriber must not undo it.
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

const nulMessage = "must not contain NUL characters"

// hasNUL reports text Postgres refuses to store.
func hasNUL(value string) bool {
	return strings.ContainsRune(value, 0)
}

func isEmail(value string) bool {
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
