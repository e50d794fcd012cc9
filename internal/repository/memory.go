package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ticketflow/ticketflow/internal/domain"
)

var (
	_ TicketRepository  = (*MemoryTicketRepository)(nil)
	_ CommentRepository = (*MemoryCommentRepository)(nil)
)

// MemoryTicketRepository is a test fake for TicketRepository, shared by the
// service and HTTP tests; the server binary always uses the SQL store. It
// mirrors the SQL implementation's ordering and not-found semantics.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	nextID  int64
	tickets map[int64]domain.Ticket
	now     func() time.Time
}

// NewMemoryTicketRepository returns an empty store. now may be nil.
func NewMemoryTicketRepository(now func() time.Time) *MemoryTicketRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryTicketRepository{tickets: make(map[int64]domain.Ticket), now: now}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = r.nextID
	ticket.CreatedAt = r.now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *MemoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Ticket{}
	for _, t := range r.tickets {
		if filter.CreatedByEmail != nil && t.CreatedByEmail != *filter.CreatedByEmail {
			continue
		}
		result = append(result, cloneTicket(t))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *MemoryTicketRepository) Update(_ context.Context, id int64, changes TicketChanges) error {
	if changes.Empty() {
		return ErrNoChanges
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return ErrNotFound
	}
	if changes.Status != nil {
		t.Status = *changes.Status
	}
	if changes.Priority != nil {
		t.Priority = *changes.Priority
	}
	if changes.AssignedToEmail != nil {
		assignee := *changes.AssignedToEmail
		t.AssignedToEmail = &assignee
	}
	t.UpdatedAt = r.now()
	r.tickets[id] = t
	return nil
}

// Exists reports whether a ticket with id was created.
func (r *MemoryTicketRepository) Exists(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tickets[id]
	return ok
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssignedToEmail != nil {
		assignee := *t.AssignedToEmail
		t.AssignedToEmail = &assignee
	}
	return t
}

// MemoryCommentRepository is the CommentRepository test fake. It enforces
// the same ticket reference check as the foreign key in SQL.
type MemoryCommentRepository struct {
	mu       sync.RWMutex
	nextID   int64
	comments []domain.Comment
	tickets  *MemoryTicketRepository
	now      func() time.Time
}

// NewMemoryCommentRepository returns an empty store bound to tickets.
func NewMemoryCommentRepository(tickets *MemoryTicketRepository, now func() time.Time) *MemoryCommentRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryCommentRepository{tickets: tickets, now: now}
}

func (r *MemoryCommentRepository) Create(_ context.Context, comment *domain.Comment) error {
	if r.tickets != nil && !r.tickets.Exists(comment.TicketID) {
		return ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = r.now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *MemoryCommentRepository) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Comment{}
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
