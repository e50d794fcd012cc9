package dto

import (
	"time"

	"github.com/ticketflow/ticketflow/internal/domain"
)

// CreateTicketRequest payload. Creator and status fields are not accepted
// from clients.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    *string `json:"priority"`
}

// UpdateTicketRequest payload. Absent and null fields are left unchanged.
type UpdateTicketRequest struct {
	Status          *string `json:"status"`
	Priority        *string `json:"priority"`
	AssignedToEmail *string `json:"assigned_to_email"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID              int64                 `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Priority        domain.TicketPriority `json:"priority"`
	Status          domain.TicketStatus   `json:"status"`
	CreatedByEmail  string                `json:"created_by_email"`
	CreatedByName   string                `json:"created_by_name"`
	AssignedToEmail *string               `json:"assigned_to_email"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// CommentResponse is the wire shape of a comment.
type CommentResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	UserEmail string    `json:"user_email"`
	UserRole  string    `json:"user_role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTicketResponse acknowledges a new ticket.
type CreateTicketResponse struct {
	Message  string `json:"message"`
	TicketID int64  `json:"ticketId"`
}

// CreateCommentResponse acknowledges a new comment.
type CreateCommentResponse struct {
	Message   string `json:"message"`
	CommentID int64  `json:"commentId"`
}

// MessageResponse carries a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewTicketResponse maps a domain ticket to its wire shape.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        t.Priority,
		Status:          t.Status,
		CreatedByEmail:  t.CreatedByEmail,
		CreatedByName:   t.CreatedByName,
		AssignedToEmail: t.AssignedToEmail,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// NewCommentResponse maps a domain comment to its wire shape.
func NewCommentResponse(c domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		UserEmail: c.UserEmail,
		UserRole:  c.UserRole,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
