package domain

import "time"

// Display labels stored with each comment.
const (
	CommentRoleSupport = "Soporte"
	CommentRoleUser    = "Usuario"
)

// Comment is an immutable entry in a ticket thread.
type Comment struct {
	ID        int64
	TicketID  int64
	UserEmail string
	UserRole  string
	Content   string
	CreatedAt time.Time
}
