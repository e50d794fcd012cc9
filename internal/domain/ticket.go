package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "ABIERTO"
	TicketStatusInProgress TicketStatus = "EN_PROGRESO"
	TicketStatusResolved   TicketStatus = "RESUELTO"
	TicketStatusClosed     TicketStatus = "CERRADO"
)

// TicketStatuses lists every accepted status in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is one of the enumerated statuses.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "BAJA"
	TicketPriorityMedium   TicketPriority = "MEDIA"
	TicketPriorityHigh     TicketPriority = "ALTA"
	TicketPriorityCritical TicketPriority = "CRITICA"
)

// TicketPriorities lists every accepted priority from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              int64
	Title           string
	Description     string
	Priority        TicketPriority
	Status          TicketStatus
	CreatedByEmail  string
	CreatedByName   string
	AssignedToEmail *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
