package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ticketflow/ticketflow/internal/domain"
)

// TicketFilter scopes ticket listings. A nil CreatedByEmail lists every ticket.
type TicketFilter struct {
	CreatedByEmail *string
}

// TicketChanges carries the fields of a partial update. Nil fields are left
// untouched.
type TicketChanges struct {
	Status          *domain.TicketStatus
	Priority        *domain.TicketPriority
	AssignedToEmail *string
}

// Empty reports whether no field is set.
func (c TicketChanges) Empty() bool {
	return c.Status == nil && c.Priority == nil && c.AssignedToEmail == nil
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Update(ctx context.Context, id int64, changes TicketChanges) error
}

type ticketRepository struct {
	db *sql.DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, title, description, priority, status, created_by_email, created_by_name,
               assigned_to_email, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, created_by_email, created_by_name, assigned_to_email)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Priority),
		string(ticket.Status),
		ticket.CreatedByEmail,
		ticket.CreatedByName,
		ticket.AssignedToEmail,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	args := []any{}

	if filter.CreatedByEmail != nil {
		args = append(args, *filter.CreatedByEmail)
		query += fmt.Sprintf(" WHERE created_by_email=$%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Update(ctx context.Context, id int64, changes TicketChanges) error {
	if changes.Empty() {
		return ErrNoChanges
	}

	sets := []string{}
	args := []any{}
	if changes.Status != nil {
		args = append(args, string(*changes.Status))
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if changes.Priority != nil {
		args = append(args, string(*changes.Priority))
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if changes.AssignedToEmail != nil {
		args = append(args, *changes.AssignedToEmail)
		sets = append(sets, fmt.Sprintf("assigned_to_email=$%d", len(args)))
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTickets(rows *sql.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Priority,
			&ticket.Status,
			&ticket.CreatedByEmail,
			&ticket.CreatedByName,
			&ticket.AssignedToEmail,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
