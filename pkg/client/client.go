// Package client is a typed HTTP client for the TicketFlow API. It is what
// ticketctl talks to and carries no server code.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Ticket mirrors the API's ticket representation.
type Ticket struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Priority        string    `json:"priority"`
	Status          string    `json:"status"`
	CreatedByEmail  string    `json:"created_by_email"`
	CreatedByName   string    `json:"created_by_name"`
	AssignedToEmail *string   `json:"assigned_to_email"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Comment mirrors the API's comment representation.
type Comment struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	UserEmail string    `json:"user_email"`
	UserRole  string    `json:"user_role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTicketRequest is the body of a ticket creation. An empty Priority
// leaves the server default in place.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
}

// UpdateTicketRequest is a partial update; nil fields are not sent.
type UpdateTicketRequest struct {
	Status          *string `json:"status,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	AssignedToEmail *string `json:"assigned_to_email,omitempty"`
}

// Created acknowledges a create call. ID holds ticketId or commentId.
type Created struct {
	Message string
	ID      int64
}

// Client calls the API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New returns a client rooted at baseURL (for example
// "http://localhost:4000/api").
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTickets returns the tickets visible to the token holder.
func (c *Client) ListTickets(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets", nil, &tickets, "failed to fetch tickets"); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CreateTicket opens a ticket and returns its id.
func (c *Client) CreateTicket(ctx context.Context, req CreateTicketRequest) (Created, error) {
	var resp struct {
		Message  string `json:"message"`
		TicketID int64  `json:"ticketId"`
	}
	if err := c.do(ctx, http.MethodPost, "/tickets", req, &resp, "failed to create ticket"); err != nil {
		return Created{}, err
	}
	return Created{Message: resp.Message, ID: resp.TicketID}, nil
}

// UpdateTicket changes status, priority or assignee of a ticket.
func (c *Client) UpdateTicket(ctx context.Context, id int64, req UpdateTicketRequest) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPatch, ticketPath(id), req, &resp, "failed to update ticket"); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ListComments returns a ticket's comments, oldest first.
func (c *Client) ListComments(ctx context.Context, ticketID int64) ([]Comment, error) {
	var comments []Comment
	if err := c.do(ctx, http.MethodGet, ticketPath(ticketID)+"/comments", nil, &comments, "failed to fetch comments"); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment on a ticket.
func (c *Client) AddComment(ctx context.Context, ticketID int64, content string) (Created, error) {
	body := map[string]string{"content": content}
	var resp struct {
		Message   string `json:"message"`
		CommentID int64  `json:"commentId"`
	}
	if err := c.do(ctx, http.MethodPost, ticketPath(ticketID)+"/comments", body, &resp, "failed to add comment"); err != nil {
		return Created{}, err
	}
	return Created{Message: resp.Message, ID: resp.CommentID}, nil
}

func ticketPath(id int64) string {
	return "/tickets/" + strconv.FormatInt(id, 10)
}

// do sends one request. fallback is the error message used when the server
// response carries none.
func (c *Client) do(ctx context.Context, method, path string, body, out any, fallback string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", fallback, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", fallback, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw, fallback)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", fallback, err)
	}
	return nil
}
