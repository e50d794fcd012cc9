package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newTestAPI(t *testing.T, status int, response string) (*Client, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &rec.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", "tok-123", WithHTTPClient(srv.Client())), rec
}

func TestListTickets(t *testing.T) {
	c, rec := newTestAPI(t, http.StatusOK, `[{"id":7,"title":"Printer is broken","priority":"ALTA","status":"ABIERTO","created_by_email":"a@x.com","assigned_to_email":null,"created_at":"2024-05-01T09:00:00Z"}]`)

	tickets, err := c.ListTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, int64(7), tickets[0].ID)
	assert.Equal(t, "ALTA", tickets[0].Priority)
	assert.Nil(t, tickets[0].AssignedToEmail)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/tickets", rec.path)
	assert.Equal(t, "Bearer tok-123", rec.auth)
}

func TestCreateTicket(t *testing.T) {
	c, rec := newTestAPI(t, http.StatusCreated, `{"message":"Ticket creado exitosamente","ticketId":42}`)

	created, err := c.CreateTicket(context.Background(), CreateTicketRequest{Title: "Printer is broken", Description: "Paper jam on floor 3"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, "Ticket creado exitosamente", created.Message)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "Printer is broken", rec.body["title"])
	assert.NotContains(t, rec.body, "priority", "empty priority is left to the server")
}

func TestUpdateTicket_SendsOnlyPresentFields(t *testing.T) {
	c, rec := newTestAPI(t, http.StatusOK, `{"message":"Ticket actualizado"}`)
	status := "RESUELTO"

	msg, err := c.UpdateTicket(context.Background(), 3, UpdateTicketRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Ticket actualizado", msg)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/api/tickets/3", rec.path)
	assert.Equal(t, map[string]any{"status": "RESUELTO"}, rec.body)
}

func TestComments(t *testing.T) {
	c, rec := newTestAPI(t, http.StatusCreated, `{"message":"Comentario agregado","commentId":9}`)
	created, err := c.AddComment(context.Background(), 3, "On it")
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, "/api/tickets/3/comments", rec.path)
	assert.Equal(t, "On it", rec.body["content"])

	c, _ = newTestAPI(t, http.StatusOK, `[{"id":1,"ticket_id":3,"user_role":"Soporte","content":"On it"}]`)
	comments, err := c.ListComments(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Soporte", comments[0].UserRole)
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
		code    string
	}{
		{"envelope", http.StatusBadRequest, `{"error":{"code":"VALIDATION_FAILED","message":"invalid ticket payload","details":{"title":"too short"}}}`, "invalid ticket payload", "VALIDATION_FAILED"},
		{"plain string", http.StatusForbidden, `{"error":"No autorizado"}`, "No autorizado", ""},
		{"no body", http.StatusInternalServerError, ``, "failed to create ticket", ""},
		{"html", http.StatusBadGateway, `<html>bad gateway</html>`, "failed to create ticket", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestAPI(t, tc.status, tc.body)
			_, err := c.CreateTicket(context.Background(), CreateTicketRequest{Title: "x"})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.message, apiErr.Message)
			assert.Equal(t, tc.code, apiErr.Code)
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	c, _ := newTestAPI(t, http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"invalid or expired token"}}`)
	_, err := c.ListTickets(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsForbidden(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(nil))
}
