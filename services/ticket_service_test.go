package services

import (
	"context"
	"testing"

	"github.com/lumeno/academy-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketLifecycle(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	user := createUser(t, db, free.ID, "student")
	admin := createUser(t, db, free.ID, "admin")
	svc := NewTicketService(db, NewNotificationService(db))

	ticket, err := svc.CreateTicket(context.Background(), user, "Video won't play", "The player shows a black screen.")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusOpen, ticket.Status)

	// A staff reply moves the ticket to pending and notifies the user
	_, err = svc.Reply(context.Background(), admin, ticket.ID, "Which browser are you on?")
	require.NoError(t, err)

	loaded, err := svc.GetTicket(context.Background(), user, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusPending, loaded.Status)
	require.Len(t, loaded.Messages, 2)
	assert.True(t, loaded.Messages[1].IsStaff)

	var notifs int64
	require.NoError(t, db.Model(&model.UserNotification{}).Where("user_id = ?", user.ID).Count(&notifs).Error)
	assert.EqualValues(t, 1, notifs)

	// A user reply reopens it
	_, err = svc.Reply(context.Background(), user, ticket.ID, "Firefox.")
	require.NoError(t, err)
	loaded, err = svc.GetTicket(context.Background(), user, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusOpen, loaded.Status)

	// Closed tickets reject further replies
	require.NoError(t, svc.SetStatus(context.Background(), ticket.ID, model.TicketStatusClosed))
	_, err = svc.Reply(context.Background(), user, ticket.ID, "One more thing")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTicketOwnership(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	owner := createUser(t, db, free.ID, "student")
	stranger := createUser(t, db, free.ID, "student")
	admin := createUser(t, db, free.ID, "admin")
	svc := NewTicketService(db, nil)

	ticket, err := svc.CreateTicket(context.Background(), owner, "Billing question", "I was charged twice.")
	require.NoError(t, err)

	_, err = svc.GetTicket(context.Background(), stranger, ticket.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetTicket(context.Background(), admin, ticket.ID)
	assert.NoError(t, err)

	_, err = svc.GetTicket(context.Background(), owner, 99999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateTicket(context.Background(), nil, "x", "y")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTicketSetStatus(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	user := createUser(t, db, free.ID, "student")
	svc := NewTicketService(db, nil)

	ticket, err := svc.CreateTicket(context.Background(), user, "Question", "Hello")
	require.NoError(t, err)

	assert.Error(t, svc.SetStatus(context.Background(), ticket.ID, model.TicketStatus("resolved")))
	assert.ErrorIs(t, svc.SetStatus(context.Background(), 99999, model.TicketStatusClosed), ErrNotFound)
	assert.NoError(t, svc.SetStatus(context.Background(), ticket.ID, model.TicketStatusClosed))
}

func TestListAllTicketsFilter(t *testing.T) {
	db := newTestDB(t)
	free, _, _ := seedTiers(t, db)
	user := createUser(t, db, free.ID, "student")
	svc := NewTicketService(db, nil)

	first, err := svc.CreateTicket(context.Background(), user, "First", "a")
	require.NoError(t, err)
	_, err = svc.CreateTicket(context.Background(), user, "Second", "b")
	require.NoError(t, err)
	require.NoError(t, svc.SetStatus(context.Background(), first.ID, model.TicketStatusClosed))

	open, total, err := svc.ListAllTickets(context.Background(), "open", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, open, 1)
	assert.Equal(t, "Second", open[0].Subject)

	all, total, err := svc.ListAllTickets(context.Background(), "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)
}
