package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethub/helpdesk/internal/domain"
)

func TestAddCommentAndThreading(t *testing.T) {
	f := newTicketFixture(t)
	alice := f.newUser(t, "alice", domain.RoleUser)
	ctx := context.Background()

	ticket, err := f.tickets.Create(ctx, alice, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	root, err := f.comments.Add(ctx, alice, ticket.ID, "  first post  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "first post", root.Text, "text is trimmed")
	assert.Nil(t, root.ParentID)

	reply, err := f.comments.Add(ctx, alice, ticket.ID, "a reply", &root.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	// Chained threading: replying to a reply is allowed.
	deep, err := f.comments.Add(ctx, alice, ticket.ID, "deeper", &reply.ID)
	require.NoError(t, err)
	assert.Equal(t, reply.ID, *deep.ParentID)

	listed, err := f.comments.List(ctx, alice, ticket.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, root.ID, listed[0].ID, "ascending insertion order")
	assert.Equal(t, reply.ID, listed[1].ID)
	assert.Equal(t, deep.ID, listed[2].ID)

	// The comment log never touches the ticket record.
	refreshed, _, err := f.tickets.Get(ctx, alice, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), refreshed.Version)
	assert.Equal(t, ticket.UpdatedAt, refreshed.UpdatedAt)
}

func TestAddCommentRejectsCrossTicketParent(t *testing.T) {
	f := newTicketFixture(t)
	alice := f.newUser(t, "alice", domain.RoleUser)
	ctx := context.Background()

	ticketA, err := f.tickets.Create(ctx, alice, TicketCreateInput{Title: "a", Description: "d"})
	require.NoError(t, err)
	ticketB, err := f.tickets.Create(ctx, alice, TicketCreateInput{Title: "b", Description: "d"})
	require.NoError(t, err)

	parent, err := f.comments.Add(ctx, alice, ticketA.ID, "on ticket a", nil)
	require.NoError(t, err)

	_, err = f.comments.Add(ctx, alice, ticketB.ID, "wrong thread", &parent.ID)
	de := domainErr(t, err)
	assert.Equal(t, "INVALID_PARENT", de.Code)
}

func TestAddCommentParentNotFound(t *testing.T) {
	f := newTicketFixture(t)
	alice := f.newUser(t, "alice", domain.RoleUser)
	ctx := context.Background()

	ticket, err := f.tickets.Create(ctx, alice, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	missing := "missing-parent"
	_, err = f.comments.Add(ctx, alice, ticket.ID, "text", &missing)
	de := domainErr(t, err)
	assert.Equal(t, "NOT_FOUND", de.Code)
}

func TestAddCommentPermissions(t *testing.T) {
	f := newTicketFixture(t)
	alice := f.newUser(t, "alice", domain.RoleUser)
	carol := f.newUser(t, "carol", domain.RoleUser)
	agent := f.newUser(t, "bob", domain.RoleAgent)
	ctx := context.Background()

	ticket, err := f.tickets.Create(ctx, alice, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	_, err = f.comments.Add(ctx, carol, ticket.ID, "drive-by", nil)
	de := domainErr(t, err)
	assert.Equal(t, "PERMISSION_DENIED", de.Code)

	_, err = f.comments.Add(ctx, agent, ticket.ID, "triage note", nil)
	assert.NoError(t, err, "agents may comment on any ticket")
}

func TestAddCommentValidation(t *testing.T) {
	f := newTicketFixture(t)
	alice := f.newUser(t, "alice", domain.RoleUser)
	ctx := context.Background()

	ticket, err := f.tickets.Create(ctx, alice, TicketCreateInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	_, err = f.comments.Add(ctx, alice, ticket.ID, "   ", nil)
	de := domainErr(t, err)
	assert.Equal(t, "VALIDATION_ERROR", de.Code)
	assert.Equal(t, "text", de.Field)

	_, err = f.comments.Add(ctx, alice, ticket.ID, strings.Repeat("a", domain.MaxCommentLen+1), nil)
	de = domainErr(t, err)
	assert.Equal(t, "VALIDATION_ERROR", de.Code)

	_, err = f.comments.Add(ctx, alice, "missing-ticket", "text", nil)
	de = domainErr(t, err)
	assert.Equal(t, "NOT_FOUND", de.Code)
}
