package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSLABreached(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := created.Add(SLAWindow)

	cases := []struct {
		name     string
		status   TicketStatus
		now      time.Time
		breached bool
	}{
		{"open before deadline", TicketStatusOpen, due.Add(-time.Minute), false},
		{"open past deadline", TicketStatusOpen, due.Add(time.Minute), true},
		{"in progress past deadline", TicketStatusInProgress, due.Add(time.Hour), true},
		{"closed past deadline", TicketStatusClosed, due.Add(time.Hour), true},
		{"resolved past deadline", TicketStatusResolved, due.Add(time.Hour), false},
		{"resolved before deadline", TicketStatusResolved, due.Add(-time.Hour), false},
		{"exactly at deadline", TicketStatusOpen, due, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ticket := Ticket{Status: tc.status, DueAt: due}
			assert.Equal(t, tc.breached, ticket.SLABreached(tc.now))
		})
	}
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, TicketStatusInProgress.Valid())
	assert.False(t, TicketStatus("reopened").Valid())
	assert.True(t, TicketPriorityUrgent.Valid())
	assert.False(t, TicketPriority("critical").Valid())
	assert.True(t, RoleAgent.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.True(t, RoleAdmin.CanTriage())
	assert.False(t, RoleUser.CanTriage())
}
