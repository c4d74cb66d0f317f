package domain

import "time"

// MaxCommentLen bounds comment text after whitespace trimming.
const MaxCommentLen = 1000

// Comment is a threaded message attached to a ticket. ParentID, when set,
// must reference another comment on the same ticket. Comments are
// insertion-ordered per ticket and never mutated.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	ParentID  *string
	Text      string
	CreatedAt time.Time
}
