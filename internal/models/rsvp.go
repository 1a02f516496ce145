package models

import "time"

const (
	RSVPStatusGoing      = "going"
	RSVPStatusInterested = "interested"
	RSVPStatusNotGoing   = "not_going"
)

// MaxNoteLen is the limit for the optional RSVP note.
const MaxNoteLen = 500

type RSVP struct {
	ID        int64
	EventID   int64
	UserID    int64
	Status    string
	Note      string
	CreatedAt time.Time
	UserEmail string // Optional: for easier display in templates
}

// ValidRSVPStatus reports whether s is one of the known RSVP statuses.
func ValidRSVPStatus(s string) bool {
	switch s {
	case RSVPStatusGoing, RSVPStatusInterested, RSVPStatusNotGoing:
		return true
	}
	return false
}
