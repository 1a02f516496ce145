package models

import "time"

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Field limits enforced on create and update.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 2000
	MaxLocationLen    = 200
)

type Event struct {
	ID            int64
	Title         string
	Description   string
	StartDate     time.Time
	EndDate       *time.Time
	Location      string
	Capacity      int // 0 means unlimited
	CreatedBy     int64
	AttendeeCount int
	Status        string
	CreatedAt     time.Time
}

// IsFull reports whether the event has a capacity and the going count
// has reached it.
func (e *Event) IsFull() bool {
	return e.Capacity > 0 && e.AttendeeCount >= e.Capacity
}

// ValidEventStatus reports whether s is one of the known event statuses.
func ValidEventStatus(s string) bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}
