package service

import (
	"database/sql"
	"errors"

	"github.com/meetup-planner/app/internal/database"
	"github.com/meetup-planner/app/internal/models"
	"github.com/rs/zerolog"
)

// RsvpService enforces the capacity invariant and status-transition rules
// for an event's attendee count. Every operation that both reads the
// counter and writes it runs inside a single transaction, so two
// concurrent requests cannot both observe a free slot and oversell it.
type RsvpService struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRsvpService(db *sql.DB, log zerolog.Logger) *RsvpService {
	return &RsvpService{db: db, log: log.With().Str("component", "rsvp").Logger()}
}

// HasRsvp reports whether an RSVP exists for the (event, user) pair.
func (s *RsvpService) HasRsvp(eventID, userID int64) (bool, error) {
	return database.HasRSVP(s.db, eventID, userID)
}

// ListForEvent returns all RSVPs for an event. No ordering is guaranteed;
// display ordering belongs to the presentation layer.
func (s *RsvpService) ListForEvent(eventID int64) ([]*models.RSVP, error) {
	return database.GetRSVPsForEvent(s.db, eventID)
}

// Create records a new RSVP if none exists and capacity allows. A "going"
// RSVP increments the attendee count in the same transaction as the
// insert. A full event is never downgraded to "interested" here; that
// relaxation belongs to callers that want it.
func (s *RsvpService) Create(eventID, userID int64, status, note string) OperationResult {
	if userID == 0 {
		return Failure(FailureValidation, "User is required.")
	}
	if !models.ValidRSVPStatus(status) {
		return Failure(FailureValidation, "Invalid RSVP status.")
	}
	if len(note) > models.MaxNoteLen {
		return Failure(FailureValidation, "Note is too long.")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return s.storeFailure("begin", err)
	}
	defer tx.Rollback()

	ev, err := database.GetEventByID(tx, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return Failure(FailureNotFound, "Event not found.")
	}
	if err != nil {
		return s.storeFailure("get event", err)
	}

	exists, err := database.HasRSVP(tx, eventID, userID)
	if err != nil {
		return s.storeFailure("check existing", err)
	}
	if exists {
		return Failure(FailureConflict, "RSVP already exists.")
	}

	if status == models.RSVPStatusGoing && ev.IsFull() {
		return Failure(FailureCapacityExceeded, "Event is full.")
	}

	rsvp := &models.RSVP{
		EventID: eventID,
		UserID:  userID,
		Status:  status,
		Note:    note,
	}
	if err := database.CreateRSVP(tx, rsvp); err != nil {
		return s.storeFailure("insert rsvp", err)
	}

	if status == models.RSVPStatusGoing {
		if err := database.AdjustAttendeeCount(tx, eventID, +1); err != nil {
			return s.storeFailure("increment count", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.storeFailure("commit", err)
	}
	return Success()
}

// Cancel removes the user's RSVP. A "going" RSVP decrements the attendee
// count, floored at zero, in the same transaction as the delete.
func (s *RsvpService) Cancel(eventID, userID int64) OperationResult {
	tx, err := s.db.Begin()
	if err != nil {
		return s.storeFailure("begin", err)
	}
	defer tx.Rollback()

	rsvp, err := database.GetRSVPByEventAndUser(tx, eventID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Failure(FailureNotFound, "RSVP not found.")
	}
	if err != nil {
		return s.storeFailure("get rsvp", err)
	}

	if rsvp.Status == models.RSVPStatusGoing {
		if err := database.AdjustAttendeeCount(tx, eventID, -1); err != nil {
			return s.storeFailure("decrement count", err)
		}
	}

	if err := database.DeleteRSVP(tx, eventID, userID); err != nil {
		return s.storeFailure("delete rsvp", err)
	}

	if err := tx.Commit(); err != nil {
		return s.storeFailure("commit", err)
	}
	return Success()
}

// ChangeStatus moves the user's RSVP to a new status. Transitions into
// "going" are capacity-checked; transitions out of "going" release the
// slot. Counter and status commit atomically.
func (s *RsvpService) ChangeStatus(eventID, userID int64, newStatus string) OperationResult {
	if !models.ValidRSVPStatus(newStatus) {
		return Failure(FailureValidation, "Invalid RSVP status.")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return s.storeFailure("begin", err)
	}
	defer tx.Rollback()

	rsvp, err := database.GetRSVPByEventAndUser(tx, eventID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Failure(FailureNotFound, "RSVP not found.")
	}
	if err != nil {
		return s.storeFailure("get rsvp", err)
	}

	ev, err := database.GetEventByID(tx, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return Failure(FailureNotFound, "Event not found.")
	}
	if err != nil {
		return s.storeFailure("get event", err)
	}

	if rsvp.Status != models.RSVPStatusGoing && newStatus == models.RSVPStatusGoing {
		if ev.IsFull() {
			return Failure(FailureCapacityExceeded, "Event is full.")
		}
		if err := database.AdjustAttendeeCount(tx, eventID, +1); err != nil {
			return s.storeFailure("increment count", err)
		}
	}

	if rsvp.Status == models.RSVPStatusGoing && newStatus != models.RSVPStatusGoing {
		if err := database.AdjustAttendeeCount(tx, eventID, -1); err != nil {
			return s.storeFailure("decrement count", err)
		}
	}

	if err := database.UpdateRSVPStatus(tx, rsvp.ID, newStatus); err != nil {
		return s.storeFailure("update status", err)
	}

	if err := tx.Commit(); err != nil {
		return s.storeFailure("commit", err)
	}
	return Success()
}

func (s *RsvpService) storeFailure(op string, err error) OperationResult {
	s.log.Error().Err(err).Str("op", op).Msg("store operation failed")
	return Failure(FailureStore, "A storage error occurred. Please try again.")
}
