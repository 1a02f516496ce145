package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/meetup-planner/app/internal/database"
	"github.com/meetup-planner/app/internal/models"
	"github.com/rs/zerolog"
)

// EventService owns event CRUD and the ownership checks for edit and
// delete. The boundary authorization gate is a convenience; these checks
// are authoritative and hold even if the gate is bypassed.
type EventService struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewEventService(db *sql.DB, log zerolog.Logger) *EventService {
	return &EventService{db: db, log: log.With().Str("component", "event").Logger()}
}

// GetByID returns the event, or nil when absent.
func (s *EventService) GetByID(id int64) (*models.Event, error) {
	ev, err := database.GetEventByID(s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ev, err
}

// ListUpcoming returns published events starting between one day ago and
// daysAhead days from now, ordered ascending by start date.
func (s *EventService) ListUpcoming(daysAhead int) ([]*models.Event, error) {
	now := time.Now().UTC()
	return database.ListUpcomingEvents(s.db, now.AddDate(0, 0, -1), now.AddDate(0, 0, daysAhead))
}

func validateEvent(ev *models.Event) OperationResult {
	if ev.Title == "" {
		return Failure(FailureValidation, "Title is required.")
	}
	if len(ev.Title) > models.MaxTitleLen {
		return Failure(FailureValidation, "Title is too long.")
	}
	if len(ev.Description) > models.MaxDescriptionLen {
		return Failure(FailureValidation, "Description is too long.")
	}
	if len(ev.Location) > models.MaxLocationLen {
		return Failure(FailureValidation, "Location is too long.")
	}
	if ev.Capacity < 0 {
		return Failure(FailureValidation, "Capacity must not be negative.")
	}
	if ev.EndDate != nil && ev.EndDate.Before(ev.StartDate) {
		return Failure(FailureValidation, "End date must be after the start date.")
	}
	if ev.Status != "" && !models.ValidEventStatus(ev.Status) {
		return Failure(FailureValidation, "Invalid event status.")
	}
	return Success()
}

// Create inserts a new event owned by createdBy. The attendee count
// always starts at zero and an unset status defaults to published.
func (s *EventService) Create(ev *models.Event, createdBy int64) (*models.Event, OperationResult) {
	if res := validateEvent(ev); !res.Succeeded {
		return nil, res
	}

	ev.CreatedBy = createdBy
	ev.AttendeeCount = 0
	if ev.Status == "" {
		ev.Status = models.EventStatusPublished
	}

	created, err := database.CreateEvent(s.db, ev)
	if err != nil {
		return nil, s.storeFailure("insert event", err)
	}
	return created, Success()
}

// Update overwrites the mutable fields of an existing event. Only the
// owner or an admin may edit; created_by and attendee_count are never
// overwritten by this path.
func (s *EventService) Update(ev *models.Event, currentUserID int64, isAdmin bool) OperationResult {
	if res := validateEvent(ev); !res.Succeeded {
		return res
	}

	existing, err := database.GetEventByID(s.db, ev.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return Failure(FailureNotFound, "Event not found.")
	}
	if err != nil {
		return s.storeFailure("get event", err)
	}

	if !isAdmin && existing.CreatedBy != currentUserID {
		return Failure(FailureForbidden, "Only the owner or an admin may edit this event.")
	}

	if ev.Status == "" {
		ev.Status = existing.Status
	}
	if err := database.UpdateEvent(s.db, ev); err != nil {
		return s.storeFailure("update event", err)
	}
	return Success()
}

// Delete removes an event together with all of its RSVPs in one
// transaction, so no orphaned RSVP remains observable.
func (s *EventService) Delete(eventID, currentUserID int64, isAdmin bool) OperationResult {
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

	if !isAdmin && ev.CreatedBy != currentUserID {
		return Failure(FailureForbidden, "Only the owner or an admin may delete this event.")
	}

	if err := database.DeleteRSVPsForEvent(tx, eventID); err != nil {
		return s.storeFailure("delete rsvps", err)
	}
	if err := database.DeleteEvent(tx, eventID); err != nil {
		return s.storeFailure("delete event", err)
	}

	if err := tx.Commit(); err != nil {
		return s.storeFailure("commit", err)
	}
	return Success()
}

func (s *EventService) storeFailure(op string, err error) OperationResult {
	s.log.Error().Err(err).Str("op", op).Msg("store operation failed")
	return Failure(FailureStore, "A storage error occurred. Please try again.")
}
