package database

import (
	"database/sql"
	"time"

	"github.com/meetup-planner/app/internal/models"
)

// CreateEvent inserts a new event and returns it with all fields
// populated, including DB defaults like created_at and the ID.
func CreateEvent(q Queryer, ev *models.Event) (*models.Event, error) {
	var endDate any
	if ev.EndDate != nil {
		endDate = *ev.EndDate
	}

	res, err := q.Exec(`
		INSERT INTO events (title, description, start_date, end_date, location, capacity, created_by, attendee_count, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.Title, ev.Description, ev.StartDate, endDate, ev.Location, ev.Capacity, ev.CreatedBy, ev.AttendeeCount, ev.Status)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return GetEventByID(q, id)
}

const eventColumns = "id, title, description, start_date, end_date, location, capacity, created_by, attendee_count, status, created_at"

func scanEvent(row interface{ Scan(dest ...any) error }) (*models.Event, error) {
	ev := &models.Event{}
	var endDate sql.NullTime
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.StartDate, &endDate,
		&ev.Location, &ev.Capacity, &ev.CreatedBy, &ev.AttendeeCount, &ev.Status, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		t := endDate.Time
		ev.EndDate = &t
	}
	return ev, nil
}

// GetEventByID retrieves an event by its ID. Returns sql.ErrNoRows when
// no such event exists.
func GetEventByID(q Queryer, id int64) (*models.Event, error) {
	return scanEvent(q.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = ?", id))
}

// ListUpcomingEvents retrieves published events whose start date falls in
// [from, until], ordered ascending by start date.
func ListUpcomingEvents(q Queryer, from, until time.Time) ([]*models.Event, error) {
	rows, err := q.Query(`
		SELECT `+eventColumns+` FROM events
		WHERE status = ? AND start_date >= ? AND start_date <= ?
		ORDER BY start_date ASC
	`, models.EventStatusPublished, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent overwrites the mutable fields of an event. The created_by
// and attendee_count columns are deliberately not touched by this path.
func UpdateEvent(q Queryer, ev *models.Event) error {
	var endDate any
	if ev.EndDate != nil {
		endDate = *ev.EndDate
	}

	_, err := q.Exec(`
		UPDATE events
		SET title = ?, description = ?, start_date = ?, end_date = ?, location = ?, capacity = ?, status = ?
		WHERE id = ?
	`, ev.Title, ev.Description, ev.StartDate, endDate, ev.Location, ev.Capacity, ev.Status, ev.ID)
	return err
}

// AdjustAttendeeCount adds delta to an event's attendee count, flooring
// the result at zero.
func AdjustAttendeeCount(q Queryer, eventID int64, delta int) error {
	_, err := q.Exec("UPDATE events SET attendee_count = MAX(attendee_count + ?, 0) WHERE id = ?", delta, eventID)
	return err
}

// DeleteEvent removes an event row. RSVPs are cleaned up separately by
// the caller, inside the same transaction.
func DeleteEvent(q Queryer, id int64) error {
	_, err := q.Exec("DELETE FROM events WHERE id = ?", id)
	return err
}

// CountEvents returns the total number of events.
func CountEvents(q Queryer) (int, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}
