package database

import (
	"github.com/meetup-planner/app/internal/models"
)

// CreateRSVP inserts a new RSVP. The UNIQUE(event_id, user_id) constraint
// rejects duplicates; the services check for an existing row first so the
// constraint only backstops races.
func CreateRSVP(q Queryer, rsvp *models.RSVP) error {
	_, err := q.Exec(`
		INSERT INTO rsvps (event_id, user_id, status, note)
		VALUES (?, ?, ?, ?)
	`, rsvp.EventID, rsvp.UserID, rsvp.Status, rsvp.Note)
	return err
}

// GetRSVPByEventAndUser retrieves a specific user's RSVP for an event.
// Returns sql.ErrNoRows when the user has not responded.
func GetRSVPByEventAndUser(q Queryer, eventID, userID int64) (*models.RSVP, error) {
	rsvp := &models.RSVP{}
	row := q.QueryRow(`
		SELECT r.id, r.event_id, r.user_id, r.status, r.note, r.created_at, u.email
		FROM rsvps r
		JOIN users u ON r.user_id = u.id
		WHERE r.event_id = ? AND r.user_id = ?
	`, eventID, userID)

	err := row.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.UserID, &rsvp.Status, &rsvp.Note, &rsvp.CreatedAt, &rsvp.UserEmail)
	if err != nil {
		return nil, err
	}
	return rsvp, nil
}

// GetRSVPsForEvent retrieves all RSVPs for an event, including each
// responder's email. No ordering is guaranteed; display ordering belongs
// to the presentation layer.
func GetRSVPsForEvent(q Queryer, eventID int64) ([]*models.RSVP, error) {
	rows, err := q.Query(`
		SELECT r.id, r.event_id, r.user_id, r.status, r.note, r.created_at, u.email
		FROM rsvps r
		JOIN users u ON r.user_id = u.id
		WHERE r.event_id = ?
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rsvps []*models.RSVP
	for rows.Next() {
		rsvp := &models.RSVP{}
		err := rows.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.UserID, &rsvp.Status, &rsvp.Note, &rsvp.CreatedAt, &rsvp.UserEmail)
		if err != nil {
			return nil, err
		}
		rsvps = append(rsvps, rsvp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return rsvps, nil
}

// HasRSVP reports whether an RSVP exists for the (event, user) pair.
func HasRSVP(q Queryer, eventID, userID int64) (bool, error) {
	var exists bool
	err := q.QueryRow("SELECT EXISTS(SELECT 1 FROM rsvps WHERE event_id = ? AND user_id = ?)", eventID, userID).Scan(&exists)
	return exists, err
}

// UpdateRSVPStatus sets the status of an existing RSVP.
func UpdateRSVPStatus(q Queryer, id int64, status string) error {
	_, err := q.Exec("UPDATE rsvps SET status = ? WHERE id = ?", status, id)
	return err
}

// DeleteRSVP removes the RSVP for the (event, user) pair.
func DeleteRSVP(q Queryer, eventID, userID int64) error {
	_, err := q.Exec("DELETE FROM rsvps WHERE event_id = ? AND user_id = ?", eventID, userID)
	return err
}

// DeleteRSVPsForEvent removes every RSVP of an event. Used by event
// deletion so no orphaned RSVP remains.
func DeleteRSVPsForEvent(q Queryer, eventID int64) error {
	_, err := q.Exec("DELETE FROM rsvps WHERE event_id = ?", eventID)
	return err
}

// CountGoingRSVPs returns the number of "going" RSVPs for an event.
func CountGoingRSVPs(q Queryer, eventID int64) (int, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM rsvps WHERE event_id = ? AND status = ?", eventID, models.RSVPStatusGoing).Scan(&n)
	return n, err
}

// CountRSVPs returns the total number of RSVPs.
func CountRSVPs(q Queryer) (int, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM rsvps").Scan(&n)
	return n, err
}
