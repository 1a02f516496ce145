package database

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/meetup-planner/app/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

func setupRSVPFixtures(t *testing.T, db *sql.DB) (*models.User, *models.User, *models.Event) {
	t.Helper()
	userA, err := CreateUser(db, "rsvp-a@example.com", "pass")
	if err != nil {
		t.Fatalf("Failed to create user A: %v", err)
	}
	userB, err := CreateUser(db, "rsvp-b@example.com", "pass")
	if err != nil {
		t.Fatalf("Failed to create user B: %v", err)
	}
	ev, err := CreateEvent(db, &models.Event{
		Title:     "RSVP Fixture",
		StartDate: time.Now().UTC().Add(24 * time.Hour).Round(time.Second),
		CreatedBy: userA.ID,
		Status:    models.EventStatusPublished,
	})
	if err != nil {
		t.Fatalf("Failed to create fixture event: %v", err)
	}
	return userA, userB, ev
}

func TestCreateAndGetRSVP(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	userA, _, ev := setupRSVPFixtures(t, db)

	rsvp := &models.RSVP{
		EventID: ev.ID,
		UserID:  userA.ID,
		Status:  models.RSVPStatusGoing,
		Note:    "bringing a plus one",
	}
	if err := CreateRSVP(db, rsvp); err != nil {
		t.Fatalf("CreateRSVP() error = %v", err)
	}

	got, err := GetRSVPByEventAndUser(db, ev.ID, userA.ID)
	if err != nil {
		t.Fatalf("GetRSVPByEventAndUser() error = %v", err)
	}
	if got.Status != models.RSVPStatusGoing {
		t.Errorf("status = %v, want %v", got.Status, models.RSVPStatusGoing)
	}
	if got.Note != "bringing a plus one" {
		t.Errorf("note = %q, want the stored note", got.Note)
	}
	if got.UserEmail != userA.Email {
		t.Errorf("user email = %q, want %q", got.UserEmail, userA.Email)
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("CreatedAt is zero")
	}
}

func TestRSVPUniqueConstraint(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	userA, _, ev := setupRSVPFixtures(t, db)

	first := &models.RSVP{EventID: ev.ID, UserID: userA.ID, Status: models.RSVPStatusGoing}
	if err := CreateRSVP(db, first); err != nil {
		t.Fatalf("CreateRSVP() error = %v", err)
	}

	dup := &models.RSVP{EventID: ev.ID, UserID: userA.ID, Status: models.RSVPStatusInterested}
	if err := CreateRSVP(db, dup); err == nil {
		t.Errorf("CreateRSVP() duplicate succeeded, want constraint error")
	}
}

func TestGetRSVPsForEventAndCounts(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	userA, userB, ev := setupRSVPFixtures(t, db)

	if err := CreateRSVP(db, &models.RSVP{EventID: ev.ID, UserID: userA.ID, Status: models.RSVPStatusGoing}); err != nil {
		t.Fatalf("CreateRSVP() error = %v", err)
	}
	if err := CreateRSVP(db, &models.RSVP{EventID: ev.ID, UserID: userB.ID, Status: models.RSVPStatusInterested}); err != nil {
		t.Fatalf("CreateRSVP() error = %v", err)
	}

	rsvps, err := GetRSVPsForEvent(db, ev.ID)
	if err != nil {
		t.Fatalf("GetRSVPsForEvent() error = %v", err)
	}
	if len(rsvps) != 2 {
		t.Fatalf("GetRSVPsForEvent() returned %d RSVPs, want 2", len(rsvps))
	}

	going, err := CountGoingRSVPs(db, ev.ID)
	if err != nil {
		t.Fatalf("CountGoingRSVPs() error = %v", err)
	}
	if going != 1 {
		t.Errorf("CountGoingRSVPs() = %d, want 1", going)
	}

	exists, err := HasRSVP(db, ev.ID, userA.ID)
	if err != nil {
		t.Fatalf("HasRSVP() error = %v", err)
	}
	if !exists {
		t.Errorf("HasRSVP() = false, want true")
	}
}

func TestDeleteRSVPs(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	userA, userB, ev := setupRSVPFixtures(t, db)

	if err := CreateRSVP(db, &models.RSVP{EventID: ev.ID, UserID: userA.ID, Status: models.RSVPStatusGoing}); err != nil {
		t.Fatalf("CreateRSVP() error = %v", err)
	}
	if err := CreateRSVP(db, &models.RSVP{EventID: ev.ID, UserID: userB.ID, Status: models.RSVPStatusGoing}); err != nil {
		t.Fatalf("CreateRSVP() error = %v", err)
	}

	t.Run("delete single", func(t *testing.T) {
		if err := DeleteRSVP(db, ev.ID, userA.ID); err != nil {
			t.Fatalf("DeleteRSVP() error = %v", err)
		}
		_, err := GetRSVPByEventAndUser(db, ev.ID, userA.ID)
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("GetRSVPByEventAndUser() error = %v, want sql.ErrNoRows", err)
		}
	})

	t.Run("delete all for event", func(t *testing.T) {
		if err := DeleteRSVPsForEvent(db, ev.ID); err != nil {
			t.Fatalf("DeleteRSVPsForEvent() error = %v", err)
		}
		rsvps, err := GetRSVPsForEvent(db, ev.ID)
		if err != nil {
			t.Fatalf("GetRSVPsForEvent() error = %v", err)
		}
		if len(rsvps) != 0 {
			t.Errorf("%d RSVPs remain, want 0", len(rsvps))
		}
	})
}

func TestRSVPStatusUpdate(t *testing.T) {
	db, teardown := setupTestDB(t)
	defer teardown()
	userA, _, ev := setupRSVPFixtures(t, db)

	rsvp := &models.RSVP{EventID: ev.ID, UserID: userA.ID, Status: models.RSVPStatusInterested}
	if err := CreateRSVP(db, rsvp); err != nil {
		t.Fatalf("CreateRSVP() error = %v", err)
	}

	stored, err := GetRSVPByEventAndUser(db, ev.ID, userA.ID)
	if err != nil {
		t.Fatalf("GetRSVPByEventAndUser() error = %v", err)
	}
	if err := UpdateRSVPStatus(db, stored.ID, models.RSVPStatusGoing); err != nil {
		t.Fatalf("UpdateRSVPStatus() error = %v", err)
	}

	reloaded, err := GetRSVPByEventAndUser(db, ev.ID, userA.ID)
	if err != nil {
		t.Fatalf("GetRSVPByEventAndUser() error = %v", err)
	}
	if reloaded.Status != models.RSVPStatusGoing {
		t.Errorf("status = %v, want %v", reloaded.Status, models.RSVPStatusGoing)
	}
}
