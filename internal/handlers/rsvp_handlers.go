package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"

	"github.com/meetup-planner/app/internal/service"
)

// redirectWithResult sends the browser back to the event detail page,
// carrying either the failure text or a success note as a query value.
func redirectWithResult(w http.ResponseWriter, r *http.Request, eventID int64, res service.OperationResult, successMsg string) {
	target := fmt.Sprintf("/events/%d", eventID)
	if res.Succeeded {
		target += "?ok=" + url.QueryEscape(successMsg)
	} else {
		target += "?msg=" + url.QueryEscape(res.ErrorText())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SubmitRSVP creates the current user's RSVP for an event. Wrap with
// AuthMiddleware.
func SubmitRSVP(db *sql.DB, rsvps *service.RsvpService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db)
		if err != nil {
			http.Error(w, "User not authenticated", http.StatusUnauthorized)
			return
		}

		eventID, ok := eventIDFromRequest(r)
		if !ok {
			http.Error(w, "Invalid event ID", http.StatusBadRequest)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form data", http.StatusBadRequest)
			return
		}

		res := rsvps.Create(eventID, currentUser.ID, r.FormValue("status"), r.FormValue("note"))
		if res.Kind == service.FailureNotFound {
			RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", res.ErrorText())
			return
		}
		redirectWithResult(w, r, eventID, res, "RSVP submitted.")
	}
}

// ChangeRSVPStatus moves the current user's RSVP to a new status. Wrap
// with AuthMiddleware.
func ChangeRSVPStatus(db *sql.DB, rsvps *service.RsvpService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db)
		if err != nil {
			http.Error(w, "User not authenticated", http.StatusUnauthorized)
			return
		}

		eventID, ok := eventIDFromRequest(r)
		if !ok {
			http.Error(w, "Invalid event ID", http.StatusBadRequest)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form data", http.StatusBadRequest)
			return
		}

		res := rsvps.ChangeStatus(eventID, currentUser.ID, r.FormValue("status"))
		redirectWithResult(w, r, eventID, res, "RSVP updated.")
	}
}

// CancelRSVP removes the current user's RSVP. Wrap with AuthMiddleware.
func CancelRSVP(db *sql.DB, rsvps *service.RsvpService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, err := GetCurrentUser(r, db)
		if err != nil {
			http.Error(w, "User not authenticated", http.StatusUnauthorized)
			return
		}

		eventID, ok := eventIDFromRequest(r)
		if !ok {
			http.Error(w, "Invalid event ID", http.StatusBadRequest)
			return
		}

		res := rsvps.Cancel(eventID, currentUser.ID)
		redirectWithResult(w, r, eventID, res, "RSVP canceled.")
	}
}
