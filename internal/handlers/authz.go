package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/meetup-planner/app/internal/database"
	"github.com/meetup-planner/app/internal/models"
	"github.com/meetup-planner/app/internal/service"
)

// eventIDFromRequest extracts the event identifier from the URL path
// (/events/{id}/...) if present, else from the "id" query parameter.
func eventIDFromRequest(r *http.Request) (int64, bool) {
	if rest, ok := strings.CutPrefix(r.URL.Path, "/events/"); ok {
		idStr := strings.SplitN(rest, "/", 2)[0]
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			return id, true
		}
	}
	if idStr := r.URL.Query().Get("id"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}

// AdminOrOwner is the boundary gate for event edit/delete: the current
// user must be an admin or the creator of the event the request targets.
// A missing or unparsable identifier, a missing event, or no user fails
// closed with FailureUnauthorized. The EventService re-validates
// ownership independently, so bypassing this gate cannot break the
// invariant.
func AdminOrOwner(r *http.Request, db *sql.DB, user *models.User) service.OperationResult {
	if user == nil {
		return service.Failure(service.FailureUnauthorized, "Not signed in.")
	}
	if user.IsAdmin {
		return service.Success()
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		return service.Failure(service.FailureUnauthorized, "No event identified by the request.")
	}

	ev, err := database.GetEventByID(db, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Failure(service.FailureUnauthorized, "No event identified by the request.")
	}
	if err != nil {
		logger.Error().Err(err).Int64("event_id", eventID).Msg("authz: event lookup failed")
		return service.Failure(service.FailureUnauthorized, "Could not verify ownership.")
	}

	if ev.CreatedBy == user.ID {
		return service.Success()
	}
	return service.Failure(service.FailureForbidden, "Only the owner or an admin may manage this event.")
}
