package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
	"github.com/meetup-planner/app/internal/models"
	"github.com/meetup-planner/app/internal/service"
)

// upcomingWindowDays is the listing window for the events index.
const upcomingWindowDays = 30

const datetimeLocalFormat = "2006-01-02T15:04"

// EventsListPage displays upcoming published events.
func EventsListPage(db *sql.DB, events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upcoming, err := events.ListUpcoming(upcomingWindowDays)
		if err != nil {
			logger.Error().Err(err).Msg("listing upcoming events failed")
			RenderErrorPage(w, r, db, http.StatusInternalServerError, "Server Error", "Could not load events.")
			return
		}

		currentUser, _ := GetCurrentUser(r, db)
		RenderTemplate(w, "events/events_list.html", map[string]any{
			"Events": upcoming,
			"User":   currentUser,
		})
	}
}

// EventDetailPage displays an event with its attendee list, the current
// user's RSVP and management links when the authz gate passes.
func EventDetailPage(db *sql.DB, events *service.EventService, rsvps *service.RsvpService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := eventIDFromRequest(r)
		if !ok {
			RenderErrorPage(w, r, db, http.StatusBadRequest, "Bad Request", "Invalid event ID.")
			return
		}

		ev, err := events.GetByID(eventID)
		if err != nil {
			logger.Error().Err(err).Int64("event_id", eventID).Msg("event lookup failed")
			RenderErrorPage(w, r, db, http.StatusInternalServerError, "Server Error", "Could not load the event.")
			return
		}
		if ev == nil {
			RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", "Event not found.")
			return
		}

		attendees, err := rsvps.ListForEvent(eventID)
		if err != nil {
			logger.Warn().Err(err).Int64("event_id", eventID).Msg("listing RSVPs failed")
		}
		// Show going first.
		sort.SliceStable(attendees, func(i, j int) bool {
			return attendees[i].Status == models.RSVPStatusGoing && attendees[j].Status != models.RSVPStatusGoing
		})

		currentUser, _ := GetCurrentUser(r, db)
		var currentUserRSVP *models.RSVP
		canManage := false
		if currentUser != nil {
			for _, a := range attendees {
				if a.UserID == currentUser.ID {
					currentUserRSVP = a
					break
				}
			}
			canManage = AdminOrOwner(r, db, currentUser).Succeeded
		}

		RenderTemplate(w, "events/event_detail.html", map[string]any{
			"Event":           ev,
			"User":            currentUser,
			"CurrentUserRSVP": currentUserRSVP,
			"Attendees":       attendees,
			"CanManage":       canManage,
			"Message":         r.URL.Query().Get("msg"),
			"Success":         r.URL.Query().Get("ok"),
			"StatusGoing":     models.RSVPStatusGoing,
			"StatusInterested": models.RSVPStatusInterested,
			"StatusNotGoing":  models.RSVPStatusNotGoing,
		})
	}
}

// NewEventPage renders the create-event form.
func NewEventPage(w http.ResponseWriter, r *http.Request) {
	RenderTemplate(w, "events/new_event.html", nil)
}

// eventFromForm builds an event from submitted form values. The second
// return value is a validation message; empty means the form parsed.
func eventFromForm(r *http.Request) (*models.Event, map[string]string, string) {
	form := map[string]string{
		"title":       r.FormValue("title"),
		"description": r.FormValue("description"),
		"start_date":  r.FormValue("start_date"),
		"end_date":    r.FormValue("end_date"),
		"location":    r.FormValue("location"),
		"capacity":    r.FormValue("capacity"),
		"status":      r.FormValue("status"),
	}

	if form["title"] == "" || form["start_date"] == "" {
		return nil, form, "Title and start date are required."
	}

	startDate, err := time.Parse(datetimeLocalFormat, form["start_date"])
	if err != nil {
		return nil, form, "Invalid start date format."
	}

	var endDate *time.Time
	if form["end_date"] != "" {
		t, err := time.Parse(datetimeLocalFormat, form["end_date"])
		if err != nil {
			return nil, form, "Invalid end date format."
		}
		endDate = &t
	}

	capacity := 0
	if form["capacity"] != "" {
		capacity, err = strconv.Atoi(form["capacity"])
		if err != nil || capacity < 0 {
			return nil, form, "Capacity must be a non-negative number."
		}
	}

	return &models.Event{
		Title:       form["title"],
		Description: form["description"],
		StartDate:   startDate,
		EndDate:     endDate,
		Location:    form["location"],
		Capacity:    capacity,
		Status:      form["status"],
	}, form, ""
}

// CreateEvent handles the create-event form submission. Wrap with
// AuthMiddleware.
func CreateEvent(db *sql.DB, events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		ev, form, msg := eventFromForm(r)
		if msg != "" {
			RenderTemplate(w, "events/new_event.html", map[string]any{"Error": msg, "Form": form})
			return
		}

		currentUser, err := GetCurrentUser(r, db)
		if err != nil {
			http.Error(w, "User not authenticated", http.StatusUnauthorized)
			return
		}

		created, res := events.Create(ev, currentUser.ID)
		if !res.Succeeded {
			RenderTemplate(w, "events/new_event.html", map[string]any{"Error": res.ErrorText(), "Form": form})
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/events/%d", created.ID), http.StatusSeeOther)
	}
}

// EditEventPage renders the edit form, gated by AdminOrOwner.
func EditEventPage(db *sql.DB, events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, _ := GetCurrentUser(r, db)
		if res := AdminOrOwner(r, db, currentUser); !res.Succeeded {
			RenderErrorPage(w, r, db, http.StatusForbidden, "Forbidden", res.ErrorText())
			return
		}

		eventID, _ := eventIDFromRequest(r)
		ev, err := events.GetByID(eventID)
		if err != nil || ev == nil {
			RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", "Event not found.")
			return
		}

		RenderTemplate(w, "events/edit_event.html", map[string]any{"Event": ev, "User": currentUser})
	}
}

// UpdateEvent handles the edit form submission, gated by AdminOrOwner
// and re-validated inside the EventService.
func UpdateEvent(db *sql.DB, events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, _ := GetCurrentUser(r, db)
		if res := AdminOrOwner(r, db, currentUser); !res.Succeeded {
			RenderErrorPage(w, r, db, http.StatusForbidden, "Forbidden", res.ErrorText())
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		eventID, _ := eventIDFromRequest(r)
		ev, form, msg := eventFromForm(r)
		if msg != "" {
			RenderTemplate(w, "events/edit_event.html", map[string]any{
				"Error": msg, "Form": form,
				"Event": &models.Event{ID: eventID},
			})
			return
		}
		ev.ID = eventID

		res := events.Update(ev, currentUser.ID, currentUser.IsAdmin)
		if !res.Succeeded {
			switch res.Kind {
			case service.FailureNotFound:
				RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", res.ErrorText())
			case service.FailureForbidden:
				RenderErrorPage(w, r, db, http.StatusForbidden, "Forbidden", res.ErrorText())
			default:
				RenderTemplate(w, "events/edit_event.html", map[string]any{"Error": res.ErrorText(), "Form": form, "Event": ev})
			}
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/events/%d", eventID), http.StatusSeeOther)
	}
}

// DeleteEventPage renders the delete confirmation, gated by AdminOrOwner.
func DeleteEventPage(db *sql.DB, events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, _ := GetCurrentUser(r, db)
		if res := AdminOrOwner(r, db, currentUser); !res.Succeeded {
			RenderErrorPage(w, r, db, http.StatusForbidden, "Forbidden", res.ErrorText())
			return
		}

		eventID, _ := eventIDFromRequest(r)
		ev, err := events.GetByID(eventID)
		if err != nil || ev == nil {
			RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", "Event not found.")
			return
		}

		RenderTemplate(w, "events/delete_event.html", map[string]any{"Event": ev, "User": currentUser})
	}
}

// DeleteEvent handles the delete confirmation submission. The cascade of
// the event's RSVPs happens inside the EventService transaction.
func DeleteEvent(db *sql.DB, events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser, _ := GetCurrentUser(r, db)
		if res := AdminOrOwner(r, db, currentUser); !res.Succeeded {
			RenderErrorPage(w, r, db, http.StatusForbidden, "Forbidden", res.ErrorText())
			return
		}

		eventID, _ := eventIDFromRequest(r)
		res := events.Delete(eventID, currentUser.ID, currentUser.IsAdmin)
		if !res.Succeeded {
			switch res.Kind {
			case service.FailureNotFound:
				RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", res.ErrorText())
			case service.FailureForbidden:
				RenderErrorPage(w, r, db, http.StatusForbidden, "Forbidden", res.ErrorText())
			default:
				RenderErrorPage(w, r, db, http.StatusInternalServerError, "Server Error", res.ErrorText())
			}
			return
		}

		http.Redirect(w, r, "/events", http.StatusSeeOther)
	}
}

// EventICal serves a single-event iCalendar file for calendar imports.
func EventICal(db *sql.DB, events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := eventIDFromRequest(r)
		if !ok {
			http.Error(w, "Invalid event ID", http.StatusBadRequest)
			return
		}

		ev, err := events.GetByID(eventID)
		if err != nil {
			http.Error(w, "Could not load the event", http.StatusInternalServerError)
			return
		}
		if ev == nil {
			http.Error(w, "Event not found", http.StatusNotFound)
			return
		}

		cal := ical.NewCalendar()
		cal.Props.SetText(ical.PropVersion, "2.0")
		cal.Props.SetText(ical.PropProductID, "-//meetup-planner//EN")

		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, fmt.Sprintf("event-%d@meetup-planner", ev.ID))
		ve.Props.SetText(ical.PropSummary, ev.Title)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		ve.Props.SetDateTime(ical.PropDateTimeStart, ev.StartDate)
		if ev.EndDate != nil {
			ve.Props.SetDateTime(ical.PropDateTimeEnd, *ev.EndDate)
		}
		if ev.Description != "" {
			ve.Props.SetText(ical.PropDescription, ev.Description)
		}
		if ev.Location != "" {
			ve.Props.SetText(ical.PropLocation, ev.Location)
		}
		cal.Children = append(cal.Children, ve)

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=event-%d.ics", ev.ID))
		if err := ical.NewEncoder(w).Encode(cal); err != nil {
			logger.Error().Err(err).Int64("event_id", eventID).Msg("ical encoding failed")
		}
	}
}
