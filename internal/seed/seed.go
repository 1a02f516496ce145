// Package seed bootstraps the admin account and generates random demo
// data for development databases.
package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/meetup-planner/app/internal/database"
	"github.com/meetup-planner/app/internal/models"
	"github.com/meetup-planner/app/internal/service"
	"github.com/rs/zerolog"
)

// EnsureAdmin creates the admin account if it does not exist, or promotes
// an existing account with that email.
func EnsureAdmin(db *sql.DB, log zerolog.Logger, email, password string) error {
	user, err := database.GetUserByEmail(db, email)
	if errors.Is(err, sql.ErrNoRows) {
		user, err = database.CreateUser(db, email, password)
		if err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		log.Info().Str("email", email).Msg("created admin user")
	} else if err != nil {
		return fmt.Errorf("look up admin user: %w", err)
	}

	if !user.IsAdmin {
		if err := database.SetAdmin(db, user.ID, true); err != nil {
			return fmt.Errorf("promote admin user: %w", err)
		}
		log.Info().Str("email", email).Msg("promoted user to admin")
	}
	return nil
}

var seedWords = []string{
	"aurora", "basil", "cedar", "dune", "ember", "fjord", "grove", "harbor",
	"indigo", "juniper", "koral", "lumen", "meadow", "nimbus", "onyx",
	"pinnacle", "quartz", "ridge", "summit", "tundra",
}

var seedTopics = []string{
	"Go Meetup", "Board Game Night", "Photography Walk", "Book Club",
	"Hack Evening", "Trail Run", "Language Exchange", "Open Mic",
	"Coffee Tasting", "Maker Workshop",
}

// Random tops the database up to the target user and event counts and
// scatters random RSVPs over the upcoming events. RSVPs go through the
// RsvpService so the attendee-count invariant holds for seeded data too.
//
// Unlike the service, the seeder applies a softer admission rule: a
// "going" pick that hits a full event is downgraded to "interested" with
// probability 0.4, otherwise skipped.
func Random(db *sql.DB, log zerolog.Logger, rsvps *service.RsvpService, targetUsers, targetEvents int, rsvpChance float64) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	userCount, err := database.CountUsers(db)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	log.Info().Int("existing", userCount).Int("target", targetUsers).Msg("seeding users")
	for i := userCount; i < targetUsers; i++ {
		email := fmt.Sprintf("%s.%s%d@example.com", seedWords[rng.Intn(len(seedWords))], seedWords[rng.Intn(len(seedWords))], i+1)
		if _, err := database.CreateUser(db, email, "P@ssw0rd1"); err != nil {
			log.Warn().Err(err).Str("email", email).Msg("failed to seed user")
		}
	}

	users, err := database.ListUsers(db)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return fmt.Errorf("no users available to own seeded events")
	}

	eventCount, err := database.CountEvents(db)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	log.Info().Int("existing", eventCount).Int("target", targetEvents).Msg("seeding events")
	now := time.Now().UTC()
	for i := eventCount; i < targetEvents; i++ {
		start := now.Add(time.Duration(rng.Intn(60*24)-7*24) * time.Hour).Round(time.Minute)
		end := start.Add(time.Duration(1+rng.Intn(4)) * time.Hour)
		capacity := 0
		if rng.Float64() >= 0.2 {
			capacity = 5 + rng.Intn(96)
		}

		ev := &models.Event{
			Title:       fmt.Sprintf("%s #%d", seedTopics[rng.Intn(len(seedTopics))], i+1),
			Description: "Auto-generated demo event.",
			StartDate:   start,
			EndDate:     &end,
			Location:    seedWords[rng.Intn(len(seedWords))] + " hall",
			Capacity:    capacity,
			CreatedBy:   users[rng.Intn(len(users))].ID,
			Status:      models.EventStatusPublished,
		}
		if _, err := database.CreateEvent(db, ev); err != nil {
			log.Warn().Err(err).Str("title", ev.Title).Msg("failed to seed event")
		}
	}

	events, err := database.ListUpcomingEvents(db, now.AddDate(0, 0, -1), now.AddDate(0, 0, 61))
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	// Sample user-event pairs instead of walking the full cross product.
	maxChecks := len(users) * len(events)
	desiredChecks := int(float64(maxChecks) * rsvpChance * 1.8)
	if desiredChecks < 1000 {
		desiredChecks = 1000
	}
	if desiredChecks > maxChecks {
		desiredChecks = maxChecks
	}

	added := 0
	for c := 0; c < desiredChecks; c++ {
		if rng.Float64() > rsvpChance {
			continue
		}
		user := users[rng.Intn(len(users))]
		ev, err := database.GetEventByID(db, events[rng.Intn(len(events))].ID)
		if err != nil {
			continue
		}
		if ev.StartDate.Before(now.AddDate(0, 0, -1)) {
			continue
		}

		exists, err := database.HasRSVP(db, ev.ID, user.ID)
		if err != nil || exists {
			continue
		}

		status := models.RSVPStatusGoing
		switch p := rng.Float64(); {
		case p < 0.6:
			// keep going
		case p < 0.9:
			status = models.RSVPStatusInterested
		default:
			status = models.RSVPStatusNotGoing
		}

		if status == models.RSVPStatusGoing && ev.IsFull() {
			if rng.Float64() < 0.4 {
				status = models.RSVPStatusInterested
			} else {
				continue
			}
		}

		if res := rsvps.Create(ev.ID, user.ID, status, ""); res.Succeeded {
			added++
		}
	}

	log.Info().Int("added", added).Msg("seeded RSVPs")
	return nil
}
