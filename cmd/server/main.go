package main

import (
	"database/sql"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/meetup-planner/app/internal/config"
	"github.com/meetup-planner/app/internal/database"
	"github.com/meetup-planner/app/internal/handlers"
	"github.com/meetup-planner/app/internal/seed"
	"github.com/meetup-planner/app/internal/service"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	app := &cli.App{
		Name:  "meetup-server",
		Usage: "Event-planning web application.",
		Commands: []*cli.Command{
			serveCommand(log),
			seedCommand(log),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("application failed")
	}
}

func serveCommand(log zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server.",
		Action: func(c *cli.Context) error {
			cfg := config.Load()

			db, err := database.InitDB(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := handlers.LoadTemplates(cfg.TemplatesDir); err != nil {
				return err
			}
			handlers.SetLogger(log)

			if err := seed.EnsureAdmin(db, log, cfg.AdminEmail, cfg.AdminPassword); err != nil {
				return err
			}

			events := service.NewEventService(db, log)
			rsvps := service.NewRsvpService(db, log)
			mux := newRouter(db, cfg.StaticDir, events, rsvps)

			log.Info().Str("port", cfg.Port).Msg("server starting")
			return http.ListenAndServe(":"+cfg.Port, mux)
		},
	}
}

func seedCommand(log zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Generate random demo users, events and RSVPs.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: 0, Usage: "Target user count. Overrides SEED_USERS."},
			&cli.IntFlag{Name: "events", Value: 0, Usage: "Target event count. Overrides SEED_EVENTS."},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()

			db, err := database.InitDB(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := seed.EnsureAdmin(db, log, cfg.AdminEmail, cfg.AdminPassword); err != nil {
				return err
			}

			targetUsers := cfg.SeedUsers
			if c.Int("users") > 0 {
				targetUsers = c.Int("users")
			}
			targetEvents := cfg.SeedEvents
			if c.Int("events") > 0 {
				targetEvents = c.Int("events")
			}

			rsvps := service.NewRsvpService(db, log)
			return seed.Random(db, log, rsvps, targetUsers, targetEvents, cfg.SeedRSVPRate)
		},
	}
}

func newRouter(db *sql.DB, staticDir string, events *service.EventService, rsvps *service.RsvpService) *http.ServeMux {
	mux := http.NewServeMux()

	fs := http.FileServer(http.Dir(staticDir))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/events", http.StatusSeeOther)
		} else {
			handlers.RenderErrorPage(w, r, db, http.StatusNotFound, "Page Not Found", "The page you are looking for does not exist.")
		}
	})

	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.RegisterPage(w, r)
		case http.MethodPost:
			handlers.Register(db)(w, r)
		default:
			handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "This method is not supported for /register.")
		}
	})

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.LoginPage(w, r)
		case http.MethodPost:
			handlers.Login(db)(w, r)
		default:
			handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "This method is not supported for /login.")
		}
	})

	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			handlers.Logout(w, r)
		} else {
			handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "Logout requires POST method.")
		}
	})

	mux.HandleFunc("/events", handlers.EventsListPage(db, events))

	mux.HandleFunc("/events/new", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.AuthMiddleware(handlers.NewEventPage)(w, r)
		case http.MethodPost:
			handlers.AuthMiddleware(handlers.CreateEvent(db, events))(w, r)
		default:
			handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "This method is not supported for /events/new.")
		}
	})

	mux.HandleFunc("/events/", routeDynamicEventPaths(db, events, rsvps))

	return mux
}

// routeDynamicEventPaths dispatches /events/{id} and its sub-actions.
func routeDynamicEventPaths(db *sql.DB, events *service.EventService, rsvps *service.RsvpService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/events/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			handlers.RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", "Event ID missing or invalid path.")
			return
		}

		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			handlers.RenderErrorPage(w, r, db, http.StatusBadRequest, "Bad Request", "Invalid event ID format.")
			return
		}

		switch {
		case len(parts) == 1:
			if r.Method == http.MethodGet {
				handlers.EventDetailPage(db, events, rsvps)(w, r)
			} else {
				handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "Only GET is allowed for event details.")
			}

		case len(parts) == 2:
			switch parts[1] {
			case "edit":
				switch r.Method {
				case http.MethodGet:
					handlers.AuthMiddleware(handlers.EditEventPage(db, events))(w, r)
				case http.MethodPost:
					handlers.AuthMiddleware(handlers.UpdateEvent(db, events))(w, r)
				default:
					handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "")
				}
			case "delete":
				switch r.Method {
				case http.MethodGet:
					handlers.AuthMiddleware(handlers.DeleteEventPage(db, events))(w, r)
				case http.MethodPost:
					handlers.AuthMiddleware(handlers.DeleteEvent(db, events))(w, r)
				default:
					handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "")
				}
			case "rsvp":
				if r.Method == http.MethodPost {
					handlers.AuthMiddleware(handlers.SubmitRSVP(db, rsvps))(w, r)
				} else {
					handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "Only POST is allowed for RSVP.")
				}
			case "ical":
				if r.Method == http.MethodGet {
					handlers.EventICal(db, events)(w, r)
				} else {
					handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "Only GET is allowed for calendar export.")
				}
			default:
				handlers.RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", "Invalid action for event.")
			}

		case len(parts) == 3 && parts[1] == "rsvp":
			if r.Method != http.MethodPost {
				handlers.RenderErrorPage(w, r, db, http.StatusMethodNotAllowed, "Method Not Allowed", "Only POST is allowed for RSVP actions.")
				return
			}
			switch parts[2] {
			case "status":
				handlers.AuthMiddleware(handlers.ChangeRSVPStatus(db, rsvps))(w, r)
			case "cancel":
				handlers.AuthMiddleware(handlers.CancelRSVP(db, rsvps))(w, r)
			default:
				handlers.RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", "Invalid RSVP action.")
			}

		default:
			handlers.RenderErrorPage(w, r, db, http.StatusNotFound, "Not Found", "Invalid event path structure.")
		}
	}
}
