package handlers

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/meetup-planner/app/internal/database"
	"github.com/meetup-planner/app/internal/service"
	"github.com/rs/zerolog"
	_ "github.com/mattn/go-sqlite3"
)

// testServer bundles an httptest server with its database and services.
type testServer struct {
	server *httptest.Server
	db     *sql.DB
	events *service.EventService
	rsvps  *service.RsvpService
}

// setupTestServer initializes an in-memory database, loads the templates
// and starts an httptest server with the application routes.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.InitDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	templatePath := "../../web/templates"
	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		templatePath = "web/templates"
	}
	if err := LoadTemplates(templatePath); err != nil {
		t.Fatalf("Error loading templates from %s: %v", templatePath, err)
	}
	SetLogger(zerolog.Nop())

	events := service.NewEventService(db, zerolog.Nop())
	rsvps := service.NewRsvpService(db, zerolog.Nop())

	mux := http.NewServeMux()

	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			Register(db)(w, r)
		} else {
			RegisterPage(w, r)
		}
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			Login(db)(w, r)
		} else {
			LoginPage(w, r)
		}
	})
	mux.HandleFunc("/logout", Logout)

	mux.HandleFunc("/events", EventsListPage(db, events))
	mux.HandleFunc("/events/new", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			AuthMiddleware(CreateEvent(db, events))(w, r)
		} else {
			AuthMiddleware(NewEventPage)(w, r)
		}
	})
	mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/events/"), "/")
		switch {
		case len(parts) == 1:
			EventDetailPage(db, events, rsvps)(w, r)
		case len(parts) == 2 && parts[1] == "edit":
			if r.Method == http.MethodPost {
				AuthMiddleware(UpdateEvent(db, events))(w, r)
			} else {
				AuthMiddleware(EditEventPage(db, events))(w, r)
			}
		case len(parts) == 2 && parts[1] == "delete":
			if r.Method == http.MethodPost {
				AuthMiddleware(DeleteEvent(db, events))(w, r)
			} else {
				AuthMiddleware(DeleteEventPage(db, events))(w, r)
			}
		case len(parts) == 2 && parts[1] == "rsvp":
			AuthMiddleware(SubmitRSVP(db, rsvps))(w, r)
		case len(parts) == 2 && parts[1] == "ical":
			EventICal(db, events)(w, r)
		case len(parts) == 3 && parts[1] == "rsvp" && parts[2] == "status":
			AuthMiddleware(ChangeRSVPStatus(db, rsvps))(w, r)
		case len(parts) == 3 && parts[1] == "rsvp" && parts[2] == "cancel":
			AuthMiddleware(CancelRSVP(db, rsvps))(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return &testServer{server: ts, db: db, events: events, rsvps: rsvps}
}

// newTestClient returns a client with its own cookie jar that does not
// follow redirects, so tests can assert on Location headers.
func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// registerAndLogin creates an account through the HTTP surface and signs
// the client in.
func registerAndLogin(t *testing.T, ts *testServer, client *http.Client, email, password string) {
	t.Helper()

	resp, err := client.PostForm(ts.server.URL+"/register", url.Values{
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	})
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("register status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}

	resp, err = client.PostForm(ts.server.URL+"/login", url.Values{
		"email":    {email},
		"password": {password},
	})
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	ts := setupTestServer(t)
	client := newTestClient(t)

	t.Run("register redirects to login", func(t *testing.T) {
		resp, err := client.PostForm(ts.server.URL+"/register", url.Values{
			"email":            {"flow@example.com"},
			"password":         {"secret123"},
			"confirm_password": {"secret123"},
		})
		if err != nil {
			t.Fatalf("register request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
		}
		if loc := resp.Header.Get("Location"); loc != "/login" {
			t.Errorf("Location = %q, want /login", loc)
		}
	})

	t.Run("mismatched passwords re-render the form", func(t *testing.T) {
		resp, err := client.PostForm(ts.server.URL+"/register", url.Values{
			"email":            {"mismatch@example.com"},
			"password":         {"one"},
			"confirm_password": {"two"},
		})
		if err != nil {
			t.Fatalf("register request failed: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "Passwords do not match.") {
			t.Errorf("response does not show the mismatch error")
		}
	})

	t.Run("login sets a session cookie", func(t *testing.T) {
		resp, err := client.PostForm(ts.server.URL+"/login", url.Values{
			"email":    {"flow@example.com"},
			"password": {"secret123"},
		})
		if err != nil {
			t.Fatalf("login request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
		}

		serverURL, _ := url.Parse(ts.server.URL)
		found := false
		for _, c := range client.Jar.Cookies(serverURL) {
			if c.Name == "session_token" && c.Value != "" {
				found = true
			}
		}
		if !found {
			t.Errorf("no session cookie set after login")
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		fresh := newTestClient(t)
		resp, err := fresh.PostForm(ts.server.URL+"/login", url.Values{
			"email":    {"flow@example.com"},
			"password": {"nope"},
		})
		if err != nil {
			t.Fatalf("login request failed: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "Invalid email or password.") {
			t.Errorf("response does not show the invalid-credentials error")
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		resp, err := client.PostForm(ts.server.URL+"/logout", url.Values{})
		if err != nil {
			t.Fatalf("logout request failed: %v", err)
		}
		resp.Body.Close()

		resp, err = client.Get(ts.server.URL + "/events/new")
		if err != nil {
			t.Fatalf("request after logout failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
			t.Errorf("protected page after logout = %d %q, want redirect to /login",
				resp.StatusCode, resp.Header.Get("Location"))
		}
	})
}

func TestAuthMiddlewareRedirectsAnonymous(t *testing.T) {
	ts := setupTestServer(t)
	client := newTestClient(t)

	resp, err := client.Get(ts.server.URL + "/events/new")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

// userIDByEmail looks a user up directly in the store.
func userIDByEmail(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	user, err := database.GetUserByEmail(db, email)
	if err != nil {
		t.Fatalf("GetUserByEmail(%s) error: %v", email, err)
	}
	return user.ID
}

// eventIDFromLocation extracts the trailing event ID from a redirect
// target like /events/7.
func eventIDFromLocation(t *testing.T, loc string) int64 {
	t.Helper()
	idStr := strings.TrimPrefix(loc, "/events/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		t.Fatalf("could not parse event ID from Location %q: %v", loc, err)
	}
	return id
}
