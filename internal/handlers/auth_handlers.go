package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meetup-planner/app/internal/database"
	"github.com/meetup-planner/app/internal/models"
)

const sessionCookieName = "session_token"

// sessionStore maps session tokens to user IDs. In-memory only; sessions
// do not survive a restart.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]int64
}

var Sessions = &sessionStore{sessions: make(map[string]int64)}

func (s *sessionStore) Put(token string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = userID
}

func (s *sessionStore) Get(token string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[token]
	return id, ok
}

func (s *sessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// RegisterPage renders the registration form.
func RegisterPage(w http.ResponseWriter, r *http.Request) {
	RenderTemplate(w, "auth/register.html", nil)
}

// Register handles the registration form submission.
func Register(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")
		confirmPassword := r.FormValue("confirm_password")

		if email == "" || password == "" {
			RenderTemplate(w, "auth/register.html", map[string]any{"Error": "Email and password are required."})
			return
		}
		if password != confirmPassword {
			RenderTemplate(w, "auth/register.html", map[string]any{"Error": "Passwords do not match."})
			return
		}

		_, err := database.GetUserByEmail(db, email)
		if err == nil {
			RenderTemplate(w, "auth/register.html", map[string]any{"Error": "Email already registered."})
			return
		}
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error().Err(err).Msg("register: user lookup failed")
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		if _, err := database.CreateUser(db, email, password); err != nil {
			logger.Error().Err(err).Msg("register: create user failed")
			http.Error(w, "Could not create user", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// LoginPage renders the login form.
func LoginPage(w http.ResponseWriter, r *http.Request) {
	RenderTemplate(w, "auth/login.html", nil)
}

// Login handles the login form submission and creates a session.
func Login(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")

		if email == "" || password == "" {
			RenderTemplate(w, "auth/login.html", map[string]any{"Error": "Email and password are required."})
			return
		}

		user, err := database.GetUserByEmail(db, email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				RenderTemplate(w, "auth/login.html", map[string]any{"Error": "Invalid email or password."})
				return
			}
			logger.Error().Err(err).Msg("login: user lookup failed")
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}

		if err := database.VerifyPassword(user.PasswordHash, password); err != nil {
			RenderTemplate(w, "auth/login.html", map[string]any{"Error": "Invalid email or password."})
			return
		}

		sessionToken := uuid.NewString()
		Sessions.Put(sessionToken, user.ID)

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sessionToken,
			Path:     "/",
			Expires:  time.Now().Add(24 * time.Hour),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, "/events", http.StatusSeeOther)
	}
}

// Logout destroys the session and expires the cookie.
func Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		Sessions.Delete(cookie.Value)
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// AuthMiddleware redirects unauthenticated requests to the login page.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthenticated(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// IsAuthenticated reports whether the request carries a valid session.
func IsAuthenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return false
	}
	_, ok := Sessions.Get(cookie.Value)
	return ok
}

// GetCurrentUser resolves the authenticated user from the session cookie.
func GetCurrentUser(r *http.Request, db *sql.DB) (*models.User, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required to get current user")
	}
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, fmt.Errorf("no session cookie: %w", err)
	}
	userID, ok := Sessions.Get(cookie.Value)
	if !ok {
		return nil, fmt.Errorf("invalid session token")
	}
	return database.GetUserByID(db, userID)
}
