package handlers

import (
	"database/sql"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/meetup-planner/app/internal/models"
	"github.com/rs/zerolog"
)

var funcMap = template.FuncMap{
	"FormatDateTime": FormatDateTime,
	"Nl2br":          Nl2br,
	"StatusLabel":    StatusLabel,
}

// StatusLabel converts a status constant into a display label.
// e.g., "not_going" -> "Not Going"
func StatusLabel(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// FormatDateTime formats a time.Time (or *time.Time) into a readable
// string.
func FormatDateTime(v any) string {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return "N/A"
		}
		t = *x
	default:
		return "N/A"
	}
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("January 2, 2006 at 3:04 PM")
}

// Nl2br replaces newline characters with <br> tags.
func Nl2br(s string) template.HTML {
	return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
}

var (
	templates     map[string]*template.Template
	templatesOnce sync.Once
	logger        = zerolog.Nop()
)

// SetLogger installs the package logger used by the handlers.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "http").Logger()
}

// LoadTemplates parses all HTML page templates from dir and its
// subdirectories against the shared layout.html. Call once at startup.
// The key for RenderTemplate is the path relative to dir, e.g.
// "events/events_list.html".
func LoadTemplates(dir string) error {
	var loadErr error
	templatesOnce.Do(func() {
		templates = make(map[string]*template.Template)
		layoutFile := filepath.Join(dir, "layout.html")

		patterns := []string{
			filepath.Join(dir, "*.html"),
			filepath.Join(dir, "*", "*.html"),
		}

		var pageFiles []string
		for _, pattern := range patterns {
			files, err := filepath.Glob(pattern)
			if err != nil {
				loadErr = fmt.Errorf("globbing templates: %w", err)
				return
			}
			for _, f := range files {
				if f != layoutFile {
					pageFiles = append(pageFiles, f)
				}
			}
		}

		if len(pageFiles) == 0 {
			loadErr = fmt.Errorf("no page templates found in %s", dir)
			return
		}

		for _, pageFile := range pageFiles {
			name := strings.TrimPrefix(pageFile, dir+string(filepath.Separator))
			name = filepath.ToSlash(name)

			tmpl, err := template.New(filepath.Base(pageFile)).Funcs(funcMap).ParseFiles(pageFile, layoutFile)
			if err != nil {
				loadErr = fmt.Errorf("parsing template %s: %w", name, err)
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// RenderTemplate executes the named page template against the layout.
func RenderTemplate(w http.ResponseWriter, name string, data any) {
	tmpl, ok := templates[name]
	if !ok {
		logger.Error().Str("template", name).Msg("template not found")
		http.Error(w, "Template not found: "+name, http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		logger.Error().Err(err).Str("template", name).Msg("template execution failed")
	}
}

// RenderErrorPage renders the standardized error page.
func RenderErrorPage(w http.ResponseWriter, r *http.Request, db *sql.DB, statusCode int, title string, message string) {
	w.WriteHeader(statusCode)

	var currentUser *models.User
	if db != nil && IsAuthenticated(r) {
		currentUser, _ = GetCurrentUser(r, db)
	}

	RenderTemplate(w, "error.html", map[string]any{
		"Title":      fmt.Sprintf("Error %d", statusCode),
		"StatusCode": statusCode,
		"StatusText": http.StatusText(statusCode),
		"ErrorTitle": title,
		"Message":    message,
		"User":       currentUser,
	})
}
