package httpx

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/courseq/courseq/internal/domain/model"
)

//go:embed templates/*.tmpl templates/pages/*.tmpl
var templateFS embed.FS

// Renderer renders HTML pages from the embedded templates. Each page file is
// parsed together with the shared layout so pages can define the same block
// names without colliding.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	funcs := template.FuncMap{
		"fmtTime":  fmtTime,
		"fmtDate":  fmtDate,
		"fmtClock": fmtClock,
		"title":    titleCase,
		"inc":      func(i int) int { return i + 1 },
	}

	entries, err := fs.ReadDir(templateFS, "templates/pages")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		t, err := template.New("layout.tmpl").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.tmpl",
			"templates/pages/"+entry.Name(),
		)
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// PageData is the envelope handed to every template: the logged-in viewer,
// the CSRF token for forms, and the page-specific payload.
type PageData struct {
	User      *model.User
	CSRFToken string
	Data      any
}

// Render writes the named page. Template failures surface as a plain 500
// rather than a half-written body, which is why rendering goes through a
// buffer first.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, ok := rn.pages[page]
	if !ok {
		rn.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	payload := PageData{
		User:      CurrentUser(r.Context()),
		CSRFToken: GetCSRFToken(r),
		Data:      data,
	}
	if err := t.ExecuteTemplate(&buf, "layout", payload); err != nil {
		rn.logger.Error("template execution failed",
			slog.String("page", page),
			slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

func inLocation(t time.Time, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		return t
	}
	return t.In(loc)
}

func fmtTime(t time.Time, tz string) string {
	return inLocation(t, tz).Format("Mon Jan 2, 3:04 PM")
}

func fmtDate(t time.Time, tz string) string {
	return inLocation(t, tz).Format("Monday, January 2")
}

func fmtClock(t time.Time, tz string) string {
	return inLocation(t, tz).Format("3:04 PM")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
