package httpx

import (
	"log/slog"
	"net/http"

	"github.com/courseq/courseq/internal/session"
)

// RouterServices carries every dependency the router needs.
type RouterServices struct {
	Logger   *slog.Logger
	Sessions *session.Store
	Renderer *Renderer

	Auth    *AuthHandlers
	Courses *CourseHandlers
	Events  *EventHandlers
	Queue   *QueueHandlers
	Health  *HealthHandler

	// CompressionLevel enables gzip when positive.
	CompressionLevel int
}

// NewRouter builds the full handler chain: panic recovery on the outside,
// then request logging, optional compression, session decoding, and CSRF
// protection around the route mux.
func NewRouter(svc RouterServices) http.Handler {
	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	// Liveness first: no session, no CSRF, no redirects.
	mux.Handle("GET /healthz", svc.Health)

	// Login flow. The provider redirects back to /login/callback with a
	// ticket; both legs run the same state machine.
	mux.HandleFunc("GET /login", svc.Auth.Login)
	mux.HandleFunc("GET /login/callback", svc.Auth.Login)
	mux.HandleFunc("GET /logout", svc.Auth.Logout)
	mux.HandleFunc("GET /onboard", svc.Auth.OnboardForm)
	mux.HandleFunc("POST /onboard", svc.Auth.OnboardSubmit)

	requireUser := RequireUser()
	authed := func(h http.HandlerFunc) http.Handler { return requireUser(h) }

	mux.Handle("GET /{$}", authed(svc.Courses.Dashboard))
	mux.Handle("POST /courses", authed(svc.Courses.Create))
	mux.Handle("POST /courses/join", authed(svc.Courses.Join))
	mux.Handle("GET /courses/{courseID}", authed(svc.Courses.Show))
	mux.Handle("GET /courses/{courseID}/settings", authed(svc.Courses.Settings))
	mux.Handle("POST /courses/{courseID}/settings/entry-code", authed(svc.Courses.RotateEntryCode))

	mux.Handle("GET /courses/{courseID}/events", authed(svc.Events.List))
	mux.Handle("POST /courses/{courseID}/events", authed(svc.Events.Create))
	mux.Handle("GET /courses/{courseID}/events/{eventID}", authed(svc.Events.Show))
	mux.Handle("POST /courses/{courseID}/events/{eventID}/delete", authed(svc.Events.Delete))

	mux.Handle("GET /courses/{courseID}/queue", authed(svc.Queue.Show))
	mux.Handle("POST /courses/{courseID}/queue/join", authed(svc.Queue.Join))
	mux.Handle("POST /courses/{courseID}/queue/leave", authed(svc.Queue.Leave))
	mux.Handle("POST /courses/{courseID}/queue/remove", authed(svc.Queue.Remove))

	mux.Handle("/", svc.Renderer.NotFoundHandler())

	var handler http.Handler = mux
	handler = CSRFProtection(CSRFConfig{})(handler)
	handler = WithSession(svc.Sessions)(handler)
	if svc.CompressionLevel > 0 {
		handler = Compression(svc.CompressionLevel)(handler)
	}
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
