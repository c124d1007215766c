package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/courseq/courseq/internal/domain/model"
	"github.com/courseq/courseq/internal/service"
	"github.com/courseq/courseq/internal/session"
)

// AuthFlow is the slice of the auth service the login handlers need.
type AuthFlow interface {
	Authenticate(ctx context.Context, r *http.Request) (*service.Authentication, error)
	LogoutURL() string
	CompleteOnboarding(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
}

// AuthHandlersOptions groups dependencies for AuthHandlers.
type AuthHandlersOptions struct {
	Auth     AuthFlow
	Sessions *session.Store
	Renderer *Renderer
	Logger   *slog.Logger
}

// AuthHandlers serves the login, callback, logout, and onboarding routes.
type AuthHandlers struct {
	auth     AuthFlow
	sessions *session.Store
	renderer *Renderer
	logger   *slog.Logger
}

// NewAuthHandlers constructs AuthHandlers.
func NewAuthHandlers(opts AuthHandlersOptions) *AuthHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		auth:     opts.Auth,
		sessions: opts.Sessions,
		renderer: opts.Renderer,
		logger:   logger,
	}
}

// Login runs one step of the login state machine. The provider redirects back
// to this same flow with a ticket, so the challenge and validation legs share
// a handler. The service URL registered with the provider is query-stripped,
// which would drop a next parameter on the floor; the challenge leg stashes it
// in a short-lived cookie that the callback leg consumes.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if s := GetSessionFromContext(r.Context()); s.User != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	outcome, err := h.auth.Authenticate(r.Context(), r)
	if err != nil {
		h.logger.Warn("login failed", slog.Any("error", err))
		h.renderer.RenderError(w, r, err)
		return
	}

	switch {
	case outcome.Redirect != nil:
		h.stashReturnPath(w, r)
		http.Redirect(w, r, outcome.Redirect.URL, http.StatusFound)
	case outcome.User != nil:
		if err := h.sessions.Commit(w, session.Session{}.WithUser(outcome.User)); err != nil {
			h.renderer.RenderError(w, r, err)
			return
		}
		http.Redirect(w, r, h.postLoginTarget(w, r), http.StatusSeeOther)
	default:
		// Authentic identity with no user record yet: remember it and
		// collect a profile before touching the users table.
		if err := h.sessions.Commit(w, session.Session{}.WithIncumbent(outcome.PendingNetID)); err != nil {
			h.renderer.RenderError(w, r, err)
			return
		}
		http.Redirect(w, r, "/onboard", http.StatusSeeOther)
	}
}

// returnToCookie holds the in-app path to land on after the provider round
// trip. Scoped to /login so it rides only the callback request.
const returnToCookie = "__login_return"

// stashReturnPath remembers a safe next parameter for the callback leg.
func (h *AuthHandlers) stashReturnPath(w http.ResponseWriter, r *http.Request) {
	target := safeRedirectPath(r.URL.Query().Get("next"))
	if target == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     returnToCookie,
		Value:    url.QueryEscape(target),
		Path:     "/login",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   r.TLS != nil || isForwardedHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// postLoginTarget returns where to land after login, constrained to in-app
// paths. A next query parameter wins; otherwise the path stashed on the
// challenge leg is consumed and its cookie cleared.
func (h *AuthHandlers) postLoginTarget(w http.ResponseWriter, r *http.Request) string {
	if target := safeRedirectPath(r.URL.Query().Get("next")); target != "" {
		return target
	}
	if c, err := r.Cookie(returnToCookie); err == nil {
		http.SetCookie(w, &http.Cookie{Name: returnToCookie, Path: "/login", MaxAge: -1})
		if raw, err := url.QueryUnescape(c.Value); err == nil {
			if target := safeRedirectPath(raw); target != "" {
				return target
			}
		}
	}
	return "/"
}

// Logout clears the session and hands the browser to the provider's logout
// endpoint so the SSO session ends too.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w)
	http.Redirect(w, r, h.auth.LogoutURL(), http.StatusSeeOther)
}

// OnboardForm shows the profile form for an identity pending onboarding.
func (h *AuthHandlers) OnboardForm(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())
	if s.User != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if s.IncumbentNetID == "" {
		redirectToLogin(w, r)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "onboard", onboardPage{NetID: s.IncumbentNetID})
}

// onboardPage is the payload for the onboarding template.
type onboardPage struct {
	NetID string
	Error string
	Form  model.CreateUserRequest
}

// OnboardSubmit creates the user from the submitted profile and upgrades the
// session. The user row is inserted before the session is rewritten, so a
// committed session always references an existing user.
func (h *AuthHandlers) OnboardSubmit(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())
	if s.User != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if s.IncumbentNetID == "" {
		redirectToLogin(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	req := &model.CreateUserRequest{
		NetID:     s.IncumbentNetID,
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		TimeZone:  r.PostFormValue("time_zone"),
	}
	if year, ok := parseOptionalInt(r.PostFormValue("year")); ok {
		req.Year = &year
	}

	user, err := h.auth.CompleteOnboarding(r.Context(), req)
	if err != nil {
		h.logger.Warn("onboarding rejected",
			slog.String("net_id", s.IncumbentNetID),
			slog.Any("error", err))
		h.renderer.Render(w, r, http.StatusUnprocessableEntity, "onboard", onboardPage{
			NetID: s.IncumbentNetID,
			Error: err.Error(),
			Form:  *req,
		})
		return
	}

	if err := h.sessions.Commit(w, s.WithUser(user)); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.logger.Info("onboarding complete", slog.String("net_id", user.NetID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
