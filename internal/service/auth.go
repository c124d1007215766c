package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/courseq/courseq/internal/cas"
	"github.com/courseq/courseq/internal/domain/model"
)

// TicketValidator is the slice of the SSO client the orchestrator needs.
type TicketValidator interface {
	LoginURL(service string, original url.Values) string
	LogoutURL() string
	ValidateTicket(ctx context.Context, ticket, service string) (*cas.AuthResult, error)
}

// ServiceResolver resolves the service callback URL for a request. The same
// resolver must be used for the challenge redirect and the validation call so
// the two URLs match byte for byte.
type ServiceResolver interface {
	Resolve(r *http.Request) string
}

// Verifier turns a validated SSO identity into an application user.
// A (nil, nil) return means the identity is authentic but unknown to the
// campus directory; the caller starts onboarding for it.
type Verifier interface {
	Verify(ctx context.Context, result *cas.AuthResult) (*model.User, error)
}

// LoginRedirect instructs the handler to send the browser to the SSO provider.
type LoginRedirect struct {
	URL string
}

// Authentication is the result of one login step. Exactly one of the fields
// is set: Redirect for the challenge leg, User for a resolved login, and
// PendingNetID for an authentic identity that still needs onboarding.
type Authentication struct {
	User         *model.User
	PendingNetID string
	Redirect     *LoginRedirect
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Client   TicketValidator
	Resolver ServiceResolver
	Verifier Verifier
	Users    UserStore
	Logger   *slog.Logger
}

// AuthService orchestrates the SSO handshake: it decides between the
// challenge leg (redirect to the provider) and the validation leg (ticket
// exchange plus identity verification).
type AuthService struct {
	client   TicketValidator
	resolver ServiceResolver
	verifier Verifier
	users    UserStore
	logger   *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		client:   opts.Client,
		resolver: opts.Resolver,
		verifier: opts.Verifier,
		users:    opts.Users,
		logger:   logger,
	}
}

// Authenticate runs one step of the login state machine for the request.
// Without a ticket it returns a redirect to the provider. With a ticket it
// validates it against the same service URL and verifies the identity. An
// authentic identity with no user record yet comes back as PendingNetID; the
// caller starts onboarding for it.
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (*Authentication, error) {
	service := s.resolver.Resolve(r)

	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		return &Authentication{Redirect: &LoginRedirect{URL: s.client.LoginURL(service, r.URL.Query())}}, nil
	}

	result, err := s.client.ValidateTicket(ctx, ticket, service)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "ticket validated", "net_id", result.ExternalID)

	user, err := s.verifier.Verify(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("verify identity: %w", err)
	}
	if user == nil {
		return &Authentication{PendingNetID: result.ExternalID}, nil
	}
	return &Authentication{User: user}, nil
}

// LogoutURL returns the provider's logout endpoint.
func (s *AuthService) LogoutURL() string {
	return s.client.LogoutURL()
}

// CompleteOnboarding finishes a pending identity: the submitted profile is
// inserted and the created user returned. The caller commits the session only
// after this succeeds, so a session never references a user row that does not
// exist.
func (s *AuthService) CompleteOnboarding(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("onboarding request is required")
	}
	user, err := s.users.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user onboarded", "net_id", user.NetID)
	return user, nil
}
