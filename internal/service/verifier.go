package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courseq/courseq/internal/cas"
	"github.com/courseq/courseq/internal/data"
	"github.com/courseq/courseq/internal/directory"
	"github.com/courseq/courseq/internal/domain/model"
	apperrors "github.com/courseq/courseq/internal/errors"
)

// UserStore is the slice of the user repository the auth flow needs.
type UserStore interface {
	GetByNetID(ctx context.Context, netID string) (*model.User, error)
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
}

// AccountVerifierOptions groups dependencies for AccountVerifier.
type AccountVerifierOptions struct {
	Users     UserStore
	Directory directory.Lookuper
	Logger    *slog.Logger
}

// AccountVerifier maps a validated SSO identity to a user record. Known users
// are returned as-is; unknown ones are auto-provisioned from the campus
// directory when possible. A directory miss yields (nil, nil): the identity is
// real but the profile must come from the onboarding form.
type AccountVerifier struct {
	users     UserStore
	directory directory.Lookuper
	logger    *slog.Logger
}

// NewAccountVerifier constructs a new AccountVerifier. Directory may be nil
// when no directory service is configured.
func NewAccountVerifier(opts AccountVerifierOptions) *AccountVerifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountVerifier{
		users:     opts.Users,
		directory: opts.Directory,
		logger:    logger,
	}
}

// Verify implements Verifier.
func (v *AccountVerifier) Verify(ctx context.Context, result *cas.AuthResult) (*model.User, error) {
	if result == nil || result.ExternalID == "" {
		return nil, errors.New("missing external identity")
	}
	netID := result.ExternalID

	user, err := v.users.GetByNetID(ctx, netID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, data.ErrUserNotFound) {
		return nil, fmt.Errorf("load user %q: %w", netID, err)
	}

	if v.directory == nil {
		return nil, nil
	}

	person, err := v.directory.Lookup(ctx, netID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		v.logger.InfoContext(ctx, "net ID not in directory, deferring to onboarding", "net_id", netID)
		return nil, nil
	}

	created, err := v.users.Create(ctx, &model.CreateUserRequest{
		NetID:     netID,
		FirstName: person.FirstName,
		LastName:  person.LastName,
		Email:     person.Email,
		Year:      person.Year,
	})
	if err != nil {
		// Two concurrent first logins can race on the insert.
		if errors.Is(err, data.ErrUserExists) {
			return v.users.GetByNetID(ctx, netID)
		}
		// A sparse directory record (no email, say) cannot seed a valid user
		// row. Treat it like a miss: the identity is real, the profile comes
		// from the onboarding form.
		if apperrors.IsValidation(err) {
			v.logger.WarnContext(ctx, "directory record incomplete, deferring to onboarding",
				"net_id", netID, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("provision user %q: %w", netID, err)
	}
	v.logger.InfoContext(ctx, "user auto-provisioned from directory", "net_id", netID)
	return created, nil
}
