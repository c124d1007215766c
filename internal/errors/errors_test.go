package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  &AppError{Code: ErrCodeNotFound, Message: "course not found"},
			want: "course not found",
		},
		{
			name: "message with cause",
			err: &AppError{
				Code:    ErrCodeTransport,
				Message: "validate request failed",
				Cause:   errors.New("connection refused"),
			},
			want: "validate request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "wrapped")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode ErrorCode
	}{
		{"NotFound", NotFound("x"), ErrCodeNotFound},
		{"NotFoundf", NotFoundf("course %d", 7), ErrCodeNotFound},
		{"Conflict", Conflict("x"), ErrCodeConflict},
		{"Validation", Validation("x"), ErrCodeValidation},
		{"ValidationField", ValidationField("email", "x"), ErrCodeValidation},
		{"ForeignKey", ForeignKey("x"), ErrCodeForeignKey},
		{"Internal", Internal("x"), ErrCodeInternal},
		{"Unauthorized", Unauthorized("x"), ErrCodeUnauthorized},
		{"AuthRejected", AuthRejected("x"), ErrCodeAuthRejected},
		{"AuthRejectedf", AuthRejectedf("code %s", "INVALID_TICKET"), ErrCodeAuthRejected},
		{"MalformedResponse", MalformedResponse("x"), ErrCodeMalformedResponse},
		{"Configuration", Configuration("x"), ErrCodeConfiguration},
		{"DirectoryFailure", DirectoryFailure("x"), ErrCodeDirectoryFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"IsNotFound match", NotFound("x"), IsNotFound, true},
		{"IsNotFound mismatch", Conflict("x"), IsNotFound, false},
		{"IsAuthRejected match", AuthRejected("x"), IsAuthRejected, true},
		{"IsMalformedResponse match", MalformedResponse("x"), IsMalformedResponse, true},
		{"IsConfiguration match", Configuration("x"), IsConfiguration, true},
		{"IsDirectoryFailure match", DirectoryFailure("x"), IsDirectoryFailure, true},
		{"IsUnauthorized match", Unauthorized("x"), IsUnauthorized, true},
		{"nil error", nil, IsNotFound, false},
		{"plain error", errors.New("x"), IsNotFound, false},
		{
			"wrapped AppError found through fmt.Errorf",
			fmt.Errorf("outer: %w", AuthRejected("denied")),
			IsAuthRejected,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAuthenticationFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rejected", AuthRejected("no"), true},
		{"malformed", MalformedResponse("bad body"), true},
		{"transport", Wrap(errors.New("dial"), ErrCodeTransport, "validate failed"), true},
		{"configuration is not a handshake failure", Configuration("bad version"), false},
		{"directory failure is not a handshake failure", DirectoryFailure("500"), false},
		{"plain error", errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthenticationFailure(tt.err); got != tt.want {
				t.Errorf("IsAuthenticationFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap_NilError(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, ErrCodeInternal, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestGetCodeAndField(t *testing.T) {
	if GetCode(ValidationField("year", "bad")) != ErrCodeValidation {
		t.Error("GetCode should return validation")
	}
	if GetField(ValidationField("year", "bad")) != "year" {
		t.Error("GetField should return the field")
	}
	if GetCode(errors.New("x")) != "" {
		t.Error("GetCode on plain error should be empty")
	}
	if GetField(errors.New("x")) != "" {
		t.Error("GetField on plain error should be empty")
	}
}
