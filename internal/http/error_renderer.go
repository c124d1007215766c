package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/courseq/courseq/internal/errors"
)

// StatusForError maps application error codes to HTTP status codes. Unknown
// errors read as internal failures.
func StatusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeValidation, apperrors.ErrCodeForeignKey:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		return http.StatusForbidden
	case apperrors.ErrCodeAuthRejected:
		return http.StatusUnauthorized
	case apperrors.ErrCodeMalformedResponse, apperrors.ErrCodeTransport, apperrors.ErrCodeDirectoryFailure:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorPage is the payload for the error template.
type errorPage struct {
	Status  int
	Message string
}

// RenderError writes the error page for an application error. Internal
// failures keep their details in the log, not the page.
func (rn *Renderer) RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		rn.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		message = "Something went wrong on our end."
	}
	rn.Render(w, r, status, "error", errorPage{Status: status, Message: message})
}

// NotFoundHandler renders the 404 page for unmatched routes.
func (rn *Renderer) NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rn.Render(w, r, http.StatusNotFound, "error", errorPage{
			Status:  http.StatusNotFound,
			Message: "The page you are looking for does not exist.",
		})
	})
}
