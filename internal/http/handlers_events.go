package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/courseq/courseq/internal/domain/model"
)

// EventFlows is the slice of the event service the handlers need.
type EventFlows interface {
	Week(ctx context.Context, courseID int64, weekStart time.Time) ([]model.Event, error)
	Get(ctx context.Context, courseID, eventID int64) (*model.Event, error)
	Create(ctx context.Context, actorNetID string, req *model.CreateEventRequest) (*model.Event, error)
	Delete(ctx context.Context, courseID int64, actorNetID string, eventID int64) error
}

// EventHandlersOptions groups dependencies for EventHandlers.
type EventHandlersOptions struct {
	Events   EventFlows
	Courses  CourseFlows
	Renderer *Renderer
	Logger   *slog.Logger
	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// EventHandlers serves the office-hours session pages.
type EventHandlers struct {
	events   EventFlows
	courses  CourseFlows
	renderer *Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewEventHandlers constructs EventHandlers.
func NewEventHandlers(opts EventHandlersOptions) *EventHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &EventHandlers{
		events:   opts.Events,
		courses:  opts.Courses,
		renderer: opts.Renderer,
		logger:   logger,
		now:      now,
	}
}

// eventsPage is the payload for the weekly schedule template.
type eventsPage struct {
	CourseID  int64
	Role      model.CourseRole
	Events    []model.Event
	WeekStart time.Time
	PrevWeek  string
	NextWeek  string
}

// List renders the course's sessions for one week.
func (h *EventHandlers) List(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())
	loc := userLocation(user.TimeZone)
	start := weekStart(r, loc, h.now())

	detail, err := h.courses.Detail(r.Context(), courseID, user.NetID, model.EventsListOptions{
		From: start,
		To:   start.AddDate(0, 0, 7),
	})
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "events", eventsPage{
		CourseID:  courseID,
		Role:      detail.Role,
		Events:    detail.Events,
		WeekStart: start,
		PrevWeek:  start.AddDate(0, 0, -7).Format("2006-01-02"),
		NextWeek:  start.AddDate(0, 0, 7).Format("2006-01-02"),
	})
}

// eventPage is the payload for the single-session template.
type eventPage struct {
	CourseID int64
	Role     model.CourseRole
	Event    *model.Event
	Active   bool
}

// Show renders one session.
func (h *EventHandlers) Show(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())

	detail, err := h.courses.Detail(r.Context(), courseID, user.NetID, model.EventsListOptions{})
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	ev, err := h.events.Get(r.Context(), courseID, eventID)
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "event", eventPage{
		CourseID: courseID,
		Role:     detail.Role,
		Event:    ev,
		Active:   ev.IsActiveAt(h.now()),
	})
}

// Create schedules a session from the submitted form; staff only. Times are
// interpreted in the submitting staff member's time zone.
func (h *EventHandlers) Create(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())
	loc := userLocation(user.TimeZone)

	start, err := parseLocalTime(r.PostFormValue("start_time"), loc)
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	end, err := parseLocalTime(r.PostFormValue("end_time"), loc)
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	ev, err := h.events.Create(r.Context(), user.NetID, &model.CreateEventRequest{
		CourseID:  courseID,
		Helper:    r.PostFormValue("helper"),
		StartTime: start,
		EndTime:   end,
		Location:  r.PostFormValue("location"),
	})
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.logger.Info("session scheduled",
		slog.Int64("course_id", courseID),
		slog.Int64("event_id", ev.EventID),
		slog.String("helper", ev.Helper))
	http.Redirect(w, r, eventPath(courseID, ev.EventID), http.StatusSeeOther)
}

// Delete cancels a session; staff only.
func (h *EventHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	eventID, err := pathID(r, "eventID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())

	if err := h.events.Delete(r.Context(), courseID, user.NetID, eventID); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.logger.Info("session canceled",
		slog.Int64("course_id", courseID),
		slog.Int64("event_id", eventID))
	http.Redirect(w, r, coursePath(courseID)+"/events", http.StatusSeeOther)
}

func eventPath(courseID, eventID int64) string {
	return coursePath(courseID) + "/events/" + strconv.FormatInt(eventID, 10)
}
