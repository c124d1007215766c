package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/courseq/courseq/internal/domain/model"
	"github.com/courseq/courseq/internal/service"
)

// CourseFlows is the slice of the course service the handlers need.
type CourseFlows interface {
	ListForUser(ctx context.Context, netID string) ([]model.CourseMembership, error)
	JoinByEntryCode(ctx context.Context, netID, entryCode string) (*model.Course, error)
	Create(ctx context.Context, creatorNetID string, req *model.CreateCourseRequest) (*model.Course, error)
	Detail(ctx context.Context, courseID int64, netID string, window model.EventsListOptions) (*service.CourseDetail, error)
	Roster(ctx context.Context, courseID int64, netID string) ([]model.RosterEntry, error)
	RotateEntryCode(ctx context.Context, courseID int64, netID, entryCode string) (*model.Course, error)
	StaffRole(ctx context.Context, courseID int64, netID string) (model.CourseRole, error)
}

// CourseHandlersOptions groups dependencies for CourseHandlers.
type CourseHandlersOptions struct {
	Courses  CourseFlows
	Renderer *Renderer
	Logger   *slog.Logger
	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// CourseHandlers serves the dashboard and the course pages.
type CourseHandlers struct {
	courses  CourseFlows
	renderer *Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewCourseHandlers constructs CourseHandlers.
func NewCourseHandlers(opts CourseHandlersOptions) *CourseHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &CourseHandlers{
		courses:  opts.Courses,
		renderer: opts.Renderer,
		logger:   logger,
		now:      now,
	}
}

// dashboardPage is the payload for the dashboard template.
type dashboardPage struct {
	Memberships []model.CourseMembership
}

// Dashboard lists the viewer's course memberships with the join and create forms.
func (h *CourseHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	memberships, err := h.courses.ListForUser(r.Context(), user.NetID)
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "dashboard", dashboardPage{Memberships: memberships})
}

// Join enrolls the viewer in the course matching the submitted entry code.
func (h *CourseHandlers) Join(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	course, err := h.courses.JoinByEntryCode(r.Context(), user.NetID, r.PostFormValue("entry_code"))
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	http.Redirect(w, r, coursePath(course.CourseID), http.StatusSeeOther)
}

// Create creates a course with the viewer as its instructor.
func (h *CourseHandlers) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	course, err := h.courses.Create(r.Context(), user.NetID, &model.CreateCourseRequest{
		Season:    r.PostFormValue("season"),
		Code:      r.PostFormValue("code"),
		EntryCode: r.PostFormValue("entry_code"),
	})
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.logger.Info("course created",
		slog.Int64("course_id", course.CourseID),
		slog.String("net_id", user.NetID))
	http.Redirect(w, r, coursePath(course.CourseID), http.StatusSeeOther)
}

// coursePage is the payload for the course overview template.
type coursePage struct {
	Course    *model.Course
	Role      model.CourseRole
	Events    []model.Event
	WeekStart time.Time
	PrevWeek  string
	NextWeek  string
}

// Show renders the course overview: this week's sessions plus staff controls.
func (h *CourseHandlers) Show(w http.ResponseWriter, r *http.Request) {
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

	h.renderer.Render(w, r, http.StatusOK, "course", coursePage{
		Course:    detail.Course,
		Role:      detail.Role,
		Events:    detail.Events,
		WeekStart: start,
		PrevWeek:  start.AddDate(0, 0, -7).Format("2006-01-02"),
		NextWeek:  start.AddDate(0, 0, 7).Format("2006-01-02"),
	})
}

// settingsPage is the payload for the course settings template.
type settingsPage struct {
	Course *model.Course
	Role   model.CourseRole
	Roster []model.RosterEntry
}

// Settings renders the roster and the entry-code controls; staff only.
func (h *CourseHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
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
	roster, err := h.courses.Roster(r.Context(), courseID, user.NetID)
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, "settings", settingsPage{
		Course: detail.Course,
		Role:   detail.Role,
		Roster: roster,
	})
}

// RotateEntryCode replaces the course entry code; staff only.
func (h *CourseHandlers) RotateEntryCode(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())

	if _, err := h.courses.RotateEntryCode(r.Context(), courseID, user.NetID, r.PostFormValue("entry_code")); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	http.Redirect(w, r, coursePath(courseID)+"/settings", http.StatusSeeOther)
}

func coursePath(courseID int64) string {
	return "/courses/" + strconv.FormatInt(courseID, 10)
}
