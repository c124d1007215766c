package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseq/courseq/internal/domain/model"
	apperrors "github.com/courseq/courseq/internal/errors"
	"github.com/courseq/courseq/internal/service"
	"github.com/courseq/courseq/internal/session"
)

type routerFixture struct {
	handler http.Handler
	store   *session.Store
	courses *fakeCourses
	events  *fakeEvents
	queue   *fakeQueue
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	store := newTestStore(t)
	renderer := newTestRenderer(t)
	logger := testLogger()
	now := func() time.Time { return time.Date(2026, 9, 9, 14, 0, 0, 0, time.UTC) }

	courses := &fakeCourses{}
	events := &fakeEvents{}
	queue := &fakeQueue{}

	handler := NewRouter(RouterServices{
		Logger:   logger,
		Sessions: store,
		Renderer: renderer,
		Auth: NewAuthHandlers(AuthHandlersOptions{
			Auth: &fakeAuth{}, Sessions: store, Renderer: renderer, Logger: logger,
		}),
		Courses: NewCourseHandlers(CourseHandlersOptions{
			Courses: courses, Renderer: renderer, Logger: logger, Now: now,
		}),
		Events: NewEventHandlers(EventHandlersOptions{
			Events: events, Courses: courses, Renderer: renderer, Logger: logger, Now: now,
		}),
		Queue: NewQueueHandlers(QueueHandlersOptions{
			Queue: queue, Renderer: renderer, Logger: logger, Now: now,
		}),
		Health: NewHealthHandler(nil, nil),
	})

	return &routerFixture{handler: handler, store: store, courses: courses, events: events, queue: queue}
}

func (f *routerFixture) get(t *testing.T, path string, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if user != nil {
		r.AddCookie(sessionCookie(t, f.store, session.Session{}.WithUser(user)))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

// post submits a form with a valid CSRF pair, the way a rendered page would.
func (f *routerFixture) post(t *testing.T, path string, user *model.User, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	const token = "router-test-token"
	form.Set("csrf_token", token)

	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
	if user != nil {
		r.AddCookie(sessionCookie(t, f.store, session.Session{}.WithUser(user)))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func TestRouter_GuestIsRedirectedToLogin(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get(t, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2F", rec.Header().Get("Location"))

	rec = f.get(t, "/courses/7/queue", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fcourses%2F7%2Fqueue", rec.Header().Get("Location"))
}

func TestRouter_Dashboard(t *testing.T) {
	f := newRouterFixture(t)
	f.courses.listFunc = func(_ context.Context, netID string) ([]model.CourseMembership, error) {
		require.Equal(t, "bm7", netID)
		return []model.CourseMembership{
			{CourseID: 7, Season: "Fall 2026", Code: "CS 2110", NetID: netID, Role: model.CourseRoleStudent},
		}, nil
	}

	rec := f.get(t, "/", testUser())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CS 2110")
	assert.Contains(t, rec.Body.String(), "/courses/7")
}

func TestRouter_JoinCourse(t *testing.T) {
	f := newRouterFixture(t)
	var gotCode string
	f.courses.joinFunc = func(_ context.Context, netID, entryCode string) (*model.Course, error) {
		gotCode = entryCode
		return &model.Course{CourseID: 7, EntryCode: entryCode}, nil
	}

	rec := f.post(t, "/courses/join", testUser(), url.Values{"entry_code": {"apple-tree-42"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/courses/7", rec.Header().Get("Location"))
	assert.Equal(t, "apple-tree-42", gotCode)
}

func TestRouter_PostWithoutCSRFTokenIsRejected(t *testing.T) {
	f := newRouterFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/courses/join",
		strings.NewReader("entry_code=apple-tree-42"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(sessionCookie(t, f.store, session.Session{}.WithUser(testUser())))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_CourseShowPassesViewerWeekWindow(t *testing.T) {
	f := newRouterFixture(t)
	var gotWindow model.EventsListOptions
	f.courses.detailFunc = func(_ context.Context, courseID int64, netID string, window model.EventsListOptions) (*service.CourseDetail, error) {
		gotWindow = window
		return &service.CourseDetail{
			Course: &model.Course{CourseID: courseID, Season: "Fall 2026", Code: "CS 2110"},
			Role:   model.CourseRoleStudent,
		}, nil
	}

	rec := f.get(t, "/courses/7", testUser())
	assert.Equal(t, http.StatusOK, rec.Code)

	// The fixture clock is Wednesday Sep 9 2026 UTC; the window opens on the
	// preceding Monday in the viewer's zone and spans seven days.
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.True(t, gotWindow.From.Equal(time.Date(2026, 9, 7, 0, 0, 0, 0, loc)), "window start %v", gotWindow.From)
	assert.True(t, gotWindow.To.Equal(gotWindow.From.AddDate(0, 0, 7)), "window end %v", gotWindow.To)
}

func TestRouter_UnknownCourseRenders404(t *testing.T) {
	f := newRouterFixture(t)
	f.courses.detailFunc = func(context.Context, int64, string, model.EventsListOptions) (*service.CourseDetail, error) {
		return nil, apperrors.NotFound("Course not found")
	}

	rec := f.get(t, "/courses/999", testUser())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Course not found")
}

func TestRouter_QueueJoin(t *testing.T) {
	f := newRouterFixture(t)
	var gotProblem string
	f.queue.joinFunc = func(_ context.Context, courseID int64, netID, problem, notes string, _ time.Time) (*model.QueueEntry, error) {
		require.Equal(t, int64(7), courseID)
		gotProblem = problem
		return &model.QueueEntry{EventID: 10, NetID: netID, Problem: problem}, nil
	}

	rec := f.post(t, "/courses/7/queue/join", testUser(), url.Values{"problem": {"segfault in part 3"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/courses/7/queue", rec.Header().Get("Location"))
	assert.Equal(t, "segfault in part 3", gotProblem)
}

func TestRouter_EventCreateParsesViewerLocalTimes(t *testing.T) {
	f := newRouterFixture(t)
	var gotReq *model.CreateEventRequest
	f.events.createFunc = func(_ context.Context, actorNetID string, req *model.CreateEventRequest) (*model.Event, error) {
		require.Equal(t, "bm7", actorNetID)
		gotReq = req
		return &model.Event{EventID: 10, CourseID: req.CourseID}, nil
	}

	rec := f.post(t, "/courses/7/events", testUser(), url.Values{
		"start_time": {"2026-09-10T15:00"},
		"end_time":   {"2026-09-10T17:00"},
		"location":   {"Rhodes 574"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	require.NotNil(t, gotReq)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.True(t, gotReq.StartTime.Equal(time.Date(2026, 9, 10, 15, 0, 0, 0, loc)), "start %v", gotReq.StartTime)
	assert.Equal(t, 2*time.Hour, gotReq.EndTime.Sub(gotReq.StartTime))
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouter_NotFound(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.get(t, "/no-such-page", testUser())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not exist")
}
