package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/courseq/courseq/internal/domain/model"
	"github.com/courseq/courseq/internal/service"
	"github.com/courseq/courseq/internal/session"
)

const testSessionSecret = "unit-test-session-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(session.Config{Secrets: []string{testSessionSecret}})
	require.NoError(t, err)
	return store
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer(testLogger())
	require.NoError(t, err)
	return renderer
}

// sessionCookie encodes a session the way the login flow would, for attaching
// to test requests.
func sessionCookie(t *testing.T, store *session.Store, s session.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, store.Commit(rec, s))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func testUser() *model.User {
	return &model.User{
		NetID:     "bm7",
		FirstName: "Bella",
		LastName:  "Mars",
		Email:     "bm7@example.edu",
		TimeZone:  "America/New_York",
		Role:      model.UserRoleStudent,
	}
}

// fakeAuth is a test double for the auth service.
type fakeAuth struct {
	authenticateFunc func(ctx context.Context, r *http.Request) (*service.Authentication, error)
	onboardFunc      func(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
}

func (f *fakeAuth) Authenticate(ctx context.Context, r *http.Request) (*service.Authentication, error) {
	if f.authenticateFunc != nil {
		return f.authenticateFunc(ctx, r)
	}
	return &service.Authentication{User: testUser()}, nil
}

func (f *fakeAuth) LogoutURL() string {
	return "https://sso.example.edu/cas/logout"
}

func (f *fakeAuth) CompleteOnboarding(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if f.onboardFunc != nil {
		return f.onboardFunc(ctx, req)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &model.User{
		NetID:     req.NetID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Year:      req.Year,
		TimeZone:  req.TimeZone,
		Role:      req.Role,
	}, nil
}

// fakeCourses is a test double for the course service.
type fakeCourses struct {
	listFunc   func(ctx context.Context, netID string) ([]model.CourseMembership, error)
	joinFunc   func(ctx context.Context, netID, entryCode string) (*model.Course, error)
	createFunc func(ctx context.Context, creatorNetID string, req *model.CreateCourseRequest) (*model.Course, error)
	detailFunc func(ctx context.Context, courseID int64, netID string, window model.EventsListOptions) (*service.CourseDetail, error)
	rosterFunc func(ctx context.Context, courseID int64, netID string) ([]model.RosterEntry, error)
	rotateFunc func(ctx context.Context, courseID int64, netID, entryCode string) (*model.Course, error)
}

func (f *fakeCourses) ListForUser(ctx context.Context, netID string) ([]model.CourseMembership, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, netID)
	}
	return nil, nil
}

func (f *fakeCourses) JoinByEntryCode(ctx context.Context, netID, entryCode string) (*model.Course, error) {
	if f.joinFunc != nil {
		return f.joinFunc(ctx, netID, entryCode)
	}
	return &model.Course{CourseID: 7, EntryCode: entryCode}, nil
}

func (f *fakeCourses) Create(ctx context.Context, creatorNetID string, req *model.CreateCourseRequest) (*model.Course, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, creatorNetID, req)
	}
	return &model.Course{CourseID: 7, Season: req.Season, Code: req.Code, EntryCode: req.EntryCode}, nil
}

func (f *fakeCourses) Detail(ctx context.Context, courseID int64, netID string, window model.EventsListOptions) (*service.CourseDetail, error) {
	if f.detailFunc != nil {
		return f.detailFunc(ctx, courseID, netID, window)
	}
	return &service.CourseDetail{
		Course: &model.Course{CourseID: courseID, Season: "Fall 2026", Code: "CS 2110", EntryCode: "apple-tree-42"},
		Role:   model.CourseRoleStudent,
	}, nil
}

func (f *fakeCourses) Roster(ctx context.Context, courseID int64, netID string) ([]model.RosterEntry, error) {
	if f.rosterFunc != nil {
		return f.rosterFunc(ctx, courseID, netID)
	}
	return nil, nil
}

func (f *fakeCourses) RotateEntryCode(ctx context.Context, courseID int64, netID, entryCode string) (*model.Course, error) {
	if f.rotateFunc != nil {
		return f.rotateFunc(ctx, courseID, netID, entryCode)
	}
	return &model.Course{CourseID: courseID, EntryCode: entryCode}, nil
}

func (f *fakeCourses) StaffRole(ctx context.Context, courseID int64, netID string) (model.CourseRole, error) {
	return model.CourseRoleInstructor, nil
}

// fakeEvents is a test double for the event service.
type fakeEvents struct {
	getFunc    func(ctx context.Context, courseID, eventID int64) (*model.Event, error)
	createFunc func(ctx context.Context, actorNetID string, req *model.CreateEventRequest) (*model.Event, error)
	deleteFunc func(ctx context.Context, courseID int64, actorNetID string, eventID int64) error
}

func (f *fakeEvents) Week(ctx context.Context, courseID int64, weekStart time.Time) ([]model.Event, error) {
	return nil, nil
}

func (f *fakeEvents) Get(ctx context.Context, courseID, eventID int64) (*model.Event, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, courseID, eventID)
	}
	now := time.Now()
	return &model.Event{
		EventID:   eventID,
		CourseID:  courseID,
		Helper:    "ta1",
		StartTime: now,
		EndTime:   now.Add(2 * time.Hour),
		Location:  "Rhodes 574",
	}, nil
}

func (f *fakeEvents) Create(ctx context.Context, actorNetID string, req *model.CreateEventRequest) (*model.Event, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, actorNetID, req)
	}
	return &model.Event{
		EventID:   10,
		CourseID:  req.CourseID,
		Helper:    req.Helper,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
	}, nil
}

func (f *fakeEvents) Delete(ctx context.Context, courseID int64, actorNetID string, eventID int64) error {
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, courseID, actorNetID, eventID)
	}
	return nil
}

// fakeQueue is a test double for the queue service.
type fakeQueue struct {
	viewFunc   func(ctx context.Context, courseID int64, netID string, now time.Time) (*service.QueueView, error)
	joinFunc   func(ctx context.Context, courseID int64, netID, problem, notes string, now time.Time) (*model.QueueEntry, error)
	leaveFunc  func(ctx context.Context, courseID int64, netID string, now time.Time) error
	removeFunc func(ctx context.Context, courseID int64, actorNetID, targetNetID string, now time.Time) error
}

func (f *fakeQueue) View(ctx context.Context, courseID int64, netID string, now time.Time) (*service.QueueView, error) {
	if f.viewFunc != nil {
		return f.viewFunc(ctx, courseID, netID, now)
	}
	return &service.QueueView{Role: model.CourseRoleStudent}, nil
}

func (f *fakeQueue) Join(ctx context.Context, courseID int64, netID, problem, notes string, now time.Time) (*model.QueueEntry, error) {
	if f.joinFunc != nil {
		return f.joinFunc(ctx, courseID, netID, problem, notes, now)
	}
	return &model.QueueEntry{EventID: 10, NetID: netID, Problem: problem}, nil
}

func (f *fakeQueue) Leave(ctx context.Context, courseID int64, netID string, now time.Time) error {
	if f.leaveFunc != nil {
		return f.leaveFunc(ctx, courseID, netID, now)
	}
	return nil
}

func (f *fakeQueue) Remove(ctx context.Context, courseID int64, actorNetID, targetNetID string, now time.Time) error {
	if f.removeFunc != nil {
		return f.removeFunc(ctx, courseID, actorNetID, targetNetID, now)
	}
	return nil
}
