package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/courseq/courseq/internal/domain/model"
	"github.com/courseq/courseq/internal/service"
)

// QueueFlows is the slice of the queue service the handlers need.
type QueueFlows interface {
	View(ctx context.Context, courseID int64, netID string, now time.Time) (*service.QueueView, error)
	Join(ctx context.Context, courseID int64, netID, problem, notes string, now time.Time) (*model.QueueEntry, error)
	Leave(ctx context.Context, courseID int64, netID string, now time.Time) error
	Remove(ctx context.Context, courseID int64, actorNetID, targetNetID string, now time.Time) error
}

// QueueHandlersOptions groups dependencies for QueueHandlers.
type QueueHandlersOptions struct {
	Queue    QueueFlows
	Renderer *Renderer
	Logger   *slog.Logger
	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// QueueHandlers serves the live help-queue pages.
type QueueHandlers struct {
	queue    QueueFlows
	renderer *Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewQueueHandlers constructs QueueHandlers.
func NewQueueHandlers(opts QueueHandlersOptions) *QueueHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &QueueHandlers{
		queue:    opts.Queue,
		renderer: opts.Renderer,
		logger:   logger,
		now:      now,
	}
}

// queuePage is the payload for the queue template.
type queuePage struct {
	CourseID int64
	View     *service.QueueView
}

// Show renders the queue of the currently running session.
func (h *QueueHandlers) Show(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())

	view, err := h.queue.View(r.Context(), courseID, user.NetID, h.now())
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "queue", queuePage{CourseID: courseID, View: view})
}

// Join puts the viewer on the running session's queue.
func (h *QueueHandlers) Join(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())

	entry, err := h.queue.Join(r.Context(), courseID, user.NetID,
		r.PostFormValue("problem"), r.PostFormValue("notes"), h.now())
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.logger.Info("queue joined",
		slog.Int64("event_id", entry.EventID),
		slog.String("net_id", user.NetID))
	http.Redirect(w, r, coursePath(courseID)+"/queue", http.StatusSeeOther)
}

// Leave removes the viewer's own entry.
func (h *QueueHandlers) Leave(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())

	if err := h.queue.Leave(r.Context(), courseID, user.NetID, h.now()); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	http.Redirect(w, r, coursePath(courseID)+"/queue", http.StatusSeeOther)
}

// Remove takes another student off the queue; staff only.
func (h *QueueHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	user := CurrentUser(r.Context())
	target := r.PostFormValue("net_id")

	if err := h.queue.Remove(r.Context(), courseID, user.NetID, target, h.now()); err != nil {
		h.renderer.RenderError(w, r, err)
		return
	}
	h.logger.Info("queue entry removed",
		slog.Int64("course_id", courseID),
		slog.String("net_id", target),
		slog.String("removed_by", user.NetID))
	http.Redirect(w, r, coursePath(courseID)+"/queue", http.StatusSeeOther)
}
