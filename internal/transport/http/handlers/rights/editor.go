package rightshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrmrights/internal/domain/auth"
	"hrmrights/internal/domain/rights"
	"hrmrights/internal/transport/http/api"
	"hrmrights/internal/transport/http/middleware"
	"hrmrights/internal/transport/http/shared"
)

type masterView struct {
	Checked   bool             `json:"checked"`
	Aggregate rights.Aggregate `json:"aggregate"`
}

type editorView struct {
	ID         string                           `json:"id"`
	RoleID     string                           `json:"roleId"`
	Generation uint64                           `json:"generation"`
	Dirty      bool                             `json:"dirty"`
	Changes    []rights.Change                  `json:"changes"`
	Master     map[rights.Capability]masterView `json:"master"`
	Forest     rights.Forest                    `json:"forest"`
}

func viewOf(id string, e *rights.Editor) editorView {
	master := make(map[rights.Capability]masterView, len(rights.Capabilities))
	for _, c := range rights.Capabilities {
		master[c] = masterView{Checked: e.MasterState(c), Aggregate: e.Aggregate(c)}
	}
	changes := e.Changes()
	if changes == nil {
		changes = []rights.Change{}
	}
	forest := e.Current()
	if forest == nil {
		forest = rights.Forest{}
	}
	return editorView{
		ID:         id,
		RoleID:     e.RoleID(),
		Generation: e.Generation(),
		Dirty:      e.HasChanges(),
		Changes:    changes,
		Master:     master,
		Forest:     forest,
	}
}

type roleRequest struct {
	RoleID string `json:"roleId"`
}

type toggleRequest struct {
	Path       string `json:"path"`
	Capability string `json:"capability"`
	Value      bool   `json:"value"`
	Cascade    bool   `json:"cascade"`
}

type masterRequest struct {
	Capability string `json:"capability"`
	Value      bool   `json:"value"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// session resolves the URL's editor session for the caller, writing the
// error response itself when it cannot.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*rights.Session, auth.UserContext, bool) {
	user, _ := middleware.GetUser(r.Context())
	s, err := h.Sessions.Get(chi.URLParam(r, "sessionID"), user.TenantID, user.UserID)
	if err != nil {
		api.FailError(w, err, fallbackLoad, middleware.GetRequestID(r.Context()))
		return nil, user, false
	}
	return s, user, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, s *rights.Session) {
	var view editorView
	_ = s.Do(func(e *rights.Editor) error {
		view = viewOf(s.ID, e)
		return nil
	})
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEditorCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v := shared.NewValidator()
	v.Required("roleId", req.RoleID, "is required")
	if v.Reject(w, requestID) {
		return
	}

	_, forest, err := h.loadRole(r.Context(), user.TenantID, req.RoleID)
	if err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}

	s := h.Sessions.Create(user.TenantID, user.UserID)
	var view editorView
	_ = s.Do(func(e *rights.Editor) error {
		e.Load(req.RoleID, forest)
		view = viewOf(s.ID, e)
		return nil
	})
	api.Created(w, view, requestID)
}

func (h *Handler) handleEditorGet(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, r, s)
}

func (h *Handler) handleEditorDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Sessions.Delete(chi.URLParam(r, "sessionID"), user.TenantID, user.UserID); err != nil {
		api.FailError(w, err, fallbackLoad, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "closed"}, middleware.GetRequestID(r.Context()))
}

// handleEditorSwitchRole reloads the session with another role. Unsaved
// edits are dropped and any save still in flight will be discarded.
func (h *Handler) handleEditorSwitchRole(w http.ResponseWriter, r *http.Request) {
	s, user, ok := h.session(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v := shared.NewValidator()
	v.Required("roleId", req.RoleID, "is required")
	if v.Reject(w, requestID) {
		return
	}

	_, forest, err := h.loadRole(r.Context(), user.TenantID, req.RoleID)
	if err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}
	_ = s.Do(func(e *rights.Editor) error {
		e.Load(req.RoleID, forest)
		return nil
	})
	h.respond(w, r, s)
}

func (h *Handler) handleEditorToggle(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var req toggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	path, err := rights.ParsePath(req.Path)
	if err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}
	c, err := rights.ParseCapability(req.Capability)
	if err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}

	kind := "toggle"
	err = s.Do(func(e *rights.Editor) error {
		if req.Cascade {
			kind = "cascade"
			return e.Cascade(path, c, req.Value)
		}
		return e.Toggle(path, c, req.Value)
	})
	if err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}
	h.recordMutation(kind, c)
	h.respond(w, r, s)
}

func (h *Handler) handleEditorMaster(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var req masterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := rights.ParseCapability(req.Capability)
	if err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}
	if err := s.Do(func(e *rights.Editor) error { return e.SetMaster(c, req.Value) }); err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}
	h.recordMutation("master", c)
	h.respond(w, r, s)
}

func (h *Handler) handleEditorReset(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	_ = s.Do(func(e *rights.Editor) error {
		e.Reset()
		return nil
	})
	h.respond(w, r, s)
}

// handleEditorSave snapshots the editor, persists outside the session lock
// and then commits the snapshot. A save overtaken by a role switch is still
// persisted but reported as discarded.
func (h *Handler) handleEditorSave(w http.ResponseWriter, r *http.Request) {
	s, user, ok := h.session(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var ticket rights.SaveTicket
	var before rights.Forest
	_ = s.Do(func(e *rights.Editor) error {
		ticket = e.BeginSave(user.UserID)
		before = e.Saved()
		return nil
	})

	changes, err := h.persist(r, user, before, ticket.Payload)
	if err != nil {
		api.FailError(w, err, fallbackSave, requestID)
		return
	}

	commitErr := s.Do(func(e *rights.Editor) error { return e.CommitSave(ticket) })
	if commitErr != nil && !isStale(commitErr) {
		api.FailError(w, commitErr, fallbackSave, requestID)
		return
	}
	if isStale(commitErr) {
		slog.Info("editor save discarded after reload", "sessionId", s.ID, "roleId", ticket.RoleID)
	}
	api.Success(w, saveResponse{
		RoleID:    ticket.RoleID,
		Saved:     true,
		Discarded: isStale(commitErr),
		Changes:   changes,
	}, requestID)
}

func (h *Handler) recordMutation(kind string, c rights.Capability) {
	if h.Metrics != nil {
		h.Metrics.RecordMutation(kind, string(c))
	}
}
