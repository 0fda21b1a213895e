package rightshandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrmrights/internal/domain/audit"
	"hrmrights/internal/domain/auth"
	"hrmrights/internal/domain/rights"
	"hrmrights/internal/platform/jobs"
	"hrmrights/internal/transport/http/api"
	"hrmrights/internal/transport/http/middleware"
	"hrmrights/internal/transport/http/shared"
)

type RightsService interface {
	ListRoles(ctx context.Context, tenantID string) ([]rights.Role, error)
	GetRole(ctx context.Context, tenantID, roleID string) (rights.Role, error)
	Source(ctx context.Context, tenantID, roleID string) (rights.Source, error)
	Forest(ctx context.Context, tenantID, roleID string) (rights.Forest, error)
	Save(ctx context.Context, tenantID, actorID string, payload rights.SavePayload) error
	MenuRight(ctx context.Context, roleID, menuKey string, c rights.Capability) (bool, error)
	ListMenus(ctx context.Context, tenantID string) ([]rights.Menu, error)
}

type JobQueue interface {
	Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool
}

type MutationRecorder interface {
	RecordMutation(kind, capability string)
}

type Handler struct {
	Rights      RightsService
	Sessions    *rights.SessionRegistry
	Perms       middleware.PermissionStore
	Audit       audit.Recorder
	Idempotency middleware.IdempotencyStore
	Jobs        JobQueue
	Metrics     MutationRecorder
	now         func() time.Time
}

func NewHandler(service RightsService, sessions *rights.SessionRegistry, perms middleware.PermissionStore) *Handler {
	return &Handler{Rights: service, Sessions: sessions, Perms: perms, now: time.Now}
}

var (
	fallbackLoad = api.Problem{Status: http.StatusInternalServerError, Code: "rights_load_failed", Message: "failed to load rights"}
	fallbackSave = api.Problem{Status: http.StatusBadGateway, Code: "save_failed", Message: "failed to save rights"}
)

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermRightsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermRightsWrite, h.Perms)

	menus := middleware.RequirePermission(auth.PermMenusRead, h.Perms)
	r.With(menus).Get("/me/menus", h.handleMyMenus)
	r.With(menus).Get("/me/menus/{menuKey}/{capability}", h.handleMenuRight)
	r.With(read).Get("/menus", h.handleListMenus)

	r.Route("/roles", func(r chi.Router) {
		r.With(read).Get("/", h.handleListRoles)
		r.With(read).Get("/{roleID}/rights", h.handleGetRights)
		r.With(read).Get("/{roleID}/rights/source", h.handleGetSource)
		r.With(read).Get("/{roleID}/rights/report.pdf", h.handleReport)
		r.With(write, middleware.Idempotent(h.Idempotency)).Post("/{roleID}/rights", h.handleSaveForm)
	})

	r.Route("/rights/editor", func(r chi.Router) {
		r.Use(write)
		r.Post("/", h.handleEditorCreate)
		r.Get("/{sessionID}", h.handleEditorGet)
		r.Delete("/{sessionID}", h.handleEditorDelete)
		r.Put("/{sessionID}/role", h.handleEditorSwitchRole)
		r.Post("/{sessionID}/toggle", h.handleEditorToggle)
		r.Post("/{sessionID}/master", h.handleEditorMaster)
		r.Post("/{sessionID}/reset", h.handleEditorReset)
		r.Post("/{sessionID}/save", h.handleEditorSave)
	})
}

func (h *Handler) handleMyMenus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	forest, err := h.Rights.Forest(r.Context(), user.TenantID, user.RoleID)
	if err != nil {
		slog.Warn("menu forest load failed", "roleId", user.RoleID, "err", err)
		api.FailError(w, err, fallbackLoad, middleware.GetRequestID(r.Context()))
		return
	}
	visible := forest.Visible()
	if visible == nil {
		visible = rights.Forest{}
	}
	api.Success(w, visible, middleware.GetRequestID(r.Context()))
}

// handleMenuRight answers whether the caller's role holds one capability on
// the menu identified by its catalogue key.
func (h *Handler) handleMenuRight(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	c, err := rights.ParseCapability(chi.URLParam(r, "capability"))
	if err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}
	menuKey := chi.URLParam(r, "menuKey")
	allowed, err := h.Rights.MenuRight(r.Context(), user.RoleID, menuKey, c)
	if err != nil {
		slog.Warn("menu right check failed", "menuKey", menuKey, "err", err)
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}
	api.Success(w, map[string]any{"menuKey": menuKey, "capability": c, "allowed": allowed}, requestID)
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	roles, err := h.Rights.ListRoles(r.Context(), user.TenantID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "roles_list_failed", "failed to list roles", middleware.GetRequestID(r.Context()))
		return
	}
	if roles == nil {
		roles = []rights.Role{}
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

// handleListMenus returns the tenant's menu catalogue, optionally narrowed
// to one level.
func (h *Handler) handleListMenus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	level := strings.TrimSpace(r.URL.Query().Get("level"))
	v := shared.NewValidator()
	v.Enum("level", level, []string{"1", "2", "3"}, "must be 1, 2 or 3")
	if v.Reject(w, requestID) {
		return
	}

	menus, err := h.Rights.ListMenus(r.Context(), user.TenantID)
	if err != nil {
		slog.Warn("menu catalogue load failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "menus_list_failed", "failed to list menus", requestID)
		return
	}
	out := make([]rights.Menu, 0, len(menus))
	for _, m := range menus {
		if level == "" || strconv.Itoa(m.Level) == level {
			out = append(out, m)
		}
	}
	api.Success(w, out, requestID)
}

type rightsResponse struct {
	Role   rights.Role   `json:"role"`
	Forest rights.Forest `json:"forest"`
}

func (h *Handler) handleGetRights(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	role, forest, err := h.loadRole(r.Context(), user.TenantID, chi.URLParam(r, "roleID"))
	if err != nil {
		api.FailError(w, err, fallbackLoad, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rightsResponse{Role: role, Forest: forest}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSource(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	src, err := h.Rights.Source(r.Context(), user.TenantID, chi.URLParam(r, "roleID"))
	if err != nil {
		api.FailError(w, err, fallbackLoad, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, src, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	role, forest, err := h.loadRole(r.Context(), user.TenantID, chi.URLParam(r, "roleID"))
	if err != nil {
		api.FailError(w, err, fallbackLoad, middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=rights-%s.pdf", role.ID))
	if err := rights.RenderMatrixPDF(w, "Rights: "+role.Name, forest, h.now()); err != nil {
		slog.Warn("rights report render failed", "roleId", role.ID, "err", err)
	}
}

type saveResponse struct {
	RoleID    string          `json:"roleId"`
	Saved     bool            `json:"saved"`
	Discarded bool            `json:"discarded,omitempty"`
	Changes   []rights.Change `json:"changes"`
}

// handleSaveForm is the save sink: it accepts the form encoding produced by
// SavePayload.Encode and replaces the role's rights with it.
func (h *Handler) handleSaveForm(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	roleID := chi.URLParam(r, "roleID")

	if err := r.ParseForm(); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid form payload", requestID)
		return
	}
	payload, err := rights.DecodeSavePayload(r.PostForm)
	if err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "invalid_payload", "rights payload is malformed", map[string]string{"reason": err.Error()}, requestID)
		return
	}
	if payload.RoleID != roleID {
		v := shared.NewValidator()
		v.Add(rights.FormRoleID, "must match the role in the URL")
		v.Reject(w, requestID)
		return
	}
	payload.UserID = user.UserID

	before, err := h.Rights.Forest(r.Context(), user.TenantID, roleID)
	if err != nil {
		api.FailError(w, err, fallbackLoad, requestID)
		return
	}

	changes, err := h.persist(r, user, before, payload)
	if err != nil {
		api.FailError(w, err, fallbackSave, requestID)
		return
	}
	api.Success(w, saveResponse{RoleID: roleID, Saved: true, Changes: changes}, requestID)
}

// persist writes payload through the service, then audits the diff against
// before and schedules a cache warm-up.
func (h *Handler) persist(r *http.Request, user auth.UserContext, before rights.Forest, payload rights.SavePayload) ([]rights.Change, error) {
	if err := h.Rights.Save(r.Context(), user.TenantID, user.UserID, payload); err != nil {
		slog.Warn("rights save failed", "roleId", payload.RoleID, "err", err)
		return nil, err
	}

	changes := rights.Diff(before, payload.Apply(before))
	if changes == nil {
		changes = []rights.Change{}
	}
	h.recordAudit(r, user, payload.RoleID, changes)
	h.warmCache(user.TenantID, payload.RoleID)
	return changes, nil
}

func (h *Handler) recordAudit(r *http.Request, user auth.UserContext, roleID string, changes []rights.Change) {
	if h.Audit == nil {
		return
	}
	entry := audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     audit.ActionRightsSave,
		EntityType: audit.EntityRoleRights,
		EntityID:   roleID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		After:      map[string]any{"changes": changes},
	}
	if err := h.Audit.Record(r.Context(), entry); err != nil {
		slog.Warn("audit record failed", "action", entry.Action, "err", err)
	}
}

func (h *Handler) warmCache(tenantID, roleID string) {
	if h.Jobs == nil {
		return
	}
	h.Jobs.Enqueue(jobs.JobRightsCacheWarm, tenantID, func(ctx context.Context) (any, error) {
		forest, err := h.Rights.Forest(ctx, tenantID, roleID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"roleId": roleID, "menus": forest.Len()}, nil
	})
}

func (h *Handler) loadRole(ctx context.Context, tenantID, roleID string) (rights.Role, rights.Forest, error) {
	role, err := h.Rights.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return rights.Role{}, nil, err
	}
	forest, err := h.Rights.Forest(ctx, tenantID, roleID)
	if err != nil {
		return rights.Role{}, nil, err
	}
	if err := forest.Validate(); err != nil {
		return rights.Role{}, nil, err
	}
	if forest == nil {
		forest = rights.Forest{}
	}
	return role, forest, nil
}

func isStale(err error) bool {
	return errors.Is(err, rights.ErrStaleSave)
}
