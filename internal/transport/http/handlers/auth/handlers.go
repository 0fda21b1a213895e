package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hrmrights/internal/domain/audit"
	"hrmrights/internal/domain/auth"
	"hrmrights/internal/transport/http/api"
	"hrmrights/internal/transport/http/middleware"
	"hrmrights/internal/transport/http/shared"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, auth.AuthUser, error)
	Logout(ctx context.Context, user auth.UserContext) error
	Refresh(ctx context.Context, token string) (string, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

type Handler struct {
	Auth  Authenticator
	Audit audit.Recorder
}

func NewHandler(service Authenticator, recorder audit.Recorder) *Handler {
	return &Handler{Auth: service, Audit: recorder}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	RoleID   string `json:"roleId"`
	Role     string `json:"role"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))

	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, requestID) {
		return
	}

	token, user, err := h.Auth.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		slog.Warn("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", requestID)
		return
	}

	if err := h.Auth.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), audit.Entry{
			TenantID:   user.TenantID,
			ActorID:    user.ID,
			Action:     audit.ActionAuthLogin,
			EntityType: audit.EntityUserSession,
			EntityID:   user.ID,
			RequestID:  requestID,
			IP:         shared.ClientIP(r),
		}); err != nil {
			slog.Warn("audit record failed", "action", audit.ActionAuthLogin, "err", err)
		}
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  userResponse{ID: user.ID, TenantID: user.TenantID, RoleID: user.RoleID, Role: user.RoleName},
	}, requestID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok {
		if err := h.Auth.Logout(r.Context(), user); err != nil {
			slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	token, ok := middleware.BearerToken(r)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	next, err := h.Auth.Refresh(r.Context(), token)
	if errors.Is(err, auth.ErrSessionExpired) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", requestID)
		return
	}
	if err != nil {
		slog.Warn("session refresh failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", requestID)
		return
	}
	api.Success(w, map[string]any{"token": next}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, userResponse{
		ID:       user.UserID,
		TenantID: user.TenantID,
		RoleID:   user.RoleID,
		Role:     user.RoleName,
	}, middleware.GetRequestID(r.Context()))
}
