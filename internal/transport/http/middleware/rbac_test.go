package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hrmrights/internal/domain/auth"
)

type permStore struct {
	allowed map[string]bool
	err     error
}

func (p permStore) HasPermission(_ context.Context, roleID, permission string) (bool, error) {
	return p.allowed[roleID+":"+permission], p.err
}

func TestRequirePermission(t *testing.T) {
	store := permStore{allowed: map[string]bool{"hr:" + auth.PermRightsWrite: true}}
	handler := RequirePermission(auth.PermRightsWrite, store)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		user   *auth.UserContext
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"employee", &auth.UserContext{UserID: "u2", RoleID: "employee"}, http.StatusForbidden},
		{"hr", &auth.UserContext{UserID: "u1", RoleID: "hr"}, http.StatusNoContent},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/roles/r1/rights", nil)
		if tc.user != nil {
			req = req.WithContext(WithUser(req.Context(), *tc.user))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
	}
}

func TestRequirePermissionStoreError(t *testing.T) {
	handler := RequirePermission(auth.PermRightsRead, permStore{err: errors.New("db down")})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", RoleID: "hr"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
