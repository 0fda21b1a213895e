package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrmrights/internal/domain/auth"
)

type storedResponse struct {
	hash string
	body json.RawMessage
}

type memIdempotency map[string]storedResponse

func (m memIdempotency) Check(_ context.Context, tenantID, userID, endpoint, key, hash string) (json.RawMessage, bool, error) {
	entry, ok := m[tenantID+userID+endpoint+key]
	if !ok {
		return nil, false, nil
	}
	if entry.hash != hash {
		return nil, false, ErrIdempotencyConflict
	}
	return entry.body, true, nil
}

func (m memIdempotency) Save(_ context.Context, tenantID, userID, endpoint, key, hash string, response json.RawMessage) error {
	m[tenantID+userID+endpoint+key] = storedResponse{hash: hash, body: append(json.RawMessage(nil), response...)}
	return nil
}

func TestIdempotentReplaysAndConflicts(t *testing.T) {
	store := memIdempotency{}
	calls := 0
	handler := Idempotent(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"echo":"` + string(body) + `"}}`))
	}))

	send := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/roles/r1/rights", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set(IdempotencyHeader, key)
		req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send("k1", "role_id=r1")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, calls)

	replay := send("k1", "role_id=r1")
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, calls)

	conflict := send("k1", "role_id=r2")
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, calls)

	send("k2", "role_id=r1")
	assert.Equal(t, 2, calls)
}

func TestIdempotentSkipsErrorsAndAnonymous(t *testing.T) {
	store := memIdempotency{}
	handler := Idempotent(store)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a"))
	req.Header.Set(IdempotencyHeader, "k")
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1"}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, store, "failed responses are not stored")

	anon := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a"))
	anon.Header.Set(IdempotencyHeader, "k")
	handler.ServeHTTP(httptest.NewRecorder(), anon)
	assert.Empty(t, store)
}
