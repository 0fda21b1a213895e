package api

import (
	"errors"
	"net/http"

	"hrmrights/internal/domain/rights"
)

// Problem is the HTTP rendering of a domain error.
type Problem struct {
	Status  int
	Code    string
	Message string
}

var rightsProblems = []struct {
	err     error
	problem Problem
}{
	{rights.ErrInvalidPath, Problem{http.StatusUnprocessableEntity, "invalid_path", "node path does not exist"}},
	{rights.ErrUnknownCapability, Problem{http.StatusBadRequest, "unknown_capability", "unknown capability"}},
	{rights.ErrMalformedSourceData, Problem{http.StatusBadGateway, "malformed_source", "rights source data is malformed"}},
	{rights.ErrMalformedSavePayload, Problem{http.StatusBadRequest, "invalid_payload", "rights payload is malformed"}},
	{rights.ErrDuplicateMenuID, Problem{http.StatusBadGateway, "malformed_source", "rights source contains duplicate menus"}},
	{rights.ErrRoleNotFound, Problem{http.StatusNotFound, "role_not_found", "role not found"}},
	{rights.ErrSessionNotFound, Problem{http.StatusNotFound, "session_not_found", "editor session not found"}},
	{rights.ErrUnknownMenu, Problem{http.StatusUnprocessableEntity, "unknown_menu", "payload references unknown menus"}},
	{rights.ErrStaleSave, Problem{http.StatusConflict, "stale_save", "editor moved on before the save completed"}},
}

// ProblemFor maps err to a status and code. Unrecognised errors become
// fallback.
func ProblemFor(err error, fallback Problem) Problem {
	for _, entry := range rightsProblems {
		if errors.Is(err, entry.err) {
			return entry.problem
		}
	}
	return fallback
}

func FailError(w http.ResponseWriter, err error, fallback Problem, requestID string) {
	p := ProblemFor(err, fallback)
	Fail(w, p.Status, p.Code, p.Message, requestID)
}
