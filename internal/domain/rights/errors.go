package rights

import "errors"

var (
	ErrInvalidPath          = errors.New("path does not resolve to a menu node")
	ErrUnknownCapability    = errors.New("unknown capability")
	ErrMalformedSourceData  = errors.New("malformed menu rights source data")
	ErrMalformedSavePayload = errors.New("malformed rights save payload")
	ErrDuplicateMenuID      = errors.New("duplicate menu id in forest")
	ErrStaleSave            = errors.New("save completed after the editor was reloaded")
	ErrRoleNotFound         = errors.New("role not found")
	ErrUnknownMenu          = errors.New("menu does not belong to tenant")
	ErrSessionNotFound      = errors.New("editor session not found")
)
