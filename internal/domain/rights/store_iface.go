package rights

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListRoles(ctx context.Context, tenantID string) ([]Role, error)
	GetRole(ctx context.Context, tenantID, roleID string) (Role, error)
	LoadSource(ctx context.Context, tenantID, roleID string) (Source, error)
	SaveRights(ctx context.Context, tenantID, actorID string, payload SavePayload) error
	MenuRight(ctx context.Context, roleID, menuKey string, c Capability) (bool, error)
	ListMenus(ctx context.Context, tenantID string) ([]Menu, error)
}

// Cache stores encoded role sources. Get returns an error on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type SaveRecorder interface {
	RecordSave(outcome string)
}
