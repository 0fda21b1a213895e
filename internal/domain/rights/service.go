package rights

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	SaveOutcomeOK    = "ok"
	SaveOutcomeError = "error"
)

type Service struct {
	store   StoreAPI
	cache   Cache
	ttl     time.Duration
	metrics SaveRecorder
}

// NewService wires the store with an optional cache; a nil cache or a
// non-positive ttl disables caching.
func NewService(store StoreAPI, cache Cache, ttl time.Duration) *Service {
	return &Service{store: store, cache: cache, ttl: ttl}
}

func (s *Service) WithMetrics(m SaveRecorder) *Service {
	s.metrics = m
	return s
}

func (s *Service) ListRoles(ctx context.Context, tenantID string) ([]Role, error) {
	return s.store.ListRoles(ctx, tenantID)
}

func (s *Service) ListMenus(ctx context.Context, tenantID string) ([]Menu, error) {
	return s.store.ListMenus(ctx, tenantID)
}

func (s *Service) GetRole(ctx context.Context, tenantID, roleID string) (Role, error) {
	return s.store.GetRole(ctx, tenantID, roleID)
}

func (s *Service) Source(ctx context.Context, tenantID, roleID string) (Source, error) {
	key := sourceCacheKey(tenantID, roleID)
	if s.cacheEnabled() {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			src, decodeErr := DecodeSource(raw)
			if decodeErr == nil {
				return src, nil
			}
			slog.Warn("rights cache entry unreadable", "key", key, "err", decodeErr)
		}
	}

	src, err := s.store.LoadSource(ctx, tenantID, roleID)
	if err != nil {
		return Source{}, err
	}

	if s.cacheEnabled() {
		if raw, err := json.Marshal(src); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				slog.Warn("rights cache set failed", "key", key, "err", err)
			}
		}
	}
	return src, nil
}

func (s *Service) Forest(ctx context.Context, tenantID, roleID string) (Forest, error) {
	src, err := s.Source(ctx, tenantID, roleID)
	if err != nil {
		return nil, err
	}
	return BuildForest(src), nil
}

func (s *Service) Save(ctx context.Context, tenantID, actorID string, payload SavePayload) error {
	err := s.store.SaveRights(ctx, tenantID, actorID, payload)
	if s.metrics != nil {
		outcome := SaveOutcomeOK
		if err != nil {
			outcome = SaveOutcomeError
		}
		s.metrics.RecordSave(outcome)
	}
	if err != nil {
		return err
	}
	s.Invalidate(ctx, tenantID, payload.RoleID)
	return nil
}

func (s *Service) Invalidate(ctx context.Context, tenantID, roleID string) {
	if s.cache == nil {
		return
	}
	key := sourceCacheKey(tenantID, roleID)
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("rights cache invalidate failed", "key", key, "err", err)
	}
}

func (s *Service) MenuRight(ctx context.Context, roleID, menuKey string, c Capability) (bool, error) {
	return s.store.MenuRight(ctx, roleID, menuKey, c)
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func sourceCacheKey(tenantID, roleID string) string {
	return "source:" + tenantID + ":" + roleID
}
