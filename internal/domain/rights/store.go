package rights

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListRoles(ctx context.Context, tenantID string) ([]Role, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(description, '')
    FROM roles
    WHERE tenant_id = $1
    ORDER BY name
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, tenantID, roleID string) (Role, error) {
	id, err := roleUUID(roleID)
	if err != nil {
		return Role{}, err
	}
	var role Role
	err = s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, '')
    FROM roles
    WHERE tenant_id = $1 AND id = $2::uuid
  `, tenantID, id).Scan(&role.ID, &role.Name, &role.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	return role, err
}

func (s *Store) LoadSource(ctx context.Context, tenantID, roleID string) (Source, error) {
	role, err := s.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return Source{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT m.id, COALESCE(m.parent_id, 0), m.level, m.menu_name,
           COALESCE(r.can_view, false), COALESCE(r.can_add, false), COALESCE(r.can_edit, false),
           COALESCE(r.can_delete, false), COALESCE(r.dashboard_right, false)
    FROM menus m
    LEFT JOIN role_menu_rights r ON r.menu_id = m.id AND r.role_id = $2::uuid
    WHERE m.tenant_id = $1
    ORDER BY m.level, m.sort_order, m.id
  `, tenantID, role.ID)
	if err != nil {
		return Source{}, err
	}
	defer rows.Close()

	src := Source{Level2: map[int64][]SourceMenu{}, Level3: map[int64][]SourceMenu{}}
	for rows.Next() {
		var menu SourceMenu
		var level int
		if err := rows.Scan(&menu.ID, &menu.ParentID, &level, &menu.MenuName,
			&menu.CanView, &menu.CanAdd, &menu.CanEdit, &menu.CanDelete, &menu.DashboardRight); err != nil {
			return Source{}, err
		}
		switch level {
		case 1:
			src.Level1 = append(src.Level1, menu)
		case 2:
			src.Level2[menu.ParentID] = append(src.Level2[menu.ParentID], menu)
		case 3:
			src.Level3[menu.ParentID] = append(src.Level3[menu.ParentID], menu)
		}
	}
	if err := rows.Err(); err != nil {
		return Source{}, err
	}
	if src.Level1 == nil {
		src.Level1 = []SourceMenu{}
	}
	return src, nil
}

// SaveRights replaces the role's rights with exactly what payload grants.
func (s *Store) SaveRights(ctx context.Context, tenantID, actorID string, payload SavePayload) error {
	roleID, err := roleUUID(payload.RoleID)
	if err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var roleCount int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1) FROM roles WHERE tenant_id = $1 AND id = $2::uuid
  `, tenantID, roleID).Scan(&roleCount); err != nil {
		return err
	}
	if roleCount == 0 {
		return ErrRoleNotFound
	}

	grants := payload.Grants()
	ids := payload.MenuIDs()
	if len(ids) > 0 {
		var known int
		if err := tx.QueryRow(ctx, `
      SELECT COUNT(1) FROM menus WHERE tenant_id = $1 AND id = ANY($2)
    `, tenantID, ids).Scan(&known); err != nil {
			return err
		}
		if known != len(ids) {
			return fmt.Errorf("%w: %d of %d menus unknown", ErrUnknownMenu, len(ids)-known, len(ids))
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM role_menu_rights WHERE role_id = $1::uuid", roleID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for menuID, perms := range grants {
		batch.Queue(`
      INSERT INTO role_menu_rights (role_id, menu_id, can_view, can_add, can_edit, can_delete, dashboard_right, updated_by)
      VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::uuid)
    `, roleID, menuID, perms.View, perms.Add, perms.Edit, perms.Delete, perms.Dashboard, nullIfEmpty(actorID))
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// MenuRight reports whether any of the role's menus keyed menuKey grants c.
// A role id that is not a UUID matches no role and so grants nothing.
func (s *Store) MenuRight(ctx context.Context, roleID, menuKey string, c Capability) (bool, error) {
	column, err := capabilityColumn(c)
	if err != nil {
		return false, err
	}
	id, err := roleUUID(roleID)
	if err != nil {
		return false, nil
	}
	var allowed bool
	err = s.DB.QueryRow(ctx, `
    SELECT COALESCE(bool_or(r.`+column+`), false)
    FROM role_menu_rights r
    JOIN menus m ON m.id = r.menu_id
    WHERE r.role_id = $1::uuid AND m.menu_key = $2
  `, id, menuKey).Scan(&allowed)
	return allowed, err
}

func (s *Store) ListMenus(ctx context.Context, tenantID string) ([]Menu, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(parent_id, 0), level, menu_key, menu_name, sort_order
    FROM menus
    WHERE tenant_id = $1
    ORDER BY level, sort_order, id
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Menu
	for rows.Next() {
		var m Menu
		if err := rows.Scan(&m.ID, &m.ParentID, &m.Level, &m.Key, &m.Name, &m.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func capabilityColumn(c Capability) (string, error) {
	switch c {
	case CapView:
		return "can_view", nil
	case CapAdd:
		return "can_add", nil
	case CapEdit:
		return "can_edit", nil
	case CapDelete:
		return "can_delete", nil
	case CapDashboard:
		return "dashboard_right", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCapability, c)
}

// roleUUID canonicalises a role id. Anything that is not a UUID cannot name
// a role.
func roleUUID(roleID string) (string, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrRoleNotFound, roleID)
	}
	return id.String(), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
