package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrmrights/internal/domain/auth"
	"hrmrights/internal/platform/config"
)

// Seed is idempotent: every step looks up before inserting.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}

	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleIDs, err := ensureRoles(ctx, pool, tenantID)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	if err := ensureMenus(ctx, pool, tenantID, DefaultMenus); err != nil {
		return err
	}

	// HR starts with the full matrix so someone can open the rights screen.
	if err := ensureFullRights(ctx, pool, tenantID, roleIDs[auth.RoleHR]); err != nil {
		return err
	}

	return ensureAdminUser(ctx, pool, tenantID, roleIDs[auth.RoleHR], cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	if err := pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range auth.DefaultPermissions {
		if _, err := pool.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm); err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, tenantID string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for roleName := range auth.RolePermissions {
		var id string
		err := pool.QueryRow(ctx, `
    INSERT INTO roles (tenant_id, name, description)
    VALUES ($1, $2, $3)
    ON CONFLICT (tenant_id, name) DO UPDATE SET description = COALESCE(roles.description, EXCLUDED.description)
    RETURNING id
  `, tenantID, roleName, auth.RoleDescriptions[roleName]).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	for roleName, perms := range auth.RolePermissions {
		for _, permKey := range perms {
			tag, err := pool.Exec(ctx, `
      INSERT INTO role_permissions (role_id, permission_id)
      SELECT $1, id FROM permissions WHERE key = $2
      ON CONFLICT DO NOTHING
    `, roleIDs[roleName], permKey)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				var exists bool
				if err := pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM permissions WHERE key = $1)", permKey).Scan(&exists); err != nil {
					return err
				}
				if !exists {
					return errors.New("permission not found: " + permKey)
				}
			}
		}
	}
	return nil
}

func ensureMenus(ctx context.Context, pool *pgxpool.Pool, tenantID string, menus []MenuSeed) error {
	if d := Depth(menus); d > 3 {
		return fmt.Errorf("menu catalogue is %d levels deep, at most 3 supported", d)
	}
	return insertMenus(ctx, pool, tenantID, nil, 1, menus)
}

func insertMenus(ctx context.Context, pool *pgxpool.Pool, tenantID string, parentID *int64, level int, menus []MenuSeed) error {
	for i, m := range menus {
		var id int64
		err := pool.QueryRow(ctx, `
    INSERT INTO menus (tenant_id, parent_id, level, menu_key, menu_name, sort_order)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (tenant_id, menu_key) DO UPDATE SET menu_name = EXCLUDED.menu_name
    RETURNING id
  `, tenantID, parentID, level, m.Key, m.Name, i).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed menu %s: %w", m.Key, err)
		}
		if len(m.Children) > 0 {
			if err := insertMenus(ctx, pool, tenantID, &id, level+1, m.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureFullRights(ctx context.Context, pool *pgxpool.Pool, tenantID, roleID string) error {
	if roleID == "" {
		return nil
	}
	_, err := pool.Exec(ctx, `
    INSERT INTO role_menu_rights (role_id, menu_id, can_view, can_add, can_edit, can_delete, dashboard_right)
    SELECT $2, m.id, true, true, true, true, true
    FROM menus m
    WHERE m.tenant_id = $1
    ON CONFLICT (role_id, menu_id) DO NOTHING
  `, tenantID, roleID)
	return err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, roleID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE tenant_id = $1 AND email = $2", tenantID, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, "INSERT INTO users (tenant_id, email, password_hash, role_id, status) VALUES ($1, $2, $3, $4, $5)", tenantID, email, hash, roleID, auth.UserStatusActive)
	return err
}
