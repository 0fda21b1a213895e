package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hrmrights/internal/domain/rights"
	"hrmrights/internal/platform/cache"
	"hrmrights/internal/platform/jobs"
)

var (
	warmTenant string
	warmRole   string
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Reload role rights into the Redis cache",
	Long: `Warm drops and reloads the cached rights payload of one role, or of every
role of the tenant when --role is omitted. The run is recorded in job_runs.`,
	RunE: runWarm,
}

func init() {
	warmCmd.Flags().StringVar(&warmTenant, "tenant", "", "Tenant id")
	warmCmd.Flags().StringVar(&warmRole, "role", "", "Role id (default all roles)")
	_ = warmCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	addrs := cache.Addrs(cfg.RedisAddr)
	if len(addrs) == 0 {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	pool, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	c := cache.New(addrs, cfg.RedisPassword, "rights")
	defer c.Close()

	svc := rights.NewService(rights.NewStore(pool), c, cfg.RightsCacheTTL)
	roleIDs := []string{warmRole}
	if warmRole == "" {
		roles, err := svc.ListRoles(cmd.Context(), warmTenant)
		if err != nil {
			return fmt.Errorf("listing roles: %w", err)
		}
		roleIDs = roleIDs[:0]
		for _, r := range roles {
			roleIDs = append(roleIDs, r.ID)
		}
	}

	_, err = jobs.New(pool, cfg).RunNow(cmd.Context(), jobs.JobRightsCacheWarm, warmTenant, func(ctx context.Context) (any, error) {
		return warmRoles(ctx, cmd.OutOrStdout(), svc, warmTenant, roleIDs)
	})
	return err
}

type rightsWarmer interface {
	Invalidate(ctx context.Context, tenantID, roleID string)
	Forest(ctx context.Context, tenantID, roleID string) (rights.Forest, error)
}

// warmRoles stops at the first role that fails to load.
func warmRoles(ctx context.Context, w io.Writer, svc rightsWarmer, tenantID string, roleIDs []string) (map[string]int, error) {
	warmed := make(map[string]int, len(roleIDs))
	for _, roleID := range roleIDs {
		svc.Invalidate(ctx, tenantID, roleID)
		forest, err := svc.Forest(ctx, tenantID, roleID)
		if err != nil {
			return warmed, fmt.Errorf("warming role %s: %w", roleID, err)
		}
		warmed[roleID] = forest.Len()
		fmt.Fprintf(w, "%s\t%d menus\n", roleID, forest.Len())
	}
	return warmed, nil
}
