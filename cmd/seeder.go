package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/internal/permission"
	"github.com/frahmantamala/role-permission-api/internal/role"
	"github.com/frahmantamala/role-permission-api/pkg/logger"
	"github.com/spf13/cobra"
)

var clearData bool

var seedPermissions = []string{
	"view_users",
	"create_users",
	"edit_users",
	"delete_users",
	"view_roles",
	"manage_roles",
	"view_permissions",
	"manage_permissions",
	"view_activity_logs",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with default permissions and roles",
	Long:  `Create the default permissions plus an Admin role holding all of them and a Viewer role holding the view_* ones. Existing rows are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		gdb, err := initGorm(db, false)
		if err != nil {
			return err
		}

		services := newServices(cfg, gdb, lg)
		return seed(cmd.Context(), services)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Delete every role and permission before seeding")
}

func seed(ctx context.Context, services *Services) error {
	if clearData {
		if err := clearRBAC(ctx, services); err != nil {
			return err
		}
	}

	existing, err := services.Permission.List(ctx)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Name] = true
	}

	var missing []permission.CreatePermissionDTO
	for _, name := range seedPermissions {
		if !have[name] {
			missing = append(missing, permission.CreatePermissionDTO{Name: name})
		}
	}
	if len(missing) > 0 {
		created, err := services.Permission.CreateMany(ctx, missing)
		if err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}
		fmt.Printf("Seeded %d permissions\n", len(created))
	}

	var viewPermissions []string
	for _, name := range seedPermissions {
		if strings.HasPrefix(name, "view_") {
			viewPermissions = append(viewPermissions, name)
		}
	}

	if err := ensureRole(ctx, services.Role, "Admin", seedPermissions); err != nil {
		return err
	}
	return ensureRole(ctx, services.Role, "Viewer", viewPermissions)
}

// ensureRole creates the role or grants it whatever it is missing.
func ensureRole(ctx context.Context, roles *role.Service, name string, permissions []string) error {
	all, err := roles.List(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	for _, r := range all {
		if r.Name != name {
			continue
		}
		if _, err := roles.Grant(ctx, r.ID, role.GrantPermissionsDTO{Permissions: permissions}); err != nil {
			return fmt.Errorf("grant permissions to %s: %w", name, err)
		}
		fmt.Printf("Role %s already exists; ensured %d permissions\n", name, len(permissions))
		return nil
	}

	if _, err := roles.CreateMany(ctx, []role.CreateRoleDTO{{Name: name, Permissions: permissions}}); err != nil {
		return fmt.Errorf("create role %s: %w", name, err)
	}
	fmt.Printf("Seeded role %s with %d permissions\n", name, len(permissions))
	return nil
}

func clearRBAC(ctx context.Context, services *Services) error {
	roles, err := services.Role.List(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	for _, r := range roles {
		if _, err := services.Role.Delete(ctx, r.ID); err != nil {
			return fmt.Errorf("delete role %s: %w", r.Name, err)
		}
	}

	perms, err := services.Permission.List(ctx)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	if len(perms) == 0 {
		return nil
	}
	_, err = services.Permission.DeleteMany(ctx, permission.DeletePermissionsDTO{IDs: permission.IDs(perms)})
	if err != nil && !internal.IsNotFound(err) {
		return fmt.Errorf("delete permissions: %w", err)
	}
	fmt.Printf("Cleared %d roles and %d permissions\n", len(roles), len(perms))
	return nil
}
