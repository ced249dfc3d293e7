package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/spf13/cobra"
)

var (
	adminName     string
	adminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed default actions, permissions, roles and an administrator",
	Long: `Seeds the default privilege hierarchy and an administrator holding the
admin role. Entities that already exist are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		if adminPassword == "" {
			adminPassword = os.Getenv("ENV_ADMIN_PASSWORD")
		}
		if adminPassword == "" {
			return errors.New("admin password is required: pass --admin-password or set ENV_ADMIN_PASSWORD")
		}

		return seed(cmd.Context(), deps)
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <user> <role>",
	Short: "Grant a role to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		ok, err := deps.Accounts.GrantRole(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("could not grant %q to %q: unknown user or role", args[1], args[0])
		}
		fmt.Printf("granted %s to %s\n", args[1], args[0])
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <user> <role>",
	Short: "Revoke a role from a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := initializeDependencies()
		if err != nil {
			return err
		}
		defer deps.Close()

		ok, err := deps.Accounts.RevokeRole(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("could not revoke %q from %q: unknown user", args[1], args[0])
		}
		fmt.Printf("revoked %s from %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminName, "admin-name", "admin", "name of the seeded administrator")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "password of the seeded administrator")
}

type seedPermission struct {
	name    string
	actions []string
}

type seedRole struct {
	name        string
	permissions []string
}

var (
	defaultActions = []privilege.Action{
		privilege.NewAction("view", "allows viewing"),
		privilege.NewAction("create", "allows creating"),
		privilege.NewAction("edit", "allows editing"),
		privilege.NewAction("publish", "allows publishing"),
		privilege.NewAction("delete", "allows deleting"),
		privilege.NewAction("manage-users", "allows managing users and their roles"),
	}
	defaultPermissions = []seedPermission{
		{"read-content", []string{"view"}},
		{"write-content", []string{"view", "create", "edit"}},
		{"publish-content", []string{"view", "publish"}},
		{"administer", []string{"view", "create", "edit", "publish", "delete", "manage-users"}},
	}
	defaultRoles = []seedRole{
		{"viewer", []string{"read-content"}},
		{"editor", []string{"read-content", "write-content"}},
		{"publisher", []string{"read-content", "publish-content"}},
		{"admin", []string{"administer"}},
	}
)

func seed(ctx context.Context, deps *Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stores := deps.Stores
	lg := deps.Logger

	if deps.Config.Database.Driver == internal.DriverSQLite {
		if err := stores.EnsureTables(ctx); err != nil {
			return err
		}
	}

	for _, a := range defaultActions {
		if _, err := stores.Actions.Create(ctx, a); err != nil && !errors.Is(err, internal.ErrAlreadyExists) {
			return err
		}
	}

	for _, p := range defaultPermissions {
		actions := make([]privilege.Action, 0, len(p.actions))
		for _, name := range p.actions {
			a, err := stores.Actions.Read(ctx, name)
			if err != nil {
				return err
			}
			actions = append(actions, a)
		}
		if _, err := stores.Permissions.Create(ctx, privilege.NewPermission(p.name, actions...)); err != nil && !errors.Is(err, internal.ErrAlreadyExists) {
			return err
		}
	}

	for _, r := range defaultRoles {
		permissions := make([]privilege.Permission, 0, len(r.permissions))
		for _, name := range r.permissions {
			p, err := stores.Permissions.Read(ctx, name)
			if err != nil {
				return err
			}
			permissions = append(permissions, p)
		}
		if _, err := stores.Roles.Create(ctx, privilege.NewRole(r.name, permissions...)); err != nil && !errors.Is(err, internal.ErrAlreadyExists) {
			return err
		}
	}

	if _, err := deps.Accounts.Register(ctx, adminName, adminPassword, nil, nil); err != nil {
		if !errors.Is(err, internal.ErrAlreadyExists) {
			return err
		}
		lg.Info("administrator already exists; will ensure role", "user", adminName)
	}
	if _, err := deps.Accounts.GrantRole(ctx, adminName, "admin"); err != nil {
		return err
	}

	lg.Info("seed complete",
		"actions", len(defaultActions),
		"permissions", len(defaultPermissions),
		"roles", len(defaultRoles),
		"admin", adminName)
	return nil
}
