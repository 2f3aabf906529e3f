package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newUsersCommand() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (administrators only)",
	}
	usersCmd.AddCommand(
		newUsersListCommand(),
		newUsersCreateCommand(),
		newUsersRenameCommand(),
		newUsersPasswordCommand(),
		newUsersLevelCommand(),
		newUsersDeleteCommand(),
	)
	return usersCmd
}

// withAdmin runs fn after signing in a user allowed to manage accounts.
func withAdmin(cmd *cobra.Command, fn func(*app) error) error {
	return withApp(cmd.Context(), true, func(a *app) error {
		if err := a.gate.RequireAdmin(); err != nil {
			return err
		}
		return fn(a)
	})
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

func parseLevel(raw string) (int, error) {
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid auth level %q", raw)
	}
	return level, nil
}

func newUsersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, func(a *app) error {
				listed, err := a.users.Users(cmd.Context())
				if err != nil {
					return err
				}
				writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(writer, "ID\tName\tLevel")
				for _, user := range listed {
					fmt.Fprintf(writer, "%d\t%s\t%d\n", user.ID, user.Name, user.AuthLevel)
				}
				return writer.Flush()
			})
		},
	}
}

// newUsersCreateCommand creates an account. While no accounts exist it runs
// without signing in so the first administrator can be bootstrapped.
func newUsersCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME PASSWORD LEVEL",
		Short: "Create an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[2])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), false, func(a *app) error {
				ctx := cmd.Context()
				existing, err := a.users.Users(ctx)
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					if err := a.signIn(ctx); err != nil {
						return err
					}
					defer a.gate.SignOut()
					if err := a.gate.RequireAdmin(); err != nil {
						return err
					}
				}
				user, err := a.users.CreateUser(ctx, args[0], args[1], level)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s) at level %d\n", user.ID, user.Name, user.AuthLevel)
				return nil
			})
		},
	}
}

func newUsersRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Change an account's name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return withAdmin(cmd, func(a *app) error {
				return a.users.ChangeUsername(cmd.Context(), id, args[1])
			})
		},
	}
}

func newUsersPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd ID PASSWORD",
		Short: "Set an account's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return withAdmin(cmd, func(a *app) error {
				return a.users.SetUserPassword(cmd.Context(), id, args[1])
			})
		},
	}
}

func newUsersLevelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "level ID LEVEL",
		Short: "Change an account's auth level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			level, err := parseLevel(args[1])
			if err != nil {
				return err
			}
			return withAdmin(cmd, func(a *app) error {
				return a.users.ChangeAuthLevel(cmd.Context(), id, level)
			})
		},
	}
}

func newUsersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return withAdmin(cmd, func(a *app) error {
				return a.users.DeleteUser(cmd.Context(), id)
			})
		},
	}
}
