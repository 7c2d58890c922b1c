package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage explicit group memberships",
	Long: `Add users to or remove them from explicit groups such as sysop or bot.
A running web server picks up changed member counts once its cached count expires.`,
}

var groupAddCmd = &cobra.Command{
	Use:   "add <username> <group>",
	Short: "Add a user to a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupAdd,
}

var groupRemoveCmd = &cobra.Command{
	Use:   "remove <username> <group>",
	Short: "Remove a user from a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupRemove,
}

func init() {
	groupCmd.AddCommand(groupAddCmd)
	groupCmd.AddCommand(groupRemoveCmd)
}

func runGroupAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	group := args[1]
	if group == "*" || cfg.Wiki.IsImplicitGroup(group) {
		return fmt.Errorf("membership in '%s' is implicit", group)
	}
	user, err := db.GetUserByUsername(ctx, args[0])
	if err != nil {
		return err
	}
	if err := db.AddUserToGroup(ctx, user.ID, group); err != nil {
		return err
	}
	fmt.Printf("✅ Added '%s' to '%s'\n", user.Username, group)
	return nil
}

func runGroupRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	user, err := db.GetUserByUsername(ctx, args[0])
	if err != nil {
		return err
	}
	removed, err := db.RemoveUserFromGroup(ctx, user.ID, args[1])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("'%s' is not a member of '%s'\n", user.Username, args[1])
		return nil
	}
	fmt.Printf("✅ Removed '%s' from '%s'\n", user.Username, args[1])
	return nil
}
