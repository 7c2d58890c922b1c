package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Override interface messages for this site",
	Long: `Override interface messages such as statistics-footer or grouppage-sysop.
Set a message to "-" to disable optional texts like row descriptions.
A running web server loads changes on POST /api/v1/admin/cache/clear.`,
}

var messageLang string

var messageSetCmd = &cobra.Command{
	Use:   "set <key> <text>",
	Short: "Set a message override",
	Args:  cobra.ExactArgs(2),
	RunE:  runMessageSet,
}

var messageUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a message override",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessageUnset,
}

func init() {
	messageCmd.PersistentFlags().StringVar(&messageLang, "lang", "", "Language code (default: the content language)")
	messageCmd.AddCommand(messageSetCmd)
	messageCmd.AddCommand(messageUnsetCmd)
}

func runMessageSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	lang := messageLang
	if lang == "" {
		lang = cfg.Wiki.Language
	}
	if err := db.SetMessageOverride(ctx, args[0], lang, args[1]); err != nil {
		return err
	}
	fmt.Printf("✅ Message '%s' (%s) set\n", args[0], lang)
	return nil
}

func runMessageUnset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	lang := messageLang
	if lang == "" {
		lang = cfg.Wiki.Language
	}
	removed, err := db.DeleteMessageOverride(ctx, args[0], lang)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("No override for '%s' (%s)\n", args[0], lang)
		return nil
	}
	fmt.Printf("✅ Message '%s' (%s) removed\n", args[0], lang)
	return nil
}
