package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-while/go-pugwiki/internal/linker"
	"github.com/go-while/go-pugwiki/internal/models"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Register pages and activity",
}

var (
	pageUser     string
	pageRedirect bool
)

var pageAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Register an existing page so links to it are not shown as missing",
	Long: `Register a page. With --user the creation is also recorded in the
recent changes feed and counts towards that user's activity.

Examples:
  statsmgr page add "Project:Administrators" --user alice`,
	Args: cobra.ExactArgs(1),
	RunE: runPageAdd,
}

func init() {
	pageAddCmd.Flags().StringVar(&pageUser, "user", "", "Record the creation for this user")
	pageAddCmd.Flags().BoolVar(&pageRedirect, "redirect", false, "The page is a redirect")
	pageCmd.AddCommand(pageAddCmd)
}

func runPageAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	lk := linker.New(db)
	lk.ProjectNamespace = cfg.Wiki.ProjectNamespace
	title, err := lk.ParseTitle(args[0])
	if err != nil {
		return fmt.Errorf("invalid title '%s': %w", args[0], err)
	}
	if title.IsSpecial() {
		return fmt.Errorf("special pages cannot be registered")
	}

	var userID int64
	if pageUser != "" {
		user, err := db.GetUserByUsername(ctx, pageUser)
		if err != nil {
			return err
		}
		userID = user.ID
	}

	page := &models.WikiPage{Namespace: title.Namespace, Title: title.DBKey, IsRedirect: pageRedirect}
	if err := db.AddPage(ctx, page); err != nil {
		return err
	}
	if userID != 0 {
		rc := &models.RecentChange{UserID: userID, Type: models.RCNew, Namespace: title.Namespace, Title: title.DBKey}
		if err := db.AddRecentChange(ctx, rc); err != nil {
			return err
		}
	}
	fmt.Printf("✅ Page '%s' registered\n", lk.PrefixedText(title))
	return nil
}
