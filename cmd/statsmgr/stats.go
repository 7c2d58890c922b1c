package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-while/go-pugwiki/internal/cache"
	"github.com/go-while/go-pugwiki/internal/messages"
	"github.com/go-while/go-pugwiki/internal/sitestats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show and maintain the site counters",
}

var statsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored counters and group member counts",
	RunE:  runStatsShow,
}

var statsRefreshCmd = &cobra.Command{
	Use:   "refresh-active",
	Short: "Recount active users now",
	RunE:  runStatsRefresh,
}

var statsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Overwrite stored counters",
	Long: `Overwrite counters in the site_stats row, for example after an import.
Counters not given on the command line keep their value.

Examples:
  statsmgr stats set --pages 2000 --articles 1234 --edits 5000`,
	RunE: runStatsSet,
}

var setCounters = map[string]*int64{}

func init() {
	for _, name := range []string{"edits", "articles", "pages", "users", "images"} {
		v := new(int64)
		setCounters[name] = v
		statsSetCmd.Flags().Int64Var(v, name, -1, "New value for the "+name+" counter")
	}

	statsCmd.AddCommand(statsShowCmd)
	statsCmd.AddCommand(statsRefreshCmd)
	statsCmd.AddCommand(statsSetCmd)
}

func runStatsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	s, err := db.LoadSiteStats(ctx)
	if err != nil {
		return err
	}
	lang := messages.NewLanguage(cfg.Wiki.Language)

	fmt.Printf("%-22s %s\n", "Content pages:", lang.FormatNum(s.Articles))
	fmt.Printf("%-22s %s\n", "Pages:", lang.FormatNum(s.Pages))
	fmt.Printf("%-22s %s\n", "Uploaded files:", lang.FormatNum(s.Images))
	fmt.Printf("%-22s %s\n", "Edits:", lang.FormatNum(s.Edits))
	fmt.Printf("%-22s %s\n", "Edits per page:", lang.FormatNum(fmt.Sprintf("%.2f", s.EditsPerPage())))
	fmt.Printf("%-22s %s\n", "Registered users:", lang.FormatNum(s.Users))
	fmt.Printf("%-22s %s (last %d days)\n", "Active users:", lang.FormatNum(s.ActiveUsers), cfg.Wiki.ActiveUserDays)

	refreshed, err := db.GetConfigTime(ctx, sitestats.ActiveUsersRefreshedKey)
	if err != nil {
		return err
	}
	if refreshed.IsZero() {
		fmt.Printf("%-22s never\n", "Active users counted:")
	} else {
		fmt.Printf("%-22s %s\n", "Active users counted:", refreshed.Local().Format(time.RFC3339))
	}

	fmt.Println()
	for _, group := range cfg.Wiki.Groups() {
		if group == "*" || cfg.Wiki.IsImplicitGroup(group) {
			continue
		}
		n, err := db.NumberInGroup(ctx, group)
		if err != nil {
			return err
		}
		fmt.Printf("%-22s %s\n", group+":", lang.FormatNum(n))
	}
	return nil
}

func runStatsRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	oc := cache.NewObjectCache(16, time.Minute)
	defer oc.Stop()

	svc := sitestats.NewService(db, oc, &cfg.Wiki)
	count, err := svc.RefreshActiveUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✅ %d active users in the last %d days\n", count, svc.ActiveUserDays())
	return nil
}

func runStatsSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	s, err := db.LoadSiteStats(ctx)
	if err != nil {
		return err
	}
	targets := map[string]*int64{
		"edits":    &s.Edits,
		"articles": &s.Articles,
		"pages":    &s.Pages,
		"users":    &s.Users,
		"images":   &s.Images,
	}
	changed := 0
	for name, v := range setCounters {
		if *v < 0 {
			continue
		}
		*targets[name] = *v
		changed++
	}
	if changed == 0 {
		return fmt.Errorf("no counter given")
	}
	if err := db.SaveSiteStats(ctx, s); err != nil {
		return err
	}
	fmt.Printf("✅ Updated %d counters\n", changed)
	return nil
}
