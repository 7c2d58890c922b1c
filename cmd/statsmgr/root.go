package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-while/go-pugwiki/internal/config"
	"github.com/go-while/go-pugwiki/internal/database"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "statsmgr",
	Short: "statsmgr manages a go-pugwiki site database",
	Long: `statsmgr manages the users, groups, site counters, API tokens and
message overrides that the Special:Statistics page is rendered from.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (default: built-in defaults and PUGWIKI_* env)")
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(messageCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("statsmgr", config.AppVersion)
	},
}

// openDatabase loads the configuration and opens the main database.
// The caller must Shutdown the returned database.
func openDatabase(ctx context.Context) (*config.MainConfig, *database.Database, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	dbConfig := database.DefaultDBConfig()
	dbConfig.MainDB = cfg.Database.MainDB
	dbConfig.AppVersion = config.AppVersion

	db, err := database.OpenDatabase(ctx, dbConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, db, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
