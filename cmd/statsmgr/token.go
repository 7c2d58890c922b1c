package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens for the admin endpoints",
}

var (
	tokenOwner   string
	tokenOwnerID int
	tokenTTL     time.Duration
)

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new API token",
	Long: `Create a new API token. The token is displayed once and only its
SHA-256 hash is stored.

Examples:
  statsmgr token create --owner deploy
  statsmgr token create --owner monitoring --ttl 720h`,
	RunE: runTokenCreate,
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API tokens",
	RunE:  runTokenList,
}

var tokenDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable an API token",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenDisable,
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenOwner, "owner", "", "Name of the token owner")
	tokenCreateCmd.Flags().IntVar(&tokenOwnerID, "owner-id", 0, "User ID of the token owner")
	tokenCreateCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime, 0 for no expiry (e.g. 24h, 720h)")
	tokenCreateCmd.MarkFlagRequired("owner")

	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenDisableCmd)
}

func runTokenCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if tokenTTL < 0 {
		return fmt.Errorf("--ttl cannot be negative")
	}
	_, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	var expiresAt *time.Time
	if tokenTTL > 0 {
		t := time.Now().Add(tokenTTL).UTC()
		expiresAt = &t
	}
	token, plain, err := db.CreateAPIToken(ctx, tokenOwner, tokenOwnerID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ API token created\n")
	fmt.Fprintf(os.Stderr, "  ID:      %d\n", token.ID)
	fmt.Fprintf(os.Stderr, "  Owner:   %s\n", token.OwnerName)
	if expiresAt != nil {
		fmt.Fprintf(os.Stderr, "  Expires: %s\n", expiresAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(os.Stderr, "Save this token securely - it will not be shown again!\n")
	fmt.Println(plain)
	return nil
}

func runTokenList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	tokens, err := db.ListAPITokens(ctx)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		fmt.Println("No API tokens found")
		return nil
	}

	fmt.Printf("%-5s %-20s %-8s %-7s %-20s %-20s %s\n", "ID", "Owner", "Enabled", "Uses", "Hash", "Last used", "Expires")
	for _, t := range tokens {
		lastUsed, expires := "never", "never"
		if t.LastUsedAt != nil {
			lastUsed = t.LastUsedAt.Local().Format("2006-01-02 15:04")
		}
		if t.ExpiresAt != nil {
			expires = t.ExpiresAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%-5d %-20s %-8t %-7d %-20s %-20s %s\n",
			t.ID, truncate(t.OwnerName, 20), t.IsEnabled, t.UsageCount,
			truncate(t.APIToken, 16)+"...", lastUsed, expires)
	}
	return nil
}

func runTokenDisable(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid token ID '%s'", args[0])
	}

	ctx := context.Background()
	_, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	if err := db.DisableAPIToken(ctx, id); err != nil {
		return fmt.Errorf("failed to disable token %d: %w", id, err)
	}
	fmt.Printf("✅ Token %d disabled\n", id)
	return nil
}
