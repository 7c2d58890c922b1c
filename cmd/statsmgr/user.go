package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/go-while/go-pugwiki/internal/models"
)

const minPasswordLength = 6

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage registered users",
}

var (
	userName  string
	userEmail string
	userGroup string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user, prompting for the password",
	Long: `Create a registered user. The password is read from the terminal
and stored as a bcrypt hash. Creating a user bumps the registered user counter.

Examples:
  statsmgr user create --username alice --email alice@example.com`,
	RunE: runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users, optionally only members of one group",
	RunE:  runUserList,
}

func init() {
	userCreateCmd.Flags().StringVar(&userName, "username", "", "Username")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	userCreateCmd.MarkFlagRequired("username")
	userListCmd.Flags().StringVar(&userGroup, "group", "", "Only list members of this group")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	username := strings.TrimSpace(userName)
	if username == "" {
		return fmt.Errorf("--username is required")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}
	hashedPassword, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	_, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	user := &models.User{
		Username:     username,
		Email:        userEmail,
		PasswordHash: string(hashedPassword),
	}
	if err := db.CreateUser(ctx, user); err != nil {
		return err
	}
	fmt.Printf("✅ User '%s' created (ID: %d)\n", user.Username, user.ID)
	return nil
}

func readPassword() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Enter password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %v", err)
	}
	fmt.Fprintln(os.Stderr)

	fmt.Fprint(os.Stderr, "Confirm password: ")
	confirmPassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return nil, fmt.Errorf("failed to read password confirmation: %v", err)
	}
	fmt.Fprintln(os.Stderr)

	if string(password) != string(confirmPassword) {
		return nil, fmt.Errorf("passwords do not match")
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	return password, nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	users, err := db.ListUsers(ctx, userGroup)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	fmt.Printf("Found %d users:\n\n", len(users))
	fmt.Printf("%-6s %-20s %-30s %-8s %-30s %s\n", "ID", "Username", "Email", "Edits", "Groups", "Created")
	fmt.Printf("%-6s %-20s %-30s %-8s %-30s %s\n", "----", "--------", "-----", "-----", "------", "-------")
	for _, user := range users {
		groups, err := db.GetUserGroups(ctx, user.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%-6d %-20s %-30s %-8d %-30s %s\n",
			user.ID,
			truncate(user.Username, 20),
			truncate(user.Email, 30),
			user.EditCount,
			truncate(strings.Join(groups, ","), 30),
			user.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return nil
}
