package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xaviergregor/gestion-clients/authsvc"
	"github.com/xaviergregor/gestion-clients/store"
	"github.com/xaviergregor/gestion-clients/store/jsonfile"
)

// minPasswordLength is enforced by the CLI only; the HTTP API accepts
// any non-empty password.
const minPasswordLength = 6

var usersFile string

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user records in the credential file",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create a user, prompting for the password without echo",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := ""
		if len(args) == 1 {
			username = args[0]
		} else {
			fmt.Print("Username: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil {
				return err
			}
			username = strings.TrimSpace(line)
		}
		if username == "" {
			return errors.New("username cannot be empty")
		}

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		if len(password) < minPasswordLength {
			return fmt.Errorf("password must be at least %d characters", minPasswordLength)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}

		svc := userService()
		if err := svc.AddUser(username, password); err != nil {
			if errors.Is(err, store.ErrUserExists) {
				return fmt.Errorf("user %q already exists", username)
			}
			return err
		}

		fmt.Printf("User %q created in %s\n", username, usersFile)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users without password hashes",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := userService().ListUsers()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users.")
			return nil
		}
		for i, u := range users {
			fmt.Printf("%d. %s (created %s)\n", i+1, u.Username,
				u.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("\nTotal: %d user(s)\n", len(users))
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		users := jsonfile.NewCredentialStore(usersFile)

		exists, err := users.Exists(username)
		if err != nil {
			return err
		}
		if !exists {
			fmt.Printf("User %q not found.\n", username)
			return nil
		}
		if err := users.Remove(username); err != nil {
			return err
		}
		fmt.Printf("User %q deleted.\n", username)
		return nil
	},
}

var usersInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Seed the credential file with a default admin account",
	Long: `Creates an "admin" user with a generated password so a fresh
installation has a way to log in. Prints the password once; it is not
recoverable afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := userService()

		users, err := svc.ListUsers()
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return fmt.Errorf("%s already has %d user(s); refusing to seed", usersFile, len(users))
		}

		password, err := promptPassword("Admin password: ")
		if err != nil {
			return err
		}
		if len(password) < minPasswordLength {
			return fmt.Errorf("password must be at least %d characters", minPasswordLength)
		}

		if err := svc.AddUser("admin", password); err != nil {
			return err
		}
		fmt.Printf("Admin user created in %s\n", usersFile)
		return nil
	},
}

// userService builds a Service over the credential file alone. The
// session store path is never touched by these commands.
func userService() *authsvc.Service {
	users := jsonfile.NewCredentialStore(usersFile)
	sessions := jsonfile.NewSessionStore(filepath.Join(filepath.Dir(usersFile), "sessions.json"))
	return authsvc.New(users, sessions)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.PersistentFlags().StringVar(&usersFile, "users-file", "./data/users.json", "Path to the credential file")
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersInitCmd)
}
