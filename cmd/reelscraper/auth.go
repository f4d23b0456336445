package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"reelscraper/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage session credentials",
	Long: `Manage stored session credentials for the authenticated strategy.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

To obtain cookie values, log into the platform in a browser, open
Developer Tools, and copy the sessionid and csrftoken cookies.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store session credentials securely",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:     "logout <username>",
	Aliases: []string{"remove"},
	Short:   "Remove stored credentials",
	Args:    cobra.ExactArgs(1),
	RunE:    runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored accounts with credentials masked",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	fmt.Print("sessionid cookie value: ")
	sessionID, err := readSecret(reader)
	if err != nil {
		return err
	}
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	fmt.Print("csrftoken cookie value: ")
	csrf, err := readSecret(reader)
	if err != nil {
		return err
	}
	if csrf == "" {
		return fmt.Errorf("CSRF token is required")
	}

	fmt.Print("User agent (Enter for default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &auth.Account{
		Username:     username,
		SessionID:    sessionID,
		CSRFToken:    csrf,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Credentials stored for %s\n", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Credentials removed for %s\n", args[0])
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Use 'reelscraper auth login' to add one.")
		return nil
	}

	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		valid := "expired"
		if time.Since(account.LastModified) < 90*24*time.Hour || account.LastModified.IsZero() {
			valid = "usable"
		}
		fmt.Printf("%s (%s)\n", sanitized.Username, valid)
		fmt.Printf("  session id: %s\n", sanitized.SessionID)
		fmt.Printf("  csrf token: %s\n", sanitized.CSRFToken)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("  stored:     %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// readSecret reads a line without echoing when stdin is a terminal.
func readSecret(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
