package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bskyscraper/pkg/auth"
	"bskyscraper/pkg/bluesky"
	"bskyscraper/pkg/logger"
	"bskyscraper/pkg/ratelimit"
	"bskyscraper/pkg/ui"
)

var (
	loginHost  string
	skipVerify bool
	logoutAll  bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Bluesky credentials",
	Long: `Manage stored Bluesky app passwords.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Use an app password, never your main account password.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [identifier]",
	Short: "Store an app password securely",
	Long: `Store a Bluesky identifier and app password in the system keychain or
an encrypted file. The credentials are checked against the server before
they are saved unless --skip-verify is given.`,
	Example: `  # Interactive login
  bskyscraper auth login

  # Login for a handle on a self-hosted PDS
  bskyscraper auth login alice.example.com --host https://pds.example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [identifier]",
	Short: "Remove stored credentials",
	Example: `  # Remove one account
  bskyscraper auth logout alice.bsky.social

  # Remove every stored account
  bskyscraper auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List stored accounts with their app passwords masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)

	loginCmd.Flags().StringVar(&loginHost, "host", "", "PDS or entryway URL (default https://bsky.social)")
	loginCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store without signing in first")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove all stored accounts")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	var identifier string
	if len(args) > 0 {
		identifier = args[0]
	}

	auth.ShowQuickGuide(out)
	fmt.Fprintln(out)

	for identifier == "" {
		fmt.Fprint(out, "Bluesky handle, DID or email: ")
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			return fmt.Errorf("failed to read identifier: %w", err)
		}
		input = strings.TrimSpace(input)
		if strings.EqualFold(input, "help") {
			auth.ShowAppPasswordGuide(out)
			continue
		}
		if input == "" {
			return fmt.Errorf("identifier is required")
		}
		identifier = input
	}
	identifier = auth.NormalizeIdentifier(identifier)

	if existing, _ := manager.Retrieve(identifier); existing != nil {
		fmt.Fprintf(out, "Account '%s' already exists. Update credentials? (y/N): ", identifier)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Fprint(out, "App password (hidden): ")
	password, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read app password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("app password is required")
	}
	if !auth.LooksLikeAppPassword(password) {
		ui.PrintWarning("That does not look like an app password (xxxx-xxxx-xxxx-xxxx)")
		ui.PrintWarning("Using your main password works but cannot be revoked separately")
	}

	account := &auth.Account{
		Identifier: identifier,
		Password:   password,
		Host:       loginHost,
	}

	if !skipVerify {
		if err := verifyAccount(cmd.Context(), account); err != nil {
			return fmt.Errorf("sign-in failed, credentials not stored: %w", err)
		}
		ui.PrintSuccess("Signed in as " + account.Identifier)
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Account saved: " + account.Identifier)
	fmt.Fprintln(out, "\nCollect your timeline with:")
	fmt.Fprintln(out, "  $ bskyscraper collect")
	fmt.Fprintf(out, "  $ bskyscraper collect --account %s\n", account.Identifier)
	return nil
}

// verifyAccount signs in once with the account. The handle the server
// returns replaces the typed identifier so emails and DIDs resolve.
func verifyAccount(ctx context.Context, account *auth.Account) error {
	if ctx == nil {
		ctx = context.Background()
	}
	host := account.Host
	if host == "" {
		host = bluesky.DefaultHost
	}

	client := bluesky.NewClient(host, 30*time.Second, ratelimit.Unlimited(), logger.GetLogger())
	session, err := client.Login(ctx, account.Identifier, account.Password)
	if err != nil {
		return err
	}
	if session.Handle != "" {
		account.Identifier = auth.NormalizeIdentifier(session.Handle)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove accounts: %w", err)
		}
		ui.PrintSuccess("All accounts removed")
		return nil
	}

	var identifier string
	if len(args) > 0 {
		identifier = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil {
			return err
		}
		switch len(accounts) {
		case 0:
			ui.PrintInfo("No stored accounts", "nothing to remove")
			return nil
		case 1:
			identifier = accounts[0].Identifier
		default:
			return fmt.Errorf("%d accounts stored, name one or use --all", len(accounts))
		}
	}

	if err := manager.Delete(identifier); err != nil {
		return err
	}
	ui.PrintSuccess("Account removed: " + auth.NormalizeIdentifier(identifier))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := newCredentialManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	printAccounts(cmd.OutOrStdout(), accounts)
	return nil
}

func printAccounts(out io.Writer, accounts []*auth.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No stored accounts. Use 'bskyscraper auth login' to add one.")
		return
	}

	fmt.Fprintln(out, ui.Magenta("Stored Accounts"))
	fmt.Fprintln(out)
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(out, "%d. Identifier: %s\n", i+1, sanitized.Identifier)
		fmt.Fprintf(out, "   App password: %s\n", sanitized.Password)
		if sanitized.Host != "" {
			fmt.Fprintf(out, "   Host: %s\n", sanitized.Host)
		}
		fmt.Fprintf(out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(out)
	}
}

// readPassword reads without echo from a terminal, falling back to a plain
// line read for pipes
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
