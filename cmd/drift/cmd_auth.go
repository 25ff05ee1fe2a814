package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/drift/internal/app"
	"github.com/five82/drift/internal/backend"
)

var (
	authUser    string
	authEmail   string
	syncMetrics bool
)

var stdinReader = bufio.NewReader(os.Stdin)

// loginCmd signs in and runs the login exchange
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and merge your shelves with the library service",
	Long: `Sign in to the library service.

After signing in, drift pulls your remote library, merges it into the local
shelves and uploads any books that only exist on this machine.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := prompt("Username or email: ", authUser)
		if err != nil {
			return err
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		res, err := current.Login(cmd.Context(), backend.Credentials{Username: user, Password: password})
		if err != nil {
			return err
		}
		reportLogin(res)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the library service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := prompt("Username: ", authUser)
		if err != nil {
			return err
		}
		email, err := prompt("Email: ", authEmail)
		if err != nil {
			return err
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		res, err := current.Register(cmd.Context(), backend.Registration{Username: user, Email: email, Password: password})
		if err != nil {
			return err
		}
		reportLogin(res)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session; local shelves are kept",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.Logout(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

// syncCmd reruns the pull-merge and push
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge the remote library and upload local-only books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := current.Sync(cmd.Context())
		if syncMetrics {
			defer func() { _ = current.Metrics.WriteText(os.Stderr) }()
		}
		if err != nil {
			return err
		}
		fmt.Printf("Synced: %d merged, %d uploaded, %d pending.\n", res.Merged, res.Uploaded, res.Pending)
		return nil
	},
}

// statusCmd reports the session and backend health
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the account, library counts and backend health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib := current.Library()
		fmt.Printf("Library:  %s\n", current.Shelves.Path())
		fmt.Printf("Books:    %d (%d not yet uploaded)\n", lib.Len(), len(lib.Pending()))

		if sess, ok := current.Session(); ok {
			line := fmt.Sprintf("Account:  %s <%s>", sess.User.Username, sess.User.Email)
			if exp := sess.ExpiresAt(); !exp.IsZero() {
				if time.Now().After(exp) {
					line += " (token expired, sign in again)"
				} else {
					line += fmt.Sprintf(" (token valid until %s)", exp.Local().Format("2006-01-02 15:04"))
				}
			}
			fmt.Println(line)
		} else {
			fmt.Println("Account:  signed out")
		}

		health, err := current.Backend.Health(cmd.Context())
		if err != nil {
			fmt.Printf("Backend:  %s unreachable (%s)\n", current.Backend.BaseURL(), backend.ErrorLabel(err))
			return nil
		}
		fmt.Printf("Backend:  %s %s %s\n", current.Backend.BaseURL(), health.Status, health.Version)
		return nil
	},
}

func reportLogin(res app.LoginResult) {
	fmt.Printf("Signed in as %s.\n", res.Session.User.Username)
	if res.SyncErr != nil {
		fmt.Fprintf(os.Stderr, "warning: sync after login failed: %v\n", res.SyncErr)
		return
	}
	fmt.Printf("Synced: %d merged, %d uploaded, %d pending.\n", res.Sync.Merged, res.Sync.Uploaded, res.Sync.Pending)
}

func prompt(label, preset string) (string, error) {
	if preset != "" {
		return preset, nil
	}
	fmt.Fprint(os.Stderr, label)
	line, err := stdinReader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo on a terminal and falls back to a plain
// line so passwords can be piped in.
func readPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdinReader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(os.Stderr, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func init() {
	loginCmd.Flags().StringVarP(&authUser, "user", "u", "", "username or email")
	registerCmd.Flags().StringVarP(&authUser, "user", "u", "", "username")
	registerCmd.Flags().StringVar(&authEmail, "email", "", "email address")
	syncCmd.Flags().BoolVar(&syncMetrics, "metrics", false, "print sync metrics to stderr afterwards")
}
