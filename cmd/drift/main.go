package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/drift/internal/app"
)

var (
	configPath string
	prefsPath  string
	envPath    string
	verbose    bool

	// current is opened by PersistentPreRunE for every subcommand except the
	// interactive root, which opens its own. run closes it; cobra skips post-run
	// hooks when RunE fails.
	current *app.App
)

var rootCmd = &cobra.Command{
	Use:   "drift",
	Short: "Keep track of what you want to read, are reading and have read",
	Long: `drift keeps three reading shelves on this machine and mirrors them to
your account on the library service when you are signed in.

Run without arguments to open the interactive shelf browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == cmd.Root() {
			return nil
		}
		a, err := app.Open(openOptions())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), openOptions())
	},
}

func openOptions() app.Options {
	return app.Options{
		ConfigPath: configPath,
		PrefsPath:  prefsPath,
		DotEnvPath: envPath,
		Verbose:    verbose,
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/drift/config.toml)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "UI preferences file (default ~/.config/drift/prefs.toml)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "load environment overrides from this .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write debug entries to the log")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	closeCurrent()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "drift: %v\n", err)
		}
		return 1
	}
	return 0
}

func closeCurrent() {
	if current != nil {
		current.Close()
		current = nil
	}
}
