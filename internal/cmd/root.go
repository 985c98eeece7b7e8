// Package cmd provides the command-line interface for the btg CLI.
// It contains all cobra commands and their implementations.
package cmd

import (
	"fmt"
	"os"

	"github.com/bicoltravel/btg-cli/internal/auth"
	"github.com/bicoltravel/btg-cli/internal/config"
	"github.com/bicoltravel/btg-cli/internal/di"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"
)

// RootCommand represents the root CLI command
type RootCommand struct {
	container *di.Container
	cmd       *cobra.Command

	// Subcommands
	loginCmd     *LoginCommand
	logoutCmd    *LogoutCommand
	registerCmd  *RegisterCommand
	whoamiCmd    *WhoamiCommand
	dashboardCmd *DashboardCommand
	spotsCmd     *SpotsCommand
}

// NewRootCommand creates a new root command
func NewRootCommand() *RootCommand {
	r := &RootCommand{}

	r.cmd = &cobra.Command{
		Use:   "btg",
		Short: "btg - Command line interface for the Bicol Travel Guide",
		Long: `btg is a command-line tool for the Bicol Travel Guide.

Sign in with your travel guide account to browse tourist spots and open
the dashboard for your role.

To get started, run:
  btg register   - Create an account
  btg login      - Sign in with your username and password
  btg spots list - Browse tourist spots`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.initialize(cmd)
		},
		RunE: r.Run,
	}

	// Global flags
	r.cmd.PersistentFlags().StringP("output", "o", "text", "Output format (text, json)")
	r.cmd.PersistentFlags().String("api-url", "", "API base URL (overrides api_url in config)")
	r.cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	// Initialize subcommands (will be wired after container init)
	r.loginCmd = NewLoginCommand(r)
	r.logoutCmd = NewLogoutCommand(r)
	r.registerCmd = NewRegisterCommand(r)
	r.whoamiCmd = NewWhoamiCommand(r)
	r.dashboardCmd = NewDashboardCommand(r)
	r.spotsCmd = NewSpotsCommand(r)

	// Add subcommands
	r.cmd.AddCommand(r.loginCmd.Command())
	r.cmd.AddCommand(r.logoutCmd.Command())
	r.cmd.AddCommand(r.registerCmd.Command())
	r.cmd.AddCommand(r.whoamiCmd.Command())
	r.cmd.AddCommand(r.dashboardCmd.Command())
	r.cmd.AddCommand(r.spotsCmd.Command())

	return r
}

// initialize loads the configuration and sets up the DI container
func (r *RootCommand) initialize(cmd *cobra.Command) error {
	// Skip if container is already set (e.g., for testing)
	if r.container != nil {
		return nil
	}

	manager, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	cfg, err := manager.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	r.container, err = di.NewContainer(cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

// Run prints the welcome banner and usage
func (r *RootCommand) Run(cmd *cobra.Command, args []string) error {
	figure.NewFigure("Bicol Travel", "", true).Print()
	fmt.Println()
	fmt.Println("Discover the beauty of the Bicol region.")
	fmt.Println()
	return cmd.Help()
}

// Execute runs the root command
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

// Command returns the underlying cobra command
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Container returns the DI container
func (r *RootCommand) Container() *di.Container {
	return r.container
}

// SetContainer sets a custom container (for testing)
func (r *RootCommand) SetContainer(c *di.Container) {
	r.container = c
}

// Execute is the main entry point for the CLI
func Execute() error {
	root := NewRootCommand()
	err := root.Execute()
	if err != nil {
		if c := root.Container(); c != nil {
			logger := c.Logger()
			logger.Debug().Err(err).Msg("command failed")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", describe(err))
	}
	return err
}

// displayError carries the user-facing text of a classified auth error
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }

func (e *displayError) Unwrap() error { return e.err }

// describe replaces a classified auth error's text with its user message
func describe(err error) error {
	if err == nil || auth.KindOf(err) == nil {
		return err
	}
	return &displayError{msg: auth.UserMessage(err), err: err}
}

// outputFormat returns the value of the global --output flag
func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return format
}
