package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// LogoutCommand represents the logout command
type LogoutCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewLogoutCommand creates a new logout command
func NewLogoutCommand(root *RootCommand) *LogoutCommand {
	l := &LogoutCommand{
		root: root,
	}

	l.cmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the Bicol Travel Guide",
		Long: `Sign out and clear stored credentials.

Your tokens are removed from this device even if the server cannot be
reached.

Example:
  btg logout`,
		RunE: l.Run,
	}

	return l
}

// Command returns the underlying cobra command
func (l *LogoutCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the logout command
func (l *LogoutCommand) Run(cmd *cobra.Command, args []string) error {
	// Get auth service from DI container
	authService := l.root.Container().AuthService()

	// Perform logout
	authService.Logout(cmd.Context())

	fmt.Println("✓ Logged out.")
	return nil
}
