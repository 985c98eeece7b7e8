package cmd

import (
	"errors"
	"fmt"

	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
	"github.com/spf13/cobra"
)

// errNotLoggedIn is returned by commands that need a session when none is stored
var errNotLoggedIn = errors.New("not logged in. Please run 'btg login' first")

// WhoamiCommand represents the whoami command
type WhoamiCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewWhoamiCommand creates a new whoami command
func NewWhoamiCommand(root *RootCommand) *WhoamiCommand {
	w := &WhoamiCommand{
		root: root,
	}

	w.cmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Long: `Show the username, email and role of the signed in user.

The stored session is verified with the server, renewing the access token
if it has expired.

Examples:
  btg whoami
  btg whoami -o json`,
		RunE: w.Run,
	}

	return w
}

// Command returns the underlying cobra command
func (w *WhoamiCommand) Command() *cobra.Command {
	return w.cmd
}

// Run executes the whoami command
func (w *WhoamiCommand) Run(cmd *cobra.Command, args []string) error {
	identity, err := currentIdentity(cmd, w.root)
	if err != nil {
		return err
	}

	switch outputFormat(cmd) {
	case "json":
		return writeJSON(identity)
	default:
		fmt.Printf("Username: %s\n", identity.Username)
		fmt.Printf("Email:    %s\n", identity.Email)
		fmt.Printf("Role:     %s\n", identity.Role)
		return nil
	}
}

// currentIdentity restores the stored session and returns its user
func currentIdentity(cmd *cobra.Command, root *RootCommand) (*iface.Identity, error) {
	session, err := root.Container().AuthService().Bootstrap(cmd.Context())
	if err != nil {
		return nil, describe(err)
	}
	if !session.IsAuthenticated() {
		return nil, errNotLoggedIn
	}
	return session.Identity, nil
}
