package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/bicoltravel/btg-cli/internal/service"
	"github.com/spf13/cobra"
)

// LoginCommand represents the login command
type LoginCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewLoginCommand creates a new login command
func NewLoginCommand(root *RootCommand) *LoginCommand {
	l := &LoginCommand{
		root: root,
	}

	l.cmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Bicol Travel Guide",
		Long: `Sign in with your travel guide username and password.

You will be prompted for anything not given as a flag. After a successful
login your tokens are stored locally and renewed automatically.

Examples:
  btg login
  btg login -u juan
  echo "$PASSWORD" | btg login -u juan --password-stdin`,
		RunE: l.Run,
	}

	l.cmd.Flags().StringP("username", "u", "", "Account username")
	l.cmd.Flags().Bool("password-stdin", false, "Read the password from stdin")

	return l
}

// Command returns the underlying cobra command
func (l *LoginCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the login command
func (l *LoginCommand) Run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Get auth service from DI container
	authService := l.root.Container().AuthService()

	// A stored session that still works makes the prompt pointless
	if session, _ := authService.Bootstrap(ctx); session.IsAuthenticated() {
		return service.ErrAlreadyLoggedIn
	}

	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		if err := survey.AskOne(&survey.Input{
			Message: "Username:",
		}, &username, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	var password string
	if fromStdin, _ := cmd.Flags().GetBool("password-stdin"); fromStdin {
		var err error
		if password, err = readLine(cmd.InOrStdin()); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	} else if err := survey.AskOne(&survey.Password{
		Message: "Password:",
	}, &password, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	// Perform login
	session, err := authService.Login(ctx, username, password)
	if err != nil {
		return describe(err)
	}

	fmt.Printf("✓ Logged in as %s (%s)\n", session.Identity.Username, session.Identity.Role)
	return nil
}

// readLine reads a single line, without its terminator, from r
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
