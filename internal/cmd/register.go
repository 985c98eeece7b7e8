package cmd

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
	"github.com/spf13/cobra"
)

// RegisterCommand represents the register command
type RegisterCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewRegisterCommand creates a new register command
func NewRegisterCommand(root *RootCommand) *RegisterCommand {
	r := &RegisterCommand{
		root: root,
	}

	r.cmd = &cobra.Command{
		Use:   "register",
		Short: "Create a Bicol Travel Guide account",
		Long: `Create a new account with an interactive wizard.

Anything not given as a flag is asked for, including the account role:
Tourist, Business Owner, Event Organizer, Tourism Officer or Admin.

Examples:
  btg register
  btg register -u maria --email maria@example.com --role "Business Owner"`,
		RunE: r.Run,
	}

	r.cmd.Flags().StringP("username", "u", "", "Account username")
	r.cmd.Flags().String("email", "", "Email address")
	r.cmd.Flags().String("role", "", "Account role")
	r.cmd.Flags().Bool("password-stdin", false, "Read the password from stdin")

	return r
}

// Command returns the underlying cobra command
func (r *RegisterCommand) Command() *cobra.Command {
	return r.cmd
}

// Run executes the register command
func (r *RegisterCommand) Run(cmd *cobra.Command, args []string) error {
	authService := r.root.Container().AuthService()

	input, err := r.collect(cmd)
	if err != nil {
		return err
	}

	if err := authService.Register(cmd.Context(), input); err != nil {
		return describe(err)
	}

	fmt.Printf("✓ Account %s created as %s.\n", input.Username, input.Role)
	fmt.Println("\nSign in with: btg login -u " + input.Username)
	return nil
}

// collect gathers the registration fields from flags, prompting for the rest
func (r *RegisterCommand) collect(cmd *cobra.Command) (*iface.RegisterInput, error) {
	input := &iface.RegisterInput{}
	input.Username, _ = cmd.Flags().GetString("username")
	input.Email, _ = cmd.Flags().GetString("email")

	// Step 1: Username
	if input.Username == "" {
		if err := survey.AskOne(&survey.Input{
			Message: "Username:",
		}, &input.Username, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
	}

	// Step 2: Email
	if input.Email == "" {
		if err := survey.AskOne(&survey.Input{
			Message: "Email:",
		}, &input.Email, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
	}

	// Step 3: Role
	if roleFlag, _ := cmd.Flags().GetString("role"); roleFlag != "" {
		role, err := iface.ParseRole(roleFlag)
		if err != nil {
			return nil, err
		}
		input.Role = role
	} else {
		options := make([]string, len(iface.Roles))
		for i, role := range iface.Roles {
			options[i] = string(role)
		}

		var selected string
		if err := survey.AskOne(&survey.Select{
			Message: "Account type:",
			Options: options,
			Default: string(iface.RoleTourist),
		}, &selected); err != nil {
			return nil, err
		}
		input.Role = iface.Role(selected)
	}

	// Step 4: Password
	if fromStdin, _ := cmd.Flags().GetBool("password-stdin"); fromStdin {
		password, err := readLine(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		input.Password = password
		return input, nil
	}

	var confirm string
	if err := survey.AskOne(&survey.Password{
		Message: "Password:",
	}, &input.Password, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}
	if err := survey.AskOne(&survey.Password{
		Message: "Confirm password:",
	}, &confirm); err != nil {
		return nil, err
	}
	if confirm != input.Password {
		return nil, errors.New("passwords do not match")
	}

	return input, nil
}
