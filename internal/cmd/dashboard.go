package cmd

import (
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	defaultOpenURL = browser.OpenURL

	// openURL is replaced in tests
	openURL = defaultOpenURL
)

// DashboardCommand represents the dashboard command
type DashboardCommand struct {
	root *RootCommand
	cmd  *cobra.Command
}

// NewDashboardCommand creates a new dashboard command
func NewDashboardCommand(root *RootCommand) *DashboardCommand {
	d := &DashboardCommand{
		root: root,
	}

	d.cmd = &cobra.Command{
		Use:   "dashboard",
		Short: "Open the dashboard for your role",
		Long: `Open the web dashboard matching the role of the signed in user.

Admins, tourism officers, business owners, event organizers and tourists
each have their own dashboard.

Examples:
  btg dashboard
  btg dashboard --print`,
		RunE: d.Run,
	}

	d.cmd.Flags().Bool("print", false, "Print the dashboard URL instead of opening a browser")

	return d
}

// Command returns the underlying cobra command
func (d *DashboardCommand) Command() *cobra.Command {
	return d.cmd
}

// Run executes the dashboard command
func (d *DashboardCommand) Run(cmd *cobra.Command, args []string) error {
	identity, err := currentIdentity(cmd, d.root)
	if err != nil {
		return err
	}

	url := d.root.Container().Config().APIURL + identity.Role.DashboardPath()

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		fmt.Println(url)
		return nil
	}

	fmt.Printf("Opening %s dashboard: %s\n", identity.Role, url)
	if err := openURL(url); err != nil {
		logger := d.root.Container().Logger()
		logger.Debug().Err(err).Str("url", url).Msg("browser open failed")
		fmt.Println("Could not open a browser. Visit the URL above to continue.")
	}
	return nil
}
