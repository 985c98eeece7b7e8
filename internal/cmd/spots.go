package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	iface "github.com/bicoltravel/btg-cli/internal/service/interface"
	"github.com/spf13/cobra"
)

// SpotsCommand represents the spots command group
type SpotsCommand struct {
	root *RootCommand
	cmd  *cobra.Command

	// Subcommands
	listCmd *SpotsListCommand
	getCmd  *SpotsGetCommand
}

// NewSpotsCommand creates a new spots command
func NewSpotsCommand(root *RootCommand) *SpotsCommand {
	s := &SpotsCommand{
		root: root,
	}

	s.cmd = &cobra.Command{
		Use:   "spots",
		Short: "Browse tourist spots",
		Long: `Browse the tourist spots of the Bicol region.

You must be signed in. Expired access tokens are renewed automatically.`,
	}

	// Initialize subcommands
	s.listCmd = NewSpotsListCommand(s)
	s.getCmd = NewSpotsGetCommand(s)

	// Add subcommands
	s.cmd.AddCommand(s.listCmd.Command())
	s.cmd.AddCommand(s.getCmd.Command())

	return s
}

// Command returns the underlying cobra command
func (s *SpotsCommand) Command() *cobra.Command {
	return s.cmd
}

// Root returns the parent root command
func (s *SpotsCommand) Root() *RootCommand {
	return s.root
}

// SpotsListCommand represents the spots list command
type SpotsListCommand struct {
	parent *SpotsCommand
	cmd    *cobra.Command
}

// NewSpotsListCommand creates a new spots list command
func NewSpotsListCommand(parent *SpotsCommand) *SpotsListCommand {
	l := &SpotsListCommand{
		parent: parent,
	}

	l.cmd = &cobra.Command{
		Use:   "list",
		Short: "List all tourist spots",
		Long: `List all tourist spots.

Examples:
  btg spots list
  btg spots list -o json`,
		RunE: l.Run,
	}

	return l
}

// Command returns the underlying cobra command
func (l *SpotsListCommand) Command() *cobra.Command {
	return l.cmd
}

// Run executes the spots list command
func (l *SpotsListCommand) Run(cmd *cobra.Command, args []string) error {
	spotService := l.parent.Root().Container().SpotService()

	// Fetch spots (service will renew the token if needed)
	spots, err := spotService.ListSpots(cmd.Context())
	if err != nil {
		return describe(err)
	}

	switch outputFormat(cmd) {
	case "json":
		return writeJSON(spots)
	default:
		return l.outputTable(spots)
	}
}

// outputTable outputs spots in table format
func (l *SpotsListCommand) outputTable(spots []iface.Spot) error {
	if len(spots) == 0 {
		fmt.Println("No tourist spots found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOCATION")
	fmt.Fprintln(w, "--\t----\t--------")

	for _, s := range spots {
		fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Name, locationLabel(s.LocationID))
	}

	return w.Flush()
}

// SpotsGetCommand represents the spots get command
type SpotsGetCommand struct {
	parent *SpotsCommand
	cmd    *cobra.Command
}

// NewSpotsGetCommand creates a new spots get command
func NewSpotsGetCommand(parent *SpotsCommand) *SpotsGetCommand {
	g := &SpotsGetCommand{
		parent: parent,
	}

	g.cmd = &cobra.Command{
		Use:   "get <spot-id>",
		Short: "Get a tourist spot by ID",
		Long: `Get detailed information about a tourist spot.

Examples:
  btg spots get 12
  btg spots get 12 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: g.Run,
	}

	return g
}

// Command returns the underlying cobra command
func (g *SpotsGetCommand) Command() *cobra.Command {
	return g.cmd
}

// Run executes the spots get command
func (g *SpotsGetCommand) Run(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid spot ID %q", args[0])
	}

	spotService := g.parent.Root().Container().SpotService()

	spot, err := spotService.GetSpot(cmd.Context(), id)
	if err != nil {
		return describe(err)
	}

	switch outputFormat(cmd) {
	case "json":
		return writeJSON(spot)
	default:
		fmt.Printf("Spot:     %s\n", spot.Name)
		fmt.Printf("ID:       %d\n", spot.ID)
		fmt.Printf("Location: %s\n", locationLabel(spot.LocationID))
		if spot.Description != "" {
			fmt.Printf("\n%s\n", spot.Description)
		}
		if spot.Image != "" {
			fmt.Printf("\nImage: %s\n", spot.Image)
		}
		return nil
	}
}

func locationLabel(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

// writeJSON writes v to stdout as indented JSON
func writeJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
