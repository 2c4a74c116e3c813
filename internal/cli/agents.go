package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/framescope/internal/agents"
	"github.com/emiliopalmerini/framescope/internal/pkg/tui/theme"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List capability sets and their tools",
	Long: `List the capability sets a chat turn can run with.

Examples:
  framescope agents
  framescope agents --route "plot the fps over time"   # Show which set a message routes to`,
	RunE: withApp(runAgents),
}

var agentsRoute string

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.Flags().StringVar(&agentsRoute, "route", "", "Print the set this message routes to")
}

func runAgents(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	out := cmd.OutOrStdout()
	if agentsRoute != "" {
		fmt.Fprintln(out, agents.NewRouter(app.Catalog).Classify(agentsRoute))
		return nil
	}
	printCatalog(out, app.Catalog)
	return nil
}

func printCatalog(w io.Writer, catalog *agents.Catalog) {
	s := theme.Default()
	for _, info := range catalog.List() {
		set, ok := catalog.Get(info.Name)
		if !ok {
			continue
		}
		lines := []string{s.Subtitle.Render(info.Name), s.Muted.Render(info.Description)}
		for _, tool := range set.Tools() {
			lines = append(lines, s.Body.Render("  "+tool.Name))
		}
		fmt.Fprintln(w, s.Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}
}
