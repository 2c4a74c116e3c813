package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/framescope/internal/charts"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/pkg/tui/theme"
)

var askCmd = &cobra.Command{
	Use:   "ask <capture.csv>...",
	Short: "Ask a question about local captures",
	Long: `Load one or more captures into a session and run a single chat turn.
Charts produced during the turn are written as PNG files.

Examples:
  framescope ask run.csv -q "Is this run CPU or GPU bound?"
  framescope ask run.csv -q "Plot the frame times" --chart-dir charts
  framescope ask before.csv after.csv -q "Compare these runs"`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runAsk),
}

var (
	askQuestion string
	askChartDir string
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "Question to ask (required)")
	askCmd.Flags().StringVar(&askChartDir, "chart-dir", ".", "Directory for chart PNGs")
	_ = askCmd.MarkFlagRequired("question")
}

func runAsk(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	sessionID, _, err := loadCaptures(app, args)
	if err != nil {
		return err
	}

	s := theme.Default()
	errOut := cmd.ErrOrStderr()
	reply, err := app.Chat.Stream(ctx, sessionID, askQuestion, func(e domain.Event) {
		if e.Type == domain.EventToolStart {
			fmt.Fprintln(errOut, s.Muted.Render("Using "+e.ToolName+"..."))
		}
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reply.Failed() {
		fmt.Fprintln(out, s.Error.Render(reply.Text))
	} else {
		fmt.Fprintln(out, reply.Text)
	}

	paths, err := saveCharts(reply.Charts, askChartDir)
	for _, p := range paths {
		fmt.Fprintf(out, "Wrote %s\n", p)
	}
	if err != nil {
		return err
	}

	if reply.Usage != nil {
		fmt.Fprintln(errOut, s.Muted.Render(fmt.Sprintf("%s via %s: %d in / %d out tokens",
			reply.CapabilitySet, reply.Usage.Model, reply.Usage.InputTokens, reply.Usage.OutputTokens)))
	}
	return nil
}

// saveCharts writes every figure to dir as chart_<n>.png and returns the
// paths written before any failure.
func saveCharts(figs []any, dir string) ([]string, error) {
	var paths []string
	for _, c := range figs {
		fig, ok := c.(*charts.Figure)
		if !ok {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("chart_%d.png", len(paths)+1))
		if err := writePNG(fig, path, 0, 0); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
