package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/framescope/internal/adapters/llm"
	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/pkg/tui/theme"
	"github.com/emiliopalmerini/framescope/internal/stats"
	"github.com/emiliopalmerini/framescope/internal/tools"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <capture.csv>...",
	Short: "Run the analysis tools on local captures",
	Long: `Run the analysis tools on one or more PresentMon captures and print a report.
With two or more captures the report ends with an FPS comparison.

Examples:
  framescope analyze run.csv
  framescope analyze before.csv after.csv
  framescope analyze run.csv --tools detect_stutters,analyze_throttling
  framescope analyze run.csv --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runAnalyze),
}

// defaultReportTools are the sections of an analyze report.
var defaultReportTools = []string{
	tools.ProfileData,
	tools.ComputeFPSStatistics,
	tools.DetectStutters,
	tools.AnalyzeCPUGPUBound,
	tools.ComputeCPUGPUBusyStats,
	tools.ComputeLatencyStats,
	tools.AnalyzeThrottling,
}

var (
	analyzeTools []string
	analyzeJSON  bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringSliceVar(&analyzeTools, "tools", defaultReportTools, "Analysis tools to run")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print raw tool results as JSON")
}

type reportSection struct {
	Tool   string            `json:"tool"`
	Result domain.ToolResult `json:"result"`
}

type fileReport struct {
	Upload   *capture.UploadResult `json:"file"`
	Sections []reportSection       `json:"sections"`
}

type analysisReport struct {
	Files      []fileReport       `json:"files"`
	Comparison *domain.ToolResult `json:"comparison,omitempty"`
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	for _, name := range analyzeTools {
		if _, ok := app.Registry.Schema(name); !ok {
			return fmt.Errorf("unknown tool %q (available: %s)", name, strings.Join(tools.AnalysisTools, ", "))
		}
	}

	sessionID, uploads, err := loadCaptures(app, args)
	if err != nil {
		return err
	}
	report, err := analyzeCaptures(ctx, app.Registry, sessionID, uploads, analyzeTools)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	renderReport(out, report)
	return nil
}

// reportConcurrency bounds how many tool runs execute at once.
const reportConcurrency = 4

// analyzeCaptures runs every tool against every upload concurrently. Each
// result lands in its own slot so the report order is stable.
func analyzeCaptures(ctx context.Context, reg *tools.Registry, sessionID string, uploads []*capture.UploadResult, names []string) (*analysisReport, error) {
	report := &analysisReport{Files: make([]fileReport, len(uploads))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for i, up := range uploads {
		report.Files[i] = fileReport{Upload: up, Sections: make([]reportSection, len(names))}
		for j, name := range names {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res := reg.Dispatch(gctx, name, map[string]any{"file_id": up.FileID}, sessionID)
				report.Files[i].Sections[j] = reportSection{Tool: name, Result: res}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(uploads) >= 2 {
		ids := make([]any, len(uploads))
		labels := make([]any, len(uploads))
		for i, up := range uploads {
			ids[i] = up.FileID
			labels[i] = up.Filename
		}
		res := tools.Run(ctx, reg.CompareFiles, tools.Call{
			SessionID: sessionID,
			Args:      map[string]any{"file_ids": ids, "labels": labels},
		})
		report.Comparison = &res
	}
	return report, nil
}

func renderReport(w io.Writer, r *analysisReport) {
	s := theme.Default()
	fmt.Fprintln(w, s.Title.Render("framescope report"))

	for _, f := range r.Files {
		up := f.Upload
		header := lipgloss.JoinVertical(lipgloss.Left,
			s.Subtitle.Render(up.Filename),
			field(s, "Application", up.Application),
			field(s, "Game", up.GameName),
			field(s, "Source", up.SourceTool),
			field(s, "Frames", fmt.Sprint(up.Rows)),
			field(s, "Duration", fmt.Sprintf("%.2fs", up.DurationSeconds)),
		)
		fmt.Fprintln(w, s.Card.Render(header))

		for _, sec := range f.Sections {
			body := llm.FormatResult(sec.Tool, sec.Result)
			if sec.Result.IsError() {
				body = s.Error.Render(body)
			}
			fmt.Fprintln(w, s.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
				s.Muted.Render(sec.Tool),
				s.Body.Render(body),
			)))
		}
	}

	if r.Comparison != nil {
		fmt.Fprintln(w, s.Card.Render(renderComparison(s, *r.Comparison)))
	}
}

func field(s *theme.Styles, label, value string) string {
	return s.Label.Render(label) + s.Value.Render(value)
}

func renderComparison(s *theme.Styles, res domain.ToolResult) string {
	cmp, ok := res.Value.(*stats.CompareReport)
	if res.IsError() || !ok {
		return s.Error.Render("Comparison failed: " + res.Message)
	}

	lines := []string{s.Subtitle.Render("Comparison")}
	for _, f := range cmp.Files {
		lines = append(lines, field(s, f.Label,
			fmt.Sprintf("%.1f avg FPS, %.1f 1%% low, %.2f ms avg frame time", f.FPS.Average, f.FPS.P1, f.FrameTimeMs.Average)))
	}

	d := cmp.Delta
	delta := fmt.Sprintf("%+.1f FPS (%+.1f%%), 1%% low %+.1f, frame time %+.2f ms",
		d.AvgFPSDelta, d.AvgFPSDeltaPct, d.P1FPSDelta, d.AvgFrameTimeDeltaMs)
	style := s.Success
	if d.AvgFPSDelta < 0 {
		style = s.Warning
	}
	lines = append(lines, s.Label.Render("Delta")+style.Render(delta))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
