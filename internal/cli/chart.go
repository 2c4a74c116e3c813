package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/framescope/internal/tools"
)

var chartCmd = &cobra.Command{
	Use:   "chart <capture.csv>",
	Short: "Render a chart of a local capture as PNG",
	Long: `Render one of the chart tools for a PresentMon capture to a PNG file.

Available charts: ` + strings.Join(tools.ChartTools, ", ") + `

Examples:
  framescope chart run.csv
  framescope chart run.csv --type chart_fps_histogram --bins 80 -o hist.png
  framescope chart run.csv --type chart_cpu_gpu_busy_timeline --start 10 --end 40`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runChart),
}

var (
	chartType       string
	chartOutput     string
	chartDownsample int
	chartBins       int
	chartStart      float64
	chartEnd        float64
	chartWidth      int
	chartHeight     int
)

func init() {
	rootCmd.AddCommand(chartCmd)
	f := chartCmd.Flags()
	f.StringVarP(&chartType, "type", "t", tools.ChartFrameTimeTimeline, "Chart tool to render")
	f.StringVarP(&chartOutput, "output", "o", "", "Output file (default <type>.png)")
	f.IntVar(&chartDownsample, "downsample", 0, "Downsample to at most this many points")
	f.IntVar(&chartBins, "bins", 0, "Histogram bin count")
	f.Float64Var(&chartStart, "start", -1, "Window start in seconds")
	f.Float64Var(&chartEnd, "end", -1, "Window end in seconds")
	f.IntVar(&chartWidth, "width", 0, "Image width in pixels")
	f.IntVar(&chartHeight, "height", 0, "Image height in pixels")
}

func runChart(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	sessionID, uploads, err := loadCaptures(app, args)
	if err != nil {
		return err
	}

	kv := map[string]string{}
	if chartDownsample > 0 {
		kv["downsample"] = strconv.Itoa(chartDownsample)
	}
	if chartBins > 0 {
		kv["bins"] = strconv.Itoa(chartBins)
	}
	if chartStart >= 0 {
		kv["start_sec"] = strconv.FormatFloat(chartStart, 'f', -1, 64)
	}
	if chartEnd >= 0 {
		kv["end_sec"] = strconv.FormatFloat(chartEnd, 'f', -1, 64)
	}

	fig, err := app.Registry.Figure(ctx, chartType, tools.Call{
		SessionID: sessionID,
		FileID:    uploads[0].FileID,
		Args:      tools.ParseArgs(kv),
	})
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", chartType, err)
	}

	out := chartOutput
	if out == "" {
		out = chartType + ".png"
	}
	if err := writePNG(fig, out, chartWidth, chartHeight); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	return nil
}
