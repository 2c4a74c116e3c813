package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "framescope",
	Short: "Frame-timing analysis for PresentMon captures",
	Long: `framescope analyzes PresentMon frame-timing captures.

Upload captures over the web API and ask questions in a chat, or run the
analysis tools directly from the command line. Settings come from
FRAMESCOPE_* environment variables.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the AppContext for a command and closes it afterwards.
func withApp(run func(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		app, err := NewAppContext(ctx)
		if err != nil {
			return err
		}
		defer app.Close()
		return run(ctx, cmd, app, args)
	}
}
