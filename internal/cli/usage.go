package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
	"github.com/emiliopalmerini/framescope/internal/util"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show reasoner usage from the turn ledger",
	Long: `Show token, tool and cost statistics for recorded chat turns.

Examples:
  framescope usage                    # All-time usage
  framescope usage --period today     # Today's usage
  framescope usage --recent 10        # Also list the last 10 turns`,
	RunE: withApp(runUsage),
}

var usagePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete recorded turns older than a date",
	Long: `Delete ledger entries recorded before a date.

Examples:
  framescope usage prune --before 2026-01-01`,
	RunE: withApp(runUsagePrune),
}

// Flags
var (
	usagePeriod string
	usageRecent int
	usageBefore string
)

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usagePruneCmd)

	usageCmd.Flags().StringVarP(&usagePeriod, "period", "p", "all", "Time period: today, week, month, all")
	usageCmd.Flags().IntVar(&usageRecent, "recent", 0, "List this many recent turns")
	usagePruneCmd.Flags().StringVar(&usageBefore, "before", "", "Delete turns before date (YYYY-MM-DD)")
	_ = usagePruneCmd.MarkFlagRequired("before")
}

type usageSummary struct {
	Period    util.Period
	Aggregate *domain.AggregateUsage
	Sets      []domain.CapabilityUsage
	Tools     []domain.ToolUsageStats
	Recent    []*domain.TurnRecord
}

func runUsage(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	period, err := util.ParsePeriod(usagePeriod)
	if err != nil {
		return err
	}
	since := period.Since(time.Now())

	sum := usageSummary{Period: period}
	if sum.Aggregate, err = app.TurnRepo.GetAggregate(ctx, since); err != nil {
		return err
	}
	if sum.Sets, err = app.TurnRepo.GetAggregateByCapability(ctx, since); err != nil {
		return err
	}
	if sum.Tools, err = app.TurnRepo.GetTopTools(ctx, since, 5); err != nil {
		return err
	}
	if usageRecent > 0 {
		if sum.Recent, err = app.TurnRepo.ListRecent(ctx, ports.ListTurnsOptions{Limit: usageRecent}); err != nil {
			return err
		}
	}

	printUsage(cmd.OutOrStdout(), sum)
	return nil
}

func printUsage(w io.Writer, sum usageSummary) {
	a := sum.Aggregate
	n := a.ComputeNormalized()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  framescope usage\n")
	fmt.Fprintf(w, "  ================\n")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Period:            %s\n", sum.Period.Label())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Turns\n")
	fmt.Fprintf(w, "  -----\n")
	fmt.Fprintf(w, "  Total:             %s\n", util.Compact(a.TurnCount))
	fmt.Fprintf(w, "  Sessions:          %d\n", a.SessionCount)
	fmt.Fprintf(w, "  Iterations/turn:   %.1f\n", n.IterationsPerTurn)
	fmt.Fprintf(w, "  Budget exceeded:   %d\n", a.BudgetExceeded)
	fmt.Fprintf(w, "  Failed:            %d\n", a.FailedTurns)
	fmt.Fprintf(w, "  Avg duration:      %.0f ms\n", n.AvgTurnMs)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Tokens\n")
	fmt.Fprintf(w, "  ------\n")
	fmt.Fprintf(w, "  Input:             %s\n", util.Compact(a.TotalTokenInput))
	fmt.Fprintf(w, "  Output:            %s\n", util.Compact(a.TotalTokenOutput))
	fmt.Fprintf(w, "  Per turn:          %s\n", util.Compact(n.TokensPerTurn))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Tools\n")
	fmt.Fprintf(w, "  -----\n")
	fmt.Fprintf(w, "  Calls:             %s\n", util.Compact(a.TotalToolCalls))
	fmt.Fprintf(w, "  Error rate:        %.1f%%\n", n.ToolErrorRate*100)
	fmt.Fprintf(w, "  Charts:            %d\n", a.TotalCharts)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Cost\n")
	fmt.Fprintf(w, "  ----\n")
	fmt.Fprintf(w, "  Estimated:         $%.4f\n", a.TotalCostUSD)
	fmt.Fprintln(w)

	if len(sum.Sets) > 0 {
		fmt.Fprintf(w, "  Capability Sets\n")
		fmt.Fprintf(w, "  ---------------\n")
		for _, s := range sum.Sets {
			fmt.Fprintf(w, "  %-18s %s turns, $%.4f\n", s.CapabilitySet, util.Compact(s.TurnCount), s.TotalCostUSD)
		}
		fmt.Fprintln(w)
	}

	if len(sum.Tools) > 0 {
		fmt.Fprintf(w, "  Top Tools\n")
		fmt.Fprintf(w, "  ---------\n")
		for _, t := range sum.Tools {
			fmt.Fprintf(w, "  %-32s %s calls, %d errors\n", t.ToolName, util.Compact(t.TotalInvocations), t.TotalErrors)
		}
		fmt.Fprintln(w)
	}

	if len(sum.Recent) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tSET\tMODEL\tSTATE\tTOOLS\tTOKENS\tCOST")
		fmt.Fprintln(tw, "----\t---\t-----\t-----\t-----\t------\t----")
		for _, t := range sum.Recent {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t$%.4f\n",
				t.CreatedAt.Local().Format("2006-01-02 15:04"), t.CapabilitySet, t.Model, t.FinalState,
				t.ToolCalls, util.Compact(t.TokenInput+t.TokenOutput), t.CostUSD)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}
}

func runUsagePrune(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	before, err := time.Parse("2006-01-02", usageBefore)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", usageBefore)
	}
	n, err := app.TurnRepo.DeleteBefore(ctx, before.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d turns\n", n)
	return nil
}
