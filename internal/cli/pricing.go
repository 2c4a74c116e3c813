package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Manage model pricing",
	Long:  `Configure per-model pricing overrides used for turn cost estimates.`,
}

var pricingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured model pricing",
	RunE:  withApp(runPricingList),
}

var pricingSetCmd = &cobra.Command{
	Use:   "set <model-prefix>",
	Short: "Set model pricing",
	Long: `Set pricing for a model prefix (USD per 1M tokens). The longest matching
prefix wins when a turn is priced.

Examples:
  framescope pricing set claude-sonnet-4 --input 3.00 --output 15.00
  framescope pricing set claude-sonnet-4 --input 3.00 --output 15.00 --long-input 6.00 --long-output 22.50
  framescope pricing set gpt-4o --input 2.50 --output 10.00 --name "GPT-4o"`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runPricingSet),
}

var pricingDeleteCmd = &cobra.Command{
	Use:   "delete <model-prefix>",
	Short: "Delete model pricing",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runPricingDelete),
}

// Flags
var (
	pricingInput         float64
	pricingOutput        float64
	pricingName          string
	pricingLongInput     float64
	pricingLongOutput    float64
	pricingLongThreshold int64
)

func init() {
	rootCmd.AddCommand(pricingCmd)

	pricingCmd.AddCommand(pricingListCmd)
	pricingCmd.AddCommand(pricingSetCmd)
	pricingCmd.AddCommand(pricingDeleteCmd)

	f := pricingSetCmd.Flags()
	f.Float64Var(&pricingInput, "input", 0, "Input tokens cost per 1M (required)")
	f.Float64Var(&pricingOutput, "output", 0, "Output tokens cost per 1M (required)")
	f.Float64Var(&pricingLongInput, "long-input", 0, "Long context input cost per 1M")
	f.Float64Var(&pricingLongOutput, "long-output", 0, "Long context output cost per 1M")
	f.Int64Var(&pricingLongThreshold, "long-threshold", 200000, "Input token threshold for long context pricing")
	f.StringVar(&pricingName, "name", "", "Display name (defaults to the model prefix)")
	_ = pricingSetCmd.MarkFlagRequired("input")
	_ = pricingSetCmd.MarkFlagRequired("output")
}

func runPricingList(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	pricing, err := app.PricingRepo.List(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(pricing) == 0 {
		fmt.Fprintln(out, "No model pricing configured")
		fmt.Fprintln(out, "\nUse 'framescope pricing set' to add pricing")
		return nil
	}
	printPricing(out, pricing)
	return nil
}

func printPricing(w io.Writer, pricing []*domain.ModelPricing) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tNAME\tINPUT/1M\tOUTPUT/1M\tLONG IN/1M\tLONG OUT/1M\tTHRESHOLD")
	fmt.Fprintln(tw, "-----\t----\t--------\t---------\t----------\t-----------\t---------")
	for _, p := range pricing {
		longInput, longOutput, threshold := "-", "-", "-"
		if p.LongContextInputPerMillion != nil {
			longInput = fmt.Sprintf("$%.2f", *p.LongContextInputPerMillion)
		}
		if p.LongContextOutputPerMillion != nil {
			longOutput = fmt.Sprintf("$%.2f", *p.LongContextOutputPerMillion)
		}
		if p.LongContextThreshold != nil {
			threshold = fmt.Sprint(*p.LongContextThreshold)
		}
		fmt.Fprintf(tw, "%s\t%s\t$%.2f\t$%.2f\t%s\t%s\t%s\n",
			p.Model, p.DisplayName, p.InputPerMillion, p.OutputPerMillion, longInput, longOutput, threshold)
	}
	tw.Flush()
}

// pricingFromFlags builds the override for a model from the set flags.
func pricingFromFlags(model string) (*domain.ModelPricing, error) {
	if pricingInput < 0 || pricingOutput < 0 || pricingLongInput < 0 || pricingLongOutput < 0 {
		return nil, fmt.Errorf("rates must not be negative")
	}
	p := &domain.ModelPricing{
		Model:            model,
		DisplayName:      pricingName,
		InputPerMillion:  pricingInput,
		OutputPerMillion: pricingOutput,
	}
	if p.DisplayName == "" {
		p.DisplayName = model
	}
	if pricingLongInput > 0 || pricingLongOutput > 0 {
		longIn, longOut, threshold := pricingLongInput, pricingLongOutput, pricingLongThreshold
		p.LongContextInputPerMillion = &longIn
		p.LongContextOutputPerMillion = &longOut
		p.LongContextThreshold = &threshold
	}
	return p, nil
}

func runPricingSet(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	p, err := pricingFromFlags(args[0])
	if err != nil {
		return err
	}
	if err := app.PricingRepo.Upsert(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set pricing for %s\n", p.Model)
	return nil
}

func runPricingDelete(ctx context.Context, cmd *cobra.Command, app *AppContext, args []string) error {
	existing, err := app.PricingRepo.GetByModel(ctx, args[0])
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("no pricing configured for %q", args[0])
	}
	if err := app.PricingRepo.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete pricing: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted pricing for %s\n", args[0])
	return nil
}
