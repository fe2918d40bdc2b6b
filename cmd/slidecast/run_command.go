package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidecast/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: render, notes, narrate, compose, assemble",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executePipeline(cmd, ctx, pipeline.RunOptions{Overwrite: overwrite})
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate assets that already exist")
	return cmd
}

func executePipeline(cmd *cobra.Command, ctx *commandContext, opts pipeline.RunOptions) error {
	driver, store, err := ctx.newDriver()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	summary, err := driver.Run(cmd.Context(), opts)
	if summary != nil {
		printSummary(cmd, summary)
	}
	if err != nil {
		return err
	}
	if summary.Failed() {
		return fmt.Errorf("%d slides failed; rerun after fixing the cause", len(summary.Failures))
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary *pipeline.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Deck:     %s\n", summary.DeckPath)
	if summary.SlideCount > 0 {
		fmt.Fprintf(out, "Slides:   %d\n", summary.SlideCount)
	}
	fmt.Fprintf(out, "Stages:   %s\n", joinOrDash(summary.Stages))
	fmt.Fprintf(out, "Duration: %s\n", summary.Duration.Round(summaryDurationUnit))
	if summary.Failed() {
		rows := make([][]string, 0, len(summary.Failures))
		for _, failure := range summary.Failures {
			rows = append(rows, []string{
				fmt.Sprintf("%d", failure.Slide),
				failure.Stage,
				failure.Err.Error(),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Slide", "Stage", "Error"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft},
		))
		return
	}
	fmt.Fprintf(out, "Output:   %s\n", summary.OutputPath)
}
