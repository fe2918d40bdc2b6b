package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"slidecast/internal/assets"
	"slidecast/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stage readiness, asset progress, and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, store, err := ctx.newDriver()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			out := cmd.OutOrStdout()

			rows := make([][]string, 0)
			for _, health := range driver.Health(cmd.Context()) {
				state := "ready"
				if !health.Ready {
					state = "not ready"
				}
				rows = append(rows, []string{health.Name, state, health.Detail})
			}
			fmt.Fprintln(out, "Stages")
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			cfg, _ := ctx.ensureConfig()
			rows = rows[:0]
			for _, kind := range []assets.Kind{assets.KindImage, assets.KindNote, assets.KindVoiceover, assets.KindClip} {
				sequence, err := assets.Scan(cfg.Paths.AssetsDir, kind)
				if err != nil {
					return err
				}
				rows = append(rows, []string{string(kind), fmt.Sprintf("%d", len(sequence))})
			}
			fmt.Fprintln(out, "\nAssets")
			fmt.Fprintln(out, renderTable(
				[]string{"Kind", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))

			if store == nil {
				return nil
			}
			runs, err := store.Runs(cmd.Context(), 5)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "\nNo recorded runs.")
				return nil
			}
			rows = rows[:0]
			for _, run := range runs {
				rows = append(rows, []string{
					shortRunID(run.ID),
					run.StartedAt.Local().Format(time.DateTime),
					string(run.Status),
					run.Detail,
				})
			}
			fmt.Fprintln(out, "\nRecent runs")
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			printFailedSlides(cmd, store, runs[0])
			return nil
		},
	}
}

func printFailedSlides(cmd *cobra.Command, store *ledger.Store, run ledger.Run) {
	records, err := store.SlideRecords(cmd.Context(), run.ID)
	if err != nil {
		return
	}
	rows := make([][]string, 0)
	for _, record := range records {
		if record.Status != ledger.StatusFailed {
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", record.Slide),
			record.Stage,
			record.Detail,
		})
	}
	if len(rows) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nFailed slides (latest run)")
	fmt.Fprintln(out, renderTable(
		[]string{"Slide", "Stage", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
