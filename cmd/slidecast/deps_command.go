package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidecast/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and directory access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := deps.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "missing"
				if status.Available {
					state = "ok"
				} else if status.Optional {
					state = "missing (optional)"
				}
				rows = append(rows, []string{status.Name, status.Command, state, status.Description})
			}
			fmt.Fprintln(out, "Binaries")
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Command", "State", "Notes"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			checks := []deps.Result{
				deps.CheckDirectoryAccess("input", cfg.Paths.InputDir),
				deps.CheckDirectoryAccess("assets", cfg.Paths.AssetsDir),
				deps.CheckDirectoryAccess("output", cfg.Paths.OutputDir),
				deps.CheckFreeSpace("workspace", cfg.Paths.AssetsDir),
			}
			rows = rows[:0]
			for _, check := range checks {
				state := "fail"
				if check.Passed {
					state = "ok"
				}
				rows = append(rows, []string{check.Name, state, check.Detail})
			}
			fmt.Fprintln(out, "\nEnvironment")
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tools missing", len(missing))
			}
			return nil
		},
	}
}
