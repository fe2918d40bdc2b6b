package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"slidecast/internal/pipeline"
)

const summaryDurationUnit = time.Second

// stageCommandSpecs maps one CLI command onto each pipeline stage so a
// single stage can be rerun without repeating the others.
var stageCommandSpecs = []struct {
	name  string
	short string
}{
	{"render", "Rasterize the deck into slide images"},
	{"notes", "Extract speaker notes from the deck"},
	{"narrate", "Synthesize voiceovers from the extracted notes"},
	{"compose", "Encode one video clip per slide"},
	{"assemble", "Concatenate the clips into the final video"},
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	commands := make([]*cobra.Command, 0, len(stageCommandSpecs))
	for _, spec := range stageCommandSpecs {
		spec := spec
		var overwrite bool
		cmd := &cobra.Command{
			Use:   spec.name,
			Short: spec.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return executePipeline(cmd, ctx, pipeline.RunOptions{
					Overwrite: overwrite,
					Stages:    []string{spec.name},
				})
			},
		}
		cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate assets that already exist")
		commands = append(commands, cmd)
	}
	return commands
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
