package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPromoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <artifact-id>",
		Short: "Run the full promotion workflow for one artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := ctx.buildComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer comp.close()

			result := comp.workflow.Run(cmd.Context(), args[0])

			if ctx.jsonOutput() {
				if err := printJSON(result); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(result.Steps))
				for _, step := range result.Steps {
					rows = append(rows, []string{checkmark(step.Success), string(step.Stage), step.Error})
				}
				fmt.Fprintln(out, renderTable([]string{"", "Stage", "Detail"}, rows))
				if result.Success {
					fmt.Fprintf(out, "Promoted %s in %s\n", result.ArtifactID, result.EndTime.Sub(result.StartTime).Round(durationPrecision))
					if result.Promotion != nil {
						for _, copied := range result.Promotion.CopiedFiles {
							fmt.Fprintf(out, "  copied %s -> %s (%d bytes)\n", copied.SourceKey, copied.DestKey, copied.Size)
						}
					}
				}
			}

			if !result.Success {
				return fmt.Errorf("promotion of %s failed at %s: %s", result.ArtifactID, result.FailedStage, result.Error)
			}
			return nil
		},
	}
}
