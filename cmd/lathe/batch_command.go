package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var maxPromotions int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Promote a batch of eligible staging artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := ctx.buildComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer comp.close()

			if comp.runLock != nil {
				acquired, err := comp.runLock.TryAcquire()
				if err != nil {
					return fmt.Errorf("acquire batch lock: %w", err)
				}
				if !acquired {
					return fmt.Errorf("another batch run holds %s", comp.runLock.Path())
				}
				defer comp.runLock.Release()
			}

			result := comp.scheduler.RunBatch(cmd.Context(), maxPromotions)

			if ctx.jsonOutput() {
				if err := printJSON(result); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(result.Workflows))
				for _, workflow := range result.Workflows {
					detail := workflow.Error
					if workflow.Success {
						detail = workflow.EndTime.Sub(workflow.StartTime).Round(durationPrecision).String()
					}
					rows = append(rows, []string{checkmark(workflow.Success), workflow.ArtifactID, detail})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable([]string{"", "Artifact", "Detail"}, rows))
				}
				fmt.Fprintf(out, "Scanned %d, promoted %d, failed %d\n", result.Scanned, result.Promoted, result.Failed)
				if result.Rescheduled {
					fmt.Fprintln(out, "Follow-up batch scheduled for the remaining candidates")
				}
			}

			if result.Error != "" {
				return errors.New(result.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPromotions, "max", 0, "Promotions per run (0 uses the configured batch size)")
	return cmd
}
