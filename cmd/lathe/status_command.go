package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline wiring and pending promotion work",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := ctx.buildComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer comp.close()

			candidates, err := comp.scheduler.ScanCandidates(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan candidates: %w", err)
			}

			cfg := comp.cfg
			if ctx.jsonOutput() {
				return printJSON(map[string]any{
					"backend":      cfg.Backend,
					"staging":      cfg.Staging,
					"production":   cfg.Production,
					"candidates":   len(candidates),
					"maxBatchSize": cfg.Promotion.MaxBatchSize,
					"gracePeriod":  cfg.GracePeriod().String(),
					"rescheduleIn": cfg.RescheduleDelay().String(),
				})
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Backend", cfg.Backend},
				{"Staging", fmt.Sprintf("%s (%s / %s)", cfg.Staging.Name, cfg.Staging.Bucket, cfg.Staging.MetadataTable)},
				{"Production", fmt.Sprintf("%s (%s / %s)", cfg.Production.Name, cfg.Production.Bucket, cfg.Production.MetadataTable)},
				{"Grace period", cfg.GracePeriod().String()},
				{"Batch size", fmt.Sprintf("%d", cfg.Promotion.MaxBatchSize)},
				{"Candidates", fmt.Sprintf("%d", len(candidates))},
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows))
			return nil
		},
	}
}
