package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List staging artifacts eligible for promotion",
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

			if ctx.jsonOutput() {
				return printJSON(candidates)
			}

			out := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(out, "No promotion candidates")
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for _, candidate := range candidates {
				rows = append(rows, []string{
					candidate.ArtifactID,
					candidate.Title,
					candidate.CreatedDate,
					fmt.Sprintf("%.1f", candidate.AgeHours),
					fmt.Sprintf("%.1fs", candidate.Duration),
					fmt.Sprintf("%d", candidate.FileSize),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Artifact", "Title", "Created", "Age (h)", "Duration", "Bytes"}, rows))
			fmt.Fprintf(out, "%d candidate(s)\n", len(candidates))
			return nil
		},
	}
}
