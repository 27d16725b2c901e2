package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <artifact-id>",
		Short: "Run eligibility checks for one staging artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := ctx.buildComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer comp.close()

			result := comp.validator.Validate(cmd.Context(), args[0])

			if ctx.jsonOutput() {
				if err := printJSON(result); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(result.Checks))
				for _, check := range result.Checks {
					rows = append(rows, []string{checkmark(check.Passed), check.Name, check.Message})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable([]string{"", "Check", "Detail"}, rows))
				}
				for _, warning := range result.Warnings {
					fmt.Fprintf(out, "Warning: %s\n", warning)
				}
				if result.Valid {
					fmt.Fprintf(out, "%s is eligible for promotion\n", result.ArtifactID)
				}
			}

			if !result.Valid {
				return fmt.Errorf("%s is not eligible: %s", result.ArtifactID, result.Reason)
			}
			return nil
		},
	}
}
