package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lathe/internal/catalog"
	"lathe/internal/fixtures"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var (
		title    string
		artist   string
		genre    string
		tags     []string
		duration float64
		fileSize int64
		status   string
		ageHours float64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Plant a test artifact in staging",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := ctx.buildComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer comp.close()

			opts := fixtures.SeedOptions{
				Title:    title,
				Artist:   artist,
				Genre:    genre,
				Tags:     tags,
				Duration: duration,
				FileSize: fileSize,
				Status:   catalog.Status(status),
			}
			if ageHours > 0 {
				opts.CreatedAt = time.Now().Add(-time.Duration(ageHours * float64(time.Hour)))
			}

			record, err := comp.seeder.Seed(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("seed artifact: %w", err)
			}

			if ctx.jsonOutput() {
				return printJSON(record)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Seeded %s (%s, %.1fs, %d bytes)\n", record.ID, record.Title, record.Duration, record.FileSize)
			fmt.Fprintf(out, "Object: %s\n", record.FileURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Track title (defaults to one derived from the filename)")
	cmd.Flags().StringVar(&artist, "artist", "", "Track artist")
	cmd.Flags().StringVar(&genre, "genre", "", "Track genre")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Track tag (repeatable)")
	cmd.Flags().Float64Var(&duration, "duration", 5, "Audio duration in seconds")
	cmd.Flags().Int64Var(&fileSize, "file-size", 0, "Recorded file size (0 uses the generated object's size)")
	cmd.Flags().StringVar(&status, "status", "", "Processing status (defaults to processed)")
	cmd.Flags().Float64Var(&ageHours, "age-hours", 0, "Backdate the record by this many hours")
	return cmd
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <artifact-id>",
		Short: "Remove a seeded artifact from staging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := ctx.buildComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer comp.close()

			if err := comp.seeder.Cleanup(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("cleanup artifact: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from staging\n", args[0])
			return nil
		},
	}
}
