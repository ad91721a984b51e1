package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sift/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent placements, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			var entries []history.Entry
			if runID != "" {
				entries, err = store.ListRun(cmd.Context(), runID)
			} else {
				entries, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No placements recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.RecordedAt.Local().Format(time.DateTime),
					e.SourceName,
					e.Folder,
					e.Category,
					formatConfidence(e.Confidence),
					dashIfEmpty(e.OverrideRule),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Recorded", "File", "Folder", "Category", "Confidence", "Rule"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum number of entries to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show every placement from one run")
	return cmd
}
