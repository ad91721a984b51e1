package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sift/internal/daemonrun"
	"sift/internal/ingest"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var flags runtimeFlags
	var verbose bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Organize the files currently in the root and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg, err := flags.apply(base)
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger(cfg, verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt, err := daemonrun.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, err := rt.Organize(cmd.Context())
			out := cmd.OutOrStdout()
			printSummary(out, summary, cfg.Paths.RootDir)
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d file(s) could not be organized", summary.Failed)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Mirror logs to stderr")
	return cmd
}

func printSummary(out io.Writer, summary ingest.Summary, root string) {
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		switch o.State {
		case ingest.StateDone:
			rows = append(rows, []string{
				o.Name,
				o.Category,
				relativeTo(root, o.Destination),
				formatConfidence(o.Confidence),
				dashIfEmpty(o.Override),
			})
		case ingest.StateFailed:
			rows = append(rows, []string{
				o.Name,
				"failed",
				fmt.Sprintf("%s: %v", o.Stage, o.Err),
				"-",
				"-",
			})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(out,
			[]string{"File", "Category", "Destination", "Confidence", "Rule"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}

	fmt.Fprintf(out, "Moved %d, failed %d, skipped %d\n", summary.Moved, summary.Failed, summary.Skipped)
	if len(summary.Categories) > 0 {
		fmt.Fprintf(out, "Folders: %s\n", strings.Join(summary.Categories, ", "))
	}
	if summary.RunID != "" {
		fmt.Fprintf(out, "Run: %s\n", summary.RunID)
	}
}

func relativeTo(root, path string) string {
	if path == "" {
		return "-"
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func formatConfidence(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
