package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sift/internal/daemonrun"
	"sift/internal/ingest"
	"sift/internal/policy"
)

const topScores = 3

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var flags runtimeFlags
	var showScores bool

	cmd := &cobra.Command{
		Use:   "classify <file>...",
		Short: "Show where files would be placed without moving them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg, err := flags.apply(base)
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger(cfg, false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			rt, err := daemonrun.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			headers := []string{"File", "Category", "Folder", "Match", "Confidence", "Rule"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
			if showScores {
				headers = append(headers, "Scores")
				aligns = append(aligns, alignLeft)
			}

			var errs []error
			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", arg, err))
					continue
				}
				preview, err := rt.Pipeline.Classify(path)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", arg, err))
					continue
				}
				rows = append(rows, previewRow(preview, showScores))
			}

			out := cmd.OutOrStdout()
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
			}
			for _, err := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d file(s) could not be classified: %w", len(errs), len(args), errors.Join(errs...))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&showScores, "scores", false, "Include the highest category probabilities")
	return cmd
}

func previewRow(p ingest.Preview, showScores bool) []string {
	rule := "-"
	if p.Decision.Override != nil {
		rule = p.Decision.Override.Rule
	}
	row := []string{
		filepath.Base(p.Path),
		p.Decision.Category,
		p.Resolution.Folder,
		string(p.Resolution.Match),
		formatConfidence(p.Decision.Confidence),
		rule,
	}
	if showScores {
		row = append(row, formatScores(p))
	}
	return row
}

func formatScores(p ingest.Preview) string {
	ranked := policy.Rank(p.Decision.Scores)
	if len(ranked) > topScores {
		ranked = ranked[:topScores]
	}
	parts := make([]string, 0, len(ranked))
	for _, category := range ranked {
		parts = append(parts, fmt.Sprintf("%s %.2f", category, p.Decision.Scores[category]))
	}
	return strings.Join(parts, ", ")
}
