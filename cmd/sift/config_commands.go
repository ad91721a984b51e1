package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sift/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Write or check the sift configuration",
		Long:  "Write a starter config.toml, or load one and report the root, model, watch gates and override thresholds it resolves to.",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a starter config.toml with every default filled in",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("write starter config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Starter config written to %s\n", target)
			fmt.Fprintln(out, "Point paths.root_dir at your downloads folder and model.path at a trained model, then run `sift preflight`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write config.toml (default ~/.config/sift/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config.toml")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load config.toml and list the values sift will run with",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlagValue())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("create state and log directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Loaded %s\n", path)
			} else {
				fmt.Fprintf(out, "No file at %s; showing defaults\n", path)
			}
			fmt.Fprintln(out, renderTable(out, []string{"Setting", "Value"}, checkedSettings(cfg), nil))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// checkedSettings lists the resolved values that Validate gates on.
func checkedSettings(cfg *config.Config) [][]string {
	return [][]string{
		{"paths.root_dir", cfg.Paths.RootDir},
		{"paths.state_dir", cfg.Paths.StateDir},
		{"paths.log_dir", cfg.Paths.LogDir},
		{"model.backend", cfg.Model.Backend},
		{"model.path", dashIfEmpty(cfg.Model.Path)},
		{"watch.organize_existing", strconv.FormatBool(cfg.Watch.OrganizeExisting)},
		{"watch.stability_delay_ms", strconv.Itoa(cfg.Watch.StabilityDelayMS)},
		{"watch.stability_attempts", strconv.Itoa(cfg.Watch.StabilityAttempts)},
		{"watch.min_file_size", strconv.FormatInt(cfg.Watch.MinFileSize, 10)},
		{"watch.ignore_patterns", strconv.Itoa(len(cfg.Watch.IgnorePatterns))},
		{"watch.max_workers", strconv.Itoa(cfg.Watch.MaxWorkers)},
		{"policy.ambiguity_gap", strconv.FormatFloat(cfg.Policy.AmbiguityGap, 'g', -1, 64)},
		{"policy.small_document_bytes", strconv.FormatInt(cfg.Policy.SmallDocumentBytes, 10)},
		{"policy.tiny_document_bytes", strconv.FormatInt(cfg.Policy.TinyDocumentBytes, 10)},
		{"policy.education_floor", strconv.FormatFloat(cfg.Policy.EducationFloor, 'g', -1, 64)},
		{"logging.level", cfg.Logging.Level},
	}
}
