package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sift/internal/config"
)

// runtimeFlags lets a single invocation point at a different root or model
// without editing the config file.
type runtimeFlags struct {
	root    string
	model   string
	backend string
}

func (f *runtimeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", "", "Directory to organize (overrides paths.root_dir)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model file (overrides model.path)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "Classifier backend (overrides model.backend)")
}

// apply returns a copy of cfg with the overrides applied and revalidated.
func (f *runtimeFlags) apply(cfg *config.Config) (*config.Config, error) {
	out := *cfg
	out.Watch.IgnorePatterns = append([]string(nil), cfg.Watch.IgnorePatterns...)
	if root := strings.TrimSpace(f.root); root != "" {
		expanded, err := config.ExpandPath(root)
		if err != nil {
			return nil, fmt.Errorf("resolve --root: %w", err)
		}
		out.Paths.RootDir = expanded
	}
	if model := strings.TrimSpace(f.model); model != "" {
		expanded, err := config.ExpandPath(model)
		if err != nil {
			return nil, fmt.Errorf("resolve --model: %w", err)
		}
		out.Model.Path = expanded
	}
	if backend := strings.TrimSpace(f.backend); backend != "" {
		out.Model.Backend = strings.ToLower(backend)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
