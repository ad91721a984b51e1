package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sift/internal/daemonrun"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var flags runtimeFlags
	var noExisting bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the root and organize files as they arrive",
		Long:  "Watch the organization root in the foreground until interrupted. Files already present are organized first unless --no-existing is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg, err := flags.apply(base)
			if err != nil {
				return err
			}
			if noExisting {
				cfg.Watch.OrganizeExisting = false
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noExisting, "no-existing", false, "Skip the initial pass over files already in the root")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	return cmd
}
