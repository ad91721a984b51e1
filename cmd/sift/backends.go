package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sift/internal/classifier"
)

func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "backends",
		Short:       "List classifier backends",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			backends := classifier.Backends()
			rows := make([][]string, 0, len(backends))
			for _, b := range backends {
				rows = append(rows, []string{b.Name, dashIfEmpty(strings.Join(b.Aliases, ", ")), yesNo(b.Implemented)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Backend", "Aliases", "Implemented"}, rows, nil))
			return nil
		},
	}
}
