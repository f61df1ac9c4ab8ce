package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run the retention pass only",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.pipeline.Cleanup(cmd.Context())
			if res != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d output sets, %d hashes, %d work items, %d logs\n",
					len(res.OutputDirs), res.HashesPruned, len(res.WorkItems), res.LogsRemoved)
			}
			return err
		},
	}
}
