package main

import (
	"fmt"

	"finshorts/types"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show work items by stage and record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			counts, err := a.store.CountByStage()
			if err != nil {
				fmt.Fprintf(out, "warning: %v\n", err)
			}
			archived, _ := a.store.ListArchived()
			rejected, _ := a.store.ListRejected()

			rows := make([][]string, 0, len(types.Stages)+2)
			for _, s := range types.Stages[:len(types.Stages)-1] {
				rows = append(rows, []string{string(s), itoa(counts[s])})
			}
			rows = append(rows, []string{"archived", itoa(len(archived))}, []string{"rejected", itoa(len(rejected))})
			fmt.Fprintln(out, renderTable([]string{"Stage", "Items"}, rows, []columnAlignment{alignLeft, alignRight}))

			scripts, uploads, err := a.recordCounts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Record", "Entries"},
				[][]string{{"script hashes", itoa(scripts)}, {"uploads", itoa(uploads)}},
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
