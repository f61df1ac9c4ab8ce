package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"finshorts/orchestrator"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline once",
		Long: "Ingest news, then advance every active work item through script, voice,\n" +
			"compose, thumbnail and publish. Item failures are reported in the summary;\n" +
			"only startup failures exit non-zero.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := a.pipeline.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), res)
			fmt.Fprintf(cmd.OutOrStdout(), "Finished in %s\n", elapsed(start))
			return nil
		},
	}
}

func printRunSummary(out io.Writer, res *orchestrator.RunResult) {
	fmt.Fprintf(out, "Run %s\n", res.RunID)
	if in := res.Ingest; in != nil {
		fmt.Fprintf(out, "Ingested: %d fetched, %d new, %d duplicates, %d filtered, %d skipped\n",
			in.Fetched, in.Created, in.Duplicates, in.Filtered, in.Skipped)
		for src, msg := range in.FeedErrors {
			fmt.Fprintf(out, "  feed %s failed: %s\n", src, msg)
		}
	}
	if c := res.Cleanup; c != nil && (len(c.OutputDirs)+c.HashesPruned+len(c.WorkItems)+c.LogsRemoved) > 0 {
		fmt.Fprintf(out, "Cleanup: %d output sets, %d hashes, %d work items, %d logs removed\n",
			len(c.OutputDirs), c.HashesPruned, len(c.WorkItems), c.LogsRemoved)
	}

	if len(res.Items) == 0 {
		fmt.Fprintln(out, "No active work items.")
		return
	}
	rows := make([][]string, 0, len(res.Items))
	for _, o := range res.Items {
		detail := o.VideoURL
		if o.Error != "" {
			detail = o.Error
		}
		rows = append(rows, []string{o.WorkItemID, shorten(o.Title, 40), string(o.From), string(o.To), o.Status, shorten(detail, 60)})
	}
	fmt.Fprintln(out, renderTable([]string{"Work item", "Title", "From", "To", "Status", "Detail"}, rows, nil))
	fmt.Fprintln(out, renderTable(
		[]string{"Processed", "Published", "Advanced", "Failed", "Rejected"},
		[][]string{{itoa(res.Processed), itoa(res.Published), itoa(res.Advanced), itoa(res.Failed), itoa(res.Rejected)}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

func itoa(n int) string { return strconv.Itoa(n) }

func shorten(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
