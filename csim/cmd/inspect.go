package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/trace"
	"github.com/spf13/cobra"
)

var accessResults = []string{"hit", "miss", "miss eviction"}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <recording.sqlite3>",
		Short: "Print the summary of a recorded run.",
		Long: `Inspect reads a database written with --record and prints the ` +
			`cache geometry, the final counters, and the number of accesses ` +
			`of each outcome.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer reader.Close()

			return inspect(cmd.Context(), reader, cmd.OutOrStdout())
		},
	}
}

func inspect(
	ctx context.Context,
	reader datarecording.DataReader,
	out io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader.MapTable(trace.SummaryTable, trace.SummaryEntry{})

	summaries, _, err := reader.Query(ctx, trace.SummaryTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, s := range summaries {
		entry := s.(*trace.SummaryEntry)
		fmt.Fprintf(out, "%s: %d sets, %d ways, %d-byte blocks\n",
			entry.Cache, entry.NumSets, entry.NumWays, entry.BlockSize)
		fmt.Fprintf(out, "hits:%d misses:%d evictions:%d\n",
			entry.Hits, entry.Misses, entry.Evictions)
	}

	for _, result := range accessResults {
		n, err := reader.Count(ctx, trace.AccessTable,
			datarecording.QueryParams{
				Where: "Result = ?",
				Args:  []any{result},
			})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%-14s %d\n", result, n)
	}

	return nil
}
