// Package report prints the final statistics of a run in the format that
// graders consume.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/csim/mem/cache"
)

// PrintSummary prints the counters as "hits:<h> misses:<m> evictions:<e>".
func PrintSummary(w io.Writer, hits, misses, evictions uint64) error {
	_, err := fmt.Fprintf(w, "hits:%d misses:%d evictions:%d\n",
		hits, misses, evictions)

	return err
}

// WriteResults writes the counters as "<h> <m> <e>" to the file at path,
// replacing what is there.
func WriteResults(path string, hits, misses, evictions uint64) error {
	return os.WriteFile(path,
		[]byte(fmt.Sprintf("%d %d %d\n", hits, misses, evictions)),
		0o644)
}

// Report prints the summary to w and, if resultsPath is not empty, writes the
// results file.
func Report(w io.Writer, resultsPath string, stats cache.Statistics) error {
	err := PrintSummary(w, stats.Hits, stats.Misses, stats.Evictions)
	if err != nil {
		return err
	}

	if resultsPath == "" {
		return nil
	}

	return WriteResults(resultsPath, stats.Hits, stats.Misses, stats.Evictions)
}
