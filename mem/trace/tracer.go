package trace

import (
	"fmt"
	"log"
	"strings"

	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/sim/hooking"
)

// Table names used by the DBTracer.
const (
	AccessTable  = "cache_accesses"
	SummaryTable = "run_summary"
)

// AccessEntry is one cache access in the database.
type AccessEntry struct {
	ID         uint64
	Op         string
	Address    string
	Tag        uint64
	SetID      int
	WayID      int
	Result     string
	EvictedTag uint64
}

// SummaryEntry is the final counters of a run in the database.
type SummaryEntry struct {
	Cache     string
	NumSets   int
	NumWays   int
	BlockSize uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// LogTracer prints the outcome of every replayed record, e.g.
// "M 10,1 miss hit".
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a LogTracer that writes to the logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func prints the record and the results of its accesses.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosRecord {
		return
	}

	rr := ctx.Item.(RecordResult)

	outcomes := make([]string, 0, len(rr.Results))
	for _, result := range rr.Results {
		outcomes = append(outcomes, result.String())
	}

	t.logger.Printf("%s %s\n", rr.Record, strings.Join(outcomes, " "))
}

// DBTracer writes every access into a database using the data recorder.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	nextID       uint64
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(AccessTable, AccessEntry{})
	t.dataRecorder.CreateTable(SummaryTable, SummaryEntry{})

	return t
}

// Func records the accesses of a replayed record.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosRecord {
		return
	}

	rr := ctx.Item.(RecordResult)

	for _, result := range rr.Results {
		t.nextID++
		t.dataRecorder.InsertData(AccessTable, AccessEntry{
			ID:         t.nextID,
			Op:         rr.Record.Op.String(),
			Address:    fmt.Sprintf("0x%x", result.Address),
			Tag:        result.Tag,
			SetID:      result.SetID,
			WayID:      result.WayID,
			Result:     result.String(),
			EvictedTag: result.EvictedTag,
		})
	}
}

// RecordSummary writes the final counters of a run and flushes.
func (t *DBTracer) RecordSummary(c *cache.Comp, stats cache.Statistics) {
	t.dataRecorder.InsertData(SummaryTable, SummaryEntry{
		Cache:     c.Name(),
		NumSets:   c.NumSets(),
		NumWays:   c.NumWays(),
		BlockSize: c.BlockSize(),
		Hits:      stats.Hits,
		Misses:    stats.Misses,
		Evictions: stats.Evictions,
	})

	t.dataRecorder.Flush()
}
