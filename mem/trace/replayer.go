package trace

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/sim/hooking"
)

// ErrTraceIO is wrapped by every error that comes from opening or reading a
// trace.
var ErrTraceIO = errors.New("trace I/O error")

var (
	// HookPosRecord is invoked after every load, store, or modify has been
	// applied. The hook item is a RecordResult.
	HookPosRecord = &hooking.HookPos{Name: "TraceRecord"}

	// HookPosProgress is invoked after every line read. The hook item is the
	// number of bytes consumed so far, as a uint64.
	HookPosProgress = &hooking.HookPos{Name: "TraceProgress"}
)

// An Accessor is a cache that accepts accesses.
type Accessor interface {
	Access(addr uint64) cache.AccessResult
}

// RecordResult is the outcome of replaying one record.
type RecordResult struct {
	Record  Record
	Results []cache.AccessResult
}

// Replayer feeds the records of a trace to a cache.
type Replayer struct {
	hooking.HookableBase

	name  string
	cache Accessor
}

// NewReplayer creates a Replayer that drives the given cache.
func NewReplayer(name string, c Accessor) *Replayer {
	return &Replayer{
		name:  name,
		cache: c,
	}
}

// Name returns the name of the replayer.
func (r *Replayer) Name() string {
	return r.name
}

// Open opens a trace file for replaying.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraceIO, err)
	}

	return f, nil
}

// ReplayFile opens the trace file and replays it.
func (r *Replayer) ReplayFile(path string) (cache.Statistics, error) {
	f, err := Open(path)
	if err != nil {
		return cache.Statistics{}, err
	}
	defer f.Close()

	return r.Replay(f)
}

// Replay replays every record of the trace in order. If the trace cannot be
// read to the end, the statistics gathered so far are discarded.
func (r *Replayer) Replay(in io.Reader) (cache.Statistics, error) {
	var stats cache.Statistics

	reader := NewReader(in)

	for {
		line, err := reader.ReadLine()
		if err == io.EOF {
			break
		}

		if err != nil {
			return cache.Statistics{}, fmt.Errorf("%w: %w", ErrTraceIO, err)
		}

		record, ok := ParseRecord(line)
		if ok {
			r.replayRecord(record, &stats)
		}

		r.invokeHook(HookPosProgress, reader.BytesRead())
	}

	return stats, nil
}

func (r *Replayer) replayRecord(record Record, stats *cache.Statistics) {
	results := make([]cache.AccessResult, 0, record.Op.NumAccesses())

	for i := 0; i < record.Op.NumAccesses(); i++ {
		result := r.cache.Access(record.Address)
		stats.Record(result)
		results = append(results, result)
	}

	r.invokeHook(HookPosRecord, RecordResult{
		Record:  record,
		Results: results,
	})
}

func (r *Replayer) invokeHook(pos *hooking.HookPos, item any) {
	if r.NumHooks() == 0 {
		return
	}

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    pos,
		Item:   item,
	})
}
