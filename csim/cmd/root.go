// Package cmd provides the command-line interface of csim.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sarchlab/csim/config"
	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/mem/trace"
	"github.com/sarchlab/csim/monitoring"
	"github.com/sarchlab/csim/report"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

const examples = `  csim -s 4 -E 1 -b 4 -t traces/yi.trace
  csim -v -s 8 -E 2 -b 4 -t traces/yi.trace`

// NewRootCmd creates the csim command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "csim [-hv] -s <num> -E <num> -b <num> -t <file>",
		Short: "csim replays a memory trace against a set-associative cache.",
		Long: `csim replays a Valgrind memory trace against a set-associative ` +
			`cache with LRU replacement and reports the number of hits, ` +
			`misses, and evictions. Instruction fetches are ignored and a ` +
			`modify counts as a load followed by a store.`,
		Example:       examples,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runSimulation,
	}

	flags := rootCmd.Flags()
	flags.IntP("set-bits", "s", 0, "Number of set index bits.")
	flags.IntP("lines", "E", 0, "Number of lines per set.")
	flags.IntP("block-bits", "b", 0, "Number of block offset bits.")
	flags.StringP("trace", "t", "", "Trace file.")
	flags.BoolP("verbose", "v", false, "Optional verbose flag.")
	flags.String("record", "",
		"Record every access into <name>.sqlite3.")
	flags.String("results-file", config.DefaultResultsFile,
		"File to write the \"<hits> <misses> <evictions>\" results into. "+
			"Empty disables it.")
	flags.Bool("monitor", false,
		"Serve the replay progress and statistics over HTTP.")
	flags.Int("monitor-port", 0,
		"Port of the monitoring server. Random if below 1000.")
	flags.Bool("open-browser", false,
		"Open the monitoring page in a browser. Implies --monitor.")

	rootCmd.AddCommand(newInspectCmd())

	return rootCmd
}

// Execute runs the csim command and exits with a non-zero status on failure.
func Execute() {
	err := execute(NewRootCmd())
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// reportedError is an error whose message has already been printed.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// execute runs the command and prints the error it fails with, unless the
// error has already been reported.
func execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err != nil && !errors.As(err, new(reportedError)) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", cmd.Name(), err)
	}

	return err
}

func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()

	err := config.LoadEnv()
	if err != nil {
		return cfg, err
	}

	err = cfg.ApplyEnv()
	if err != nil {
		return cfg, err
	}

	if flags.Changed("set-bits") {
		cfg.SetIndexBits, _ = flags.GetInt("set-bits")
	}

	if flags.Changed("lines") {
		cfg.Associativity, _ = flags.GetInt("lines")
	}

	if flags.Changed("block-bits") {
		cfg.BlockOffsetBits, _ = flags.GetInt("block-bits")
	}

	if flags.Changed("trace") {
		cfg.TracePath, _ = flags.GetString("trace")
	}

	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}

	if flags.Changed("record") {
		cfg.RecordPath, _ = flags.GetString("record")
	}

	cfg.ResultsFile, _ = flags.GetString("results-file")
	cfg.Monitor, _ = flags.GetBool("monitor")
	cfg.MonitorPort, _ = flags.GetInt("monitor-port")
	cfg.OpenBrowser, _ = flags.GetBool("open-browser")
	cfg.Monitor = cfg.Monitor || cfg.OpenBrowser

	return cfg, nil
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err == nil {
		err = cfg.Validate()
	}

	if err != nil {
		reportConfigError(cmd, err)
		return reportedError{err}
	}

	return simulate(cfg, cmd.OutOrStdout())
}

func reportConfigError(cmd *cobra.Command, err error) {
	msg := err.Error()
	if errors.Is(err, config.ErrMissingArgument) {
		msg = "Missing required command line argument"
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", cmd.Name(), msg)
	cmd.SetOut(cmd.ErrOrStderr())
	_ = cmd.Usage()
}

// run holds what is attached to one replay.
type run struct {
	cfg      config.Config
	cache    *cache.Comp
	replayer *trace.Replayer

	recorder     datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	dbTracer     *trace.DBTracer
	monitor      *monitoring.Monitor
	replayBar    *monitoring.ProgressBar
}

func simulate(cfg config.Config, out io.Writer) error {
	r := &run{cfg: cfg}

	traceFile, err := trace.Open(cfg.TracePath)
	if err != nil {
		return err
	}
	defer traceFile.Close()

	r.cache = cfg.BuildCache("Cache")
	r.replayer = trace.NewReplayer("Replayer", r.cache)

	if cfg.Verbose {
		r.replayer.AcceptHook(trace.NewLogTracer(log.New(out, "", 0)))
	}

	err = r.attachRecorder()
	if err != nil {
		return err
	}
	defer r.closeRecorder()

	err = r.attachMonitor(traceFile)
	if err != nil {
		return err
	}
	defer r.stopMonitor()

	stats, err := r.replayer.Replay(traceFile)
	if err != nil {
		return err
	}

	if r.replayBar != nil {
		r.monitor.CompleteProgressBar(r.replayBar)
	}

	if r.dbTracer != nil {
		r.dbTracer.RecordSummary(r.cache, stats)
	}

	return report.Report(out, cfg.ResultsFile, stats)
}

func (r *run) attachRecorder() error {
	if r.cfg.RecordPath == "" {
		return nil
	}

	recorder, err := datarecording.New(r.cfg.RecordPath)
	if err != nil {
		return err
	}

	r.recorder = recorder
	r.execRecorder = datarecording.NewExecRecorder(recorder)
	r.execRecorder.Start()
	r.dbTracer = trace.NewDBTracer(recorder)
	r.replayer.AcceptHook(r.dbTracer)

	return nil
}

func (r *run) closeRecorder() {
	if r.recorder == nil {
		return
	}

	r.execRecorder.End()

	err := r.recorder.Close()
	if err != nil {
		log.Printf("closing recording: %v", err)
	}
}

func (r *run) attachMonitor(traceFile *os.File) error {
	if !r.cfg.Monitor {
		return nil
	}

	var totalBytes uint64

	info, err := traceFile.Stat()
	if err == nil {
		totalBytes = uint64(info.Size())
	}

	r.monitor = monitoring.NewMonitor().WithPortNumber(r.cfg.MonitorPort)
	r.monitor.RegisterCache(r.cache)
	r.replayBar = r.monitor.RegisterReplayer(r.replayer, totalBytes)

	err = r.monitor.StartServer()
	if err != nil {
		return err
	}

	if r.cfg.OpenBrowser {
		err = r.monitor.OpenBrowser()
		if err != nil {
			log.Printf("opening browser: %v", err)
		}
	}

	return nil
}

func (r *run) stopMonitor() {
	if r.monitor == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := r.monitor.StopServer(ctx)
	if err != nil {
		log.Printf("stopping monitoring server: %v", err)
	}
}
