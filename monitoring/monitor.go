// Package monitoring turns a trace replay into a web server that reports the
// progress and the statistics while the replay runs.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/mem/trace"
	"github.com/sarchlab/csim/monitoring/web"
	"github.com/sarchlab/csim/sim/hooking"
	"github.com/sarchlab/csim/sim/id"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

type cacheConfig struct {
	Name          string `json:"name"`
	NumSets       int    `json:"num_sets"`
	NumWays       int    `json:"num_ways"`
	BlockSize     uint64 `json:"block_size"`
	Log2NumSets   int    `json:"set_index_bits"`
	Log2BlockSize int    `json:"block_offset_bits"`
}

type statsRsp struct {
	cache.Statistics
	Accesses uint64  `json:"accesses"`
	HitRate  float64 `json:"hit_rate"`
}

// Monitor can turn a replay into a server and allows external monitoring.
type Monitor struct {
	portNumber      int
	profileDuration time.Duration
	idGenerator     id.IDGenerator

	cache  *cache.Comp
	config cacheConfig

	statsLock sync.Mutex
	stats     cache.Statistics

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	replayBar        *ProgressBar

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
		idGenerator:     id.NewGlobalIDGenerator(),
	}
}

// WithPortNumber sets the port number of the monitor. Port numbers below 1000
// are replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterCache registers the cache whose geometry is reported.
func (m *Monitor) RegisterCache(c *cache.Comp) {
	m.cache = c

	d := c.Decoder()
	m.config = cacheConfig{
		Name:          c.Name(),
		NumSets:       c.NumSets(),
		NumWays:       c.NumWays(),
		BlockSize:     c.BlockSize(),
		Log2NumSets:   d.Log2NumSets,
		Log2BlockSize: d.Log2BlockSize,
	}
}

// RegisterReplayer hooks the monitor to a replayer. totalBytes is the size of
// the trace and is used as the total of the progress bar, which is returned
// so that it can be completed when the replay ends.
func (m *Monitor) RegisterReplayer(
	r *trace.Replayer,
	totalBytes uint64,
) *ProgressBar {
	m.replayBar = m.CreateProgressBar(r.Name(), totalBytes)
	r.AcceptHook(m)

	return m.replayBar
}

// Func keeps the progress and the statistics up to date. It is invoked by the
// replayer.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case trace.HookPosProgress:
		if m.replayBar != nil {
			m.replayBar.SetFinished(ctx.Item.(uint64))
		}
	case trace.HookPosRecord:
		rr := ctx.Item.(trace.RecordResult)

		m.statsLock.Lock()
		for _, result := range rr.Results {
			m.stats.Record(result)
		}
		m.statsLock.Unlock()
	}
}

// Statistics returns the statistics observed so far.
func (m *Monitor) Statistics() cache.Statistics {
	m.statsLock.Lock()
	defer m.statsLock.Unlock()

	return m.stats
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGenerator.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/config", m.listConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", m.listStats).Methods(http.MethodGet)
	r.HandleFunc("/api/cache", m.describeCache).Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.portNumber))
	if err != nil {
		return err
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring replay with %s\n", m.URL())

	go func() {
		err := m.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			log.Printf("monitoring server stopped: %v", err)
		}
	}()

	return nil
}

// URL returns the address of the running server.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	port := m.listener.Addr().(*net.TCPAddr).Port

	return fmt.Sprintf("http://localhost:%d", port)
}

// OpenBrowser opens the monitoring page in the default browser.
func (m *Monitor) OpenBrowser() error {
	return browser.OpenURL(m.URL())
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) listConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.config)
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	stats := m.Statistics()

	writeJSON(w, statsRsp{
		Statistics: stats,
		Accesses:   stats.Accesses(),
		HitRate:    stats.HitRate(),
	})
}

func (m *Monitor) describeCache(w http.ResponseWriter, _ *http.Request) {
	if m.cache == nil {
		http.Error(w, "no cache registered", http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.cache)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	states := make([]progressBarState, 0, len(m.progressBars))
	for _, bar := range m.progressBars {
		states = append(states, bar.state())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, states)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(data)
	if err != nil {
		log.Printf("monitoring: failed to write response: %v", err)
	}
}
