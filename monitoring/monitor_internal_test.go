package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/mem/trace"
)

var _ = Describe("Monitor", func() {
	var (
		m        *Monitor
		c        *cache.Comp
		replayer *trace.Replayer
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		m.router().ServeHTTP(rec, req)

		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, v any) {
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	BeforeEach(func() {
		m = NewMonitor()
		m.profileDuration = 10 * time.Millisecond

		c = cache.MakeBuilder().
			WithLog2NumSets(4).
			WithWayAssociativity(2).
			WithLog2BlockSize(4).
			Build("Cache")
		replayer = trace.NewReplayer("Replayer", c)

		m.RegisterCache(c)
	})

	It("should replace a reserved port with a random one", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should report the cache geometry", func() {
		var config map[string]any
		decode(get("/api/config"), &config)

		Expect(config).To(HaveKeyWithValue("name", "Cache"))
		Expect(config).To(HaveKeyWithValue("num_sets", BeNumerically("==", 16)))
		Expect(config).To(HaveKeyWithValue("num_ways", BeNumerically("==", 2)))
		Expect(config).To(HaveKeyWithValue("block_size", BeNumerically("==", 16)))
	})

	It("should follow the statistics and progress of a replay", func() {
		input := " L 10,1\n M 20,1\n"
		m.RegisterReplayer(replayer, uint64(len(input)))

		stats, err := replayer.Replay(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Statistics()).To(Equal(stats))

		var rsp map[string]any
		decode(get("/api/stats"), &rsp)
		Expect(rsp).To(HaveKeyWithValue("hits", BeNumerically("==", 1)))
		Expect(rsp).To(HaveKeyWithValue("misses", BeNumerically("==", 2)))
		Expect(rsp).To(HaveKeyWithValue("evictions", BeNumerically("==", 0)))
		Expect(rsp).To(HaveKeyWithValue("accesses", BeNumerically("==", 3)))

		var bars []progressBarState
		decode(get("/api/progress"), &bars)
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Replayer"))
		Expect(bars[0].Finished).To(Equal(uint64(len(input))))
		Expect(bars[0].Total).To(Equal(uint64(len(input))))
	})

	It("should remove completed progress bars", func() {
		other := m.CreateProgressBar("Other", 10)
		bar := m.RegisterReplayer(replayer, 8)

		_, err := replayer.Replay(strings.NewReader(" L 10,1\n"))
		Expect(err).NotTo(HaveOccurred())
		m.CompleteProgressBar(bar)

		var remaining []progressBarState
		decode(get("/api/progress"), &remaining)
		Expect(remaining).To(HaveLen(1))
		Expect(remaining[0].Name).To(Equal("Other"))

		m.CompleteProgressBar(other)

		var bars []progressBarState
		decode(get("/api/progress"), &bars)
		Expect(bars).To(BeEmpty())
	})

	It("should describe the cache", func() {
		rec := get("/api/cache")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should report resources", func() {
		var rsp resourceRsp
		decode(get("/api/resource"), &rsp)

		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a profile", func() {
		rec := get("/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should serve the web page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should start and stop the server", func() {
		Expect(m.URL()).To(BeEmpty())

		Expect(m.StartServer()).To(Succeed())
		Expect(m.URL()).To(HavePrefix("http://localhost:"))

		rsp, err := http.Get(m.URL() + "/api/config")
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))

		Expect(m.StopServer(context.Background())).To(Succeed())
	})
})
