package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Statistics", func() {
	var stats Statistics

	BeforeEach(func() {
		stats = Statistics{}
	})

	It("should count a hit", func() {
		stats.Record(AccessResult{Hit: true})

		Expect(stats).To(Equal(Statistics{Hits: 1}))
	})

	It("should count a miss", func() {
		stats.Record(AccessResult{})

		Expect(stats).To(Equal(Statistics{Misses: 1}))
	})

	It("should count an eviction together with its miss", func() {
		stats.Record(AccessResult{Evicted: true})

		Expect(stats).To(Equal(Statistics{Misses: 1, Evictions: 1}))
	})

	It("should compute the hit rate", func() {
		Expect(stats.HitRate()).To(BeZero())

		stats.Record(AccessResult{Hit: true})
		stats.Record(AccessResult{Hit: true})
		stats.Record(AccessResult{Hit: true})
		stats.Record(AccessResult{})

		Expect(stats.Accesses()).To(Equal(uint64(4)))
		Expect(stats.HitRate()).To(BeNumerically("~", 0.75))
	})
})
