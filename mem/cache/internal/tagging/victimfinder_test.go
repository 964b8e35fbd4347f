package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LRUVictimFinder", func() {
	var (
		finder *LRUVictimFinder
		set    *Set
	)

	BeforeEach(func() {
		finder = NewLRUVictimFinder()
		set = &Set{
			Blocks: []Block{
				{WayID: 0, IsValid: true, Age: 1},
				{WayID: 1, IsValid: true, Age: 4},
				{WayID: 2, IsValid: true, Age: 2},
				{WayID: 3, IsValid: true, Age: 0},
			},
		}
	})

	It("should pick the oldest block", func() {
		Expect(finder.FindVictim(set).WayID).To(Equal(1))
	})

	It("should prefer the first invalid block", func() {
		set.Blocks[2].IsValid = false
		set.Blocks[3].IsValid = false

		Expect(finder.FindVictim(set).WayID).To(Equal(2))
	})

	It("should prefer an invalid block over an old one", func() {
		set.Blocks[3].IsValid = false

		Expect(finder.FindVictim(set).WayID).To(Equal(3))
	})

	It("should break ties with the lowest way", func() {
		set.Blocks[0].Age = 4
		set.Blocks[2].Age = 4

		Expect(finder.FindVictim(set).WayID).To(Equal(0))
	})

	It("should handle a direct-mapped set", func() {
		single := &Set{Blocks: []Block{{WayID: 0, IsValid: true, Age: 9}}}

		Expect(finder.FindVictim(single).WayID).To(Equal(0))
	})
})
