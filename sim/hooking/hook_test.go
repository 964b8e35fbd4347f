package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleHookable struct {
	HookableBase
}

func (s *sampleHookable) Name() string {
	return "Sample"
}

var _ = Describe("HookableBase", func() {
	var (
		domain *sampleHookable
		pos    *HookPos
	)

	BeforeEach(func() {
		domain = &sampleHookable{}
		pos = &HookPos{Name: "Sample"}
	})

	It("should invoke hooks in order", func() {
		var order []string

		first := NewHookFunc(func(ctx HookCtx) {
			order = append(order, "first:"+ctx.Item.(string))
		})
		second := NewHookFunc(func(ctx HookCtx) {
			order = append(order, "second:"+ctx.Domain.Name())
		})

		domain.AcceptHook(first)
		domain.AcceptHook(second)
		domain.InvokeHook(HookCtx{Domain: domain, Pos: pos, Item: "x"})

		Expect(domain.NumHooks()).To(Equal(2))
		Expect(domain.Hooks()).To(Equal([]Hook{first, second}))
		Expect(order).To(Equal([]string{"first:x", "second:Sample"}))
	})

	It("should panic on duplicated hook", func() {
		hook := NewHookFunc(func(HookCtx) {})

		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
	})

	It("should do nothing without hooks", func() {
		Expect(func() {
			domain.InvokeHook(HookCtx{Domain: domain, Pos: pos})
		}).NotTo(Panic())
	})
})
