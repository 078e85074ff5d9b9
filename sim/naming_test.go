package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Naming", func() {
	It("should parse name", func() {
		name := ParseName("Mesh[0].Router[3]")
		Expect(name.Tokens[0].ElemName).To(Equal("Mesh"))
		Expect(name.Tokens[0].Index).To(Equal([]int{0}))
		Expect(name.Tokens[1].ElemName).To(Equal("Router"))
		Expect(name.Tokens[1].Index).To(Equal([]int{3}))
	})

	It("should parse multi-dimensional index", func() {
		name := ParseName("Router[1][2]")
		Expect(name.Tokens[0].Index).To(Equal([]int{1, 2}))
	})

	It("should panic on invalid names", func() {
		Expect(func() { NameMustBeValid("") }).To(Panic())
		Expect(func() { NameMustBeValid("Router_0") }).To(Panic())
		Expect(func() { NameMustBeValid("Router-0") }).To(Panic())
		Expect(func() { NameMustBeValid("router") }).To(Panic())
		Expect(func() { NameMustBeValid("Network..Router") }).To(Panic())
		Expect(func() { NameMustBeValid("Router[0") }).To(Panic())
		Expect(func() { NameMustBeValid("Router[a]") }).To(Panic())
	})

	It("should accept valid names", func() {
		Expect(func() { NameMustBeValid("Network.Router[12].InBuf[0]") }).
			NotTo(Panic())
	})

	It("should build names", func() {
		Expect(BuildName("", "Network")).To(Equal("Network"))
		Expect(BuildName("Network", "Router")).To(Equal("Network.Router"))
		Expect(BuildNameWithIndex("Network", "Router", 4)).
			To(Equal("Network.Router[4]"))
	})
})
