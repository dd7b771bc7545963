package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	It("returns short names unchanged", func() {
		Expect(Truncate("feather", 10)).To(Equal("feather"))
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("cuts long names and marks the cut", func() {
		Expect(Truncate("continuous feather border", 10)).To(Equal("continuous..."))
	})

	It("counts runes rather than bytes", func() {
		Expect(Truncate("étoile", 6)).To(Equal("étoile"))
		Expect(Truncate("étoile filante", 6)).To(Equal("étoile..."))
		Expect(Truncate("日本の桜模様", 3)).To(Equal("日本の..."))
	})
})

var _ = Describe("UserAgent", func() {
	It("carries the build version", func() {
		Expect(UserAgent()).To(Equal("qpv/" + Version))
	})
})
