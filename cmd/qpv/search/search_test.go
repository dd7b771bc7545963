package searchcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/mbuckingham74/quilting-patterns-viewer/api/search"
	searchcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/search"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
)

var _ = Describe("Print", func() {
	author := "Ann"
	output := &apisearch.Output{
		Query: "feather",
		Results: []patterns.SearchResult{
			{Summary: patterns.Summary{ID: 12, FileName: "feather", FileExtension: "qli", Author: &author}, Score: 0.91},
			{Summary: patterns.Summary{ID: 40, FileName: "plume"}, Score: 0.74},
		},
		Count: 2,
	}

	It("prints only ids in quiet mode", func() {
		var buf bytes.Buffer
		searchcmder.Print(&buf, output, true)
		Expect(buf.String()).To(Equal("12\n40\n"))
	})

	It("prints ranked results", func() {
		var buf bytes.Buffer
		searchcmder.Print(&buf, output, false)
		Expect(buf.String()).To(ContainSubstring("feather.qli"))
		Expect(buf.String()).To(ContainSubstring("score: 0.9100"))
		Expect(buf.String()).To(ContainSubstring("by Ann"))
	})

	It("reports empty results unless quiet", func() {
		empty := &apisearch.Output{Query: "none", Results: []patterns.SearchResult{}}

		var buf bytes.Buffer
		searchcmder.Print(&buf, empty, false)
		Expect(buf.String()).To(Equal("No results found.\n"))

		buf.Reset()
		searchcmder.Print(&buf, empty, true)
		Expect(buf.String()).To(BeEmpty())
	})
})

var _ = Describe("NewSearchCmd", func() {
	It("requires a query", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
	})

	It("rejects an out of range limit", func() {
		cmd := searchcmder.NewSearchCmd()
		cmd.SetArgs([]string{"feather", "--limit", "500"})
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("--limit")))
	})
})
