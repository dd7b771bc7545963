package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("reports success with a check mark", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "Computing pairs", func() error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("Computing pairs"))
		Expect(buf.String()).To(ContainSubstring("✓"))
	})

	It("returns the step error and marks failure", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")
		err := cliui.Step(&buf, "Writing index", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("✗"))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(250 * time.Millisecond)).To(Equal("250ms"))
	})

	It("uses seconds above a second", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("RenderMarkdown", func() {
	It("renders table content", func() {
		out, err := cliui.RenderMarkdown("| a | b |\n|---|---|\n| feathers | 0.97 |\n", 60)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("feathers"))
	})
})
