package qpvcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	qpvcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv"
)

var _ = Describe("NewQPVCmd", func() {
	It("registers every top level command", func() {
		cmd := qpvcmder.NewQPVCmd()

		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"auth", "config", "duplicates", "embeddings", "init", "search",
			"seed", "serve", "similarities", "version",
		))
	})

	It("carries the global flags", func() {
		cmd := qpvcmder.NewQPVCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
