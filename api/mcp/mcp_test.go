package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mbuckingham74/quilting-patterns-viewer/api/mcp"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/logger"
	testutils "github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils/test"
)

var _ = Describe("MCP Server", func() {
	var (
		driver   *testutils.MockPatternDriver
		embedder *testutils.MockEmbedder
	)

	BeforeEach(func() {
		driver = testutils.NewMockPatternDriver()
		embedder = testutils.NewMockEmbedder()
	})

	Describe("NewServer", func() {
		It("returns an error when the pattern driver is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Embedder: embedder,
				Logger:   logger.Nop(),
			})
			Expect(err).To(MatchError(ContainSubstring("pattern driver is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Driver: driver,
			})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates a server without an embedder", func() {
			server, err := mcp.NewServer(mcp.Config{
				Driver: driver,
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("creates a noop server without dependencies", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})
})
