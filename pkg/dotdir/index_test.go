package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/dotdir"
)

var _ = Describe("dotdir.Manager index state", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-index-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns nil when the index was never built", func() {
		state, err := m.LoadIndexState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("round-trips a saved state", func() {
		computed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		Expect(m.SaveIndexState(&dotdir.IndexState{
			ComputedAt:    computed,
			Store:         "postgres",
			Patterns:      1200,
			Pairs:         87,
			MinSimilarity: 0.85,
		}, tmpDir)).To(Succeed())

		state, err := m.LoadIndexState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state.ComputedAt.Equal(computed)).To(BeTrue())
		Expect(state.Store).To(Equal("postgres"))
		Expect(state.Pairs).To(Equal(87))
	})

	It("rejects nil state", func() {
		Expect(m.SaveIndexState(nil, tmpDir)).To(HaveOccurred())
	})

	It("returns error for invalid JSON", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "similarity_index.json"), []byte("not json"), 0o600)).To(Succeed())

		state, err := m.LoadIndexState(tmpDir)
		Expect(err).To(HaveOccurred())
		Expect(state).To(BeNil())
	})
})
