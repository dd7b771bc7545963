package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/embeddings/ollama"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		received map[string]any
		status   int
		reply    string
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		reply = `{"embeddings": [[0.5, 0.25, 0.125]]}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/embed"))
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("prefixes queries for the default model", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		vec, err := e.Embed(context.Background(), "feather border")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.5, 0.25, 0.125}))
		Expect(received["model"]).To(Equal(ollama.DefaultEmbeddingModel))
		Expect(received["input"]).To(Equal("search_query: feather border"))
		Expect(received).NotTo(HaveKey("dimensions"))
	})

	It("sends text unchanged for other models and passes dimensions", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL, Model: "all-minilm", Dimensions: 256})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "swirl")
		Expect(err).NotTo(HaveOccurred())
		Expect(received["input"]).To(Equal("swirl"))
		Expect(received["dimensions"]).To(BeNumerically("==", 256))
	})

	It("wraps non-200 responses in ErrEmbedding", func() {
		status = http.StatusInternalServerError
		reply = `{"error": "model not loaded"}`
		e, _ := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})

		_, err := e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("model not loaded"))
	})

	It("fails on empty results", func() {
		reply = `{"embeddings": []}`
		e, _ := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})

		_, err := e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})
