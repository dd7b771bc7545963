package thumbnail_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/thumbnail"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image-data")

var _ = Describe("Fetcher", func() {
	var (
		server  *httptest.Server
		other   *httptest.Server
		fetcher *thumbnail.Fetcher
		ctx     context.Context
		base    string
		agent   string
	)

	BeforeEach(func() {
		ctx = context.Background()

		other = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBytes)
		}))

		mux := http.NewServeMux()
		mux.HandleFunc("/thumbnails/1.png", func(w http.ResponseWriter, r *http.Request) {
			agent = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBytes)
		})
		mux.HandleFunc("/thumbnails/2.png", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		mux.HandleFunc("/thumbnails/3.png", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		})
		mux.HandleFunc("/thumbnails/4.png", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		})
		mux.HandleFunc("/thumbnails/5.png", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, other.URL+"/thumbnails/5.png", http.StatusFound)
		})
		mux.HandleFunc("/thumbnails/6.png", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/thumbnails/6.jpg", http.StatusFound)
		})
		mux.HandleFunc("/thumbnails/6.jpg", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg; charset=binary")
			_, _ = w.Write(pngBytes)
		})
		server = httptest.NewServer(mux)

		u, err := url.Parse(server.URL)
		Expect(err).NotTo(HaveOccurred())
		base = server.URL + "/thumbnails/"

		guard, err := thumbnail.NewGuard(thumbnail.GuardConfig{
			AllowedHosts:  []string{u.Host},
			PathPrefix:    "/thumbnails/",
			AllowInsecure: true,
		})
		Expect(err).NotTo(HaveOccurred())

		fetcher = thumbnail.NewFetcher(guard, thumbnail.FetcherConfig{MaxBytes: 32})
	})

	AfterEach(func() {
		server.Close()
		other.Close()
	})

	It("downloads an allowed image", func() {
		img, err := fetcher.Fetch(ctx, 1, base+"1.png")
		Expect(err).NotTo(HaveOccurred())
		Expect(img.PatternID).To(Equal(int64(1)))
		Expect(img.MediaType).To(Equal("image/png"))
		Expect(img.Data).To(Equal(pngBytes))
		Expect(agent).To(Equal(utils.UserAgent()))
	})

	It("rejects urls before making a request", func() {
		_, err := fetcher.Fetch(ctx, 1, other.URL+"/thumbnails/1.png")
		Expect(err).To(MatchError(thumbnail.ErrRejected))
	})

	It("fails on non-200 responses", func() {
		_, err := fetcher.Fetch(ctx, 2, base+"2.png")
		Expect(err).To(MatchError(thumbnail.ErrDownload))
	})

	It("fails on non-image content types", func() {
		_, err := fetcher.Fetch(ctx, 3, base+"3.png")
		Expect(err).To(MatchError(thumbnail.ErrDownload))
		Expect(err.Error()).To(ContainSubstring("unsupported content type"))
	})

	It("fails when the body exceeds the size cap", func() {
		_, err := fetcher.Fetch(ctx, 4, base+"4.png")
		Expect(err).To(MatchError(thumbnail.ErrDownload))
		Expect(err.Error()).To(ContainSubstring("exceeds 32 bytes"))
	})

	It("refuses redirects to hosts outside the allow-list", func() {
		_, err := fetcher.Fetch(ctx, 5, base+"5.png")
		Expect(err).To(MatchError(thumbnail.ErrRejected))
	})

	It("follows redirects that pass the guard", func() {
		img, err := fetcher.Fetch(ctx, 6, base+"6.png")
		Expect(err).NotTo(HaveOccurred())
		Expect(img.MediaType).To(Equal("image/jpeg"))
	})
})
