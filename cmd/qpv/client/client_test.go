package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/client"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
)

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		lastReq  *http.Request
		lastBody []byte
		status   int
		reply    string
		c        *client.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		reply = `{}`

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastReq = r
			lastBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, reply)
		}))
		DeferCleanup(server.Close)

		var err error
		c, err = client.New(server.URL, "admin-secret")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("New", func() {
		It("rejects targets without an http scheme", func() {
			_, err := client.New("localhost:8081", "t")
			Expect(err).To(HaveOccurred())
		})

		It("requires a token when built from config", func() {
			_, err := client.FromConfig(config.NewDefaultConfig())
			Expect(err).To(MatchError(ContainSubstring("no API token")))
		})
	})

	Describe("ListDuplicates", func() {
		It("sends the bearer token and parameters", func() {
			reply = `{"duplicates":[{"pattern1":{"id":1,"file_name":"a","file_extension":"qli","author":null,"thumbnail_url":null},"pattern2":{"id":2,"file_name":"Unknown","file_extension":"","author":null,"thumbnail_url":null},"similarity":0.97}],"count":1,"threshold":0.9}`

			out, err := c.ListDuplicates(ctx, 0.9, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Count).To(Equal(1))
			Expect(out.Duplicates[0].Pattern2.FileName).To(Equal("Unknown"))

			Expect(lastReq.Method).To(Equal(http.MethodGet))
			Expect(lastReq.URL.Path).To(Equal("/v1/admin/duplicates"))
			Expect(lastReq.URL.Query().Get("threshold")).To(Equal("0.9"))
			Expect(lastReq.URL.Query().Get("limit")).To(Equal("10"))
			Expect(lastReq.Header.Get("Authorization")).To(Equal("Bearer admin-secret"))
			Expect(lastReq.Header.Get("User-Agent")).To(Equal(utils.UserAgent()))
		})

		It("keeps the path prefix of the api target", func() {
			prefixed, err := client.New(server.URL+"/qpv/", "admin-secret")
			Expect(err).NotTo(HaveOccurred())

			reply = `{"duplicates":[],"count":0,"threshold":0.95}`
			_, err = prefixed.ListDuplicates(ctx, 0.95, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(lastReq.URL.Path).To(Equal("/qpv/v1/admin/duplicates"))
		})

		It("surfaces the server error message", func() {
			status = http.StatusForbidden
			reply = `{"error":"admin access required"}`

			_, err := c.ListDuplicates(ctx, 0.95, 50)

			var apiErr *client.APIError
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			apiErr = err.(*client.APIError)
			Expect(apiErr.StatusCode).To(Equal(http.StatusForbidden))
			Expect(apiErr.Message).To(Equal("admin access required"))
		})

		It("falls back to the raw body for non-JSON errors", func() {
			status = http.StatusBadGateway
			reply = "upstream down"

			_, err := c.ListDuplicates(ctx, 0.95, 50)
			Expect(err).To(MatchError(ContainSubstring("HTTP 502: upstream down")))
		})
	})

	Describe("VerifyDuplicates", func() {
		It("posts both ids as JSON", func() {
			reply = `{"pattern_id_1":3,"pattern_id_2":8,"verification":{"is_duplicate":true,"confidence":"high","recommendation":"keep_first","reasoning":"same","quality_notes":{"pattern_1":"sharp","pattern_2":"blurry"}},"patterns":{"pattern_1":{"id":3},"pattern_2":{"id":8}}}`

			result, err := c.VerifyDuplicates(ctx, 3, 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Verification.IsDuplicate).To(BeTrue())
			Expect(string(result.Verification.Recommendation)).To(Equal("keep_first"))

			Expect(lastReq.Method).To(Equal(http.MethodPost))
			Expect(lastReq.URL.Path).To(Equal("/v1/admin/duplicates/verify"))
			Expect(lastReq.Header.Get("Content-Type")).To(Equal("application/json"))

			var body map[string]int64
			Expect(json.Unmarshal(lastBody, &body)).To(Succeed())
			Expect(body).To(Equal(map[string]int64{"pattern_id_1": 3, "pattern_id_2": 8}))
		})
	})

	Describe("DeletePattern", func() {
		It("accepts an empty 204 response", func() {
			status = http.StatusNoContent
			reply = ""

			Expect(c.DeletePattern(ctx, 42)).To(Succeed())
			Expect(lastReq.Method).To(Equal(http.MethodDelete))
			Expect(lastReq.URL.Path).To(Equal("/v1/admin/patterns/42"))
		})
	})

	Describe("SearchPatterns", func() {
		It("encodes the query", func() {
			reply = `{"query":"feather border","results":[],"count":0}`

			out, err := c.SearchPatterns(ctx, "feather border", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Query).To(Equal("feather border"))
			Expect(lastReq.URL.Query().Get("query")).To(Equal("feather border"))
			Expect(lastReq.URL.Query().Get("limit")).To(Equal("5"))
		})
	})
})

var _ = Describe("FromCommand", func() {
	var configDir string

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
	})

	newCmd := func(f *client.Flags) *cobra.Command {
		cmd := &cobra.Command{Use: "duplicates", RunE: func(*cobra.Command, []string) error { return nil }}
		cmd.Flags().String("config-dir", "", "")
		client.AddFlags(cmd, f)
		return cmd
	}

	It("uses flag values over config defaults", func() {
		var seen string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Authorization")
			_, _ = io.WriteString(w, `{"query":"q","results":[],"count":0}`)
		}))
		DeferCleanup(server.Close)

		f := &client.Flags{}
		cmd := newCmd(f)
		Expect(cmd.ParseFlags([]string{"--config-dir", configDir, "--api-target", server.URL, "--token", "flag-token"})).To(Succeed())

		c, err := client.FromCommand(cmd)
		Expect(err).NotTo(HaveOccurred())

		_, err = c.SearchPatterns(context.Background(), "q", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal("Bearer flag-token"))
	})

	It("fails without a token", func() {
		cmd := newCmd(&client.Flags{})
		Expect(cmd.ParseFlags([]string{"--config-dir", configDir})).To(Succeed())

		_, err := client.FromCommand(cmd)
		Expect(err).To(MatchError(ContainSubstring("no API token")))
	})
})
