package authcmder_test

import (
	"bytes"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	authcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/auth"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/credentials"
)

var _ = Describe("Auth Command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "qpv-auth-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	newCmd := func(args ...string) *cobra.Command {
		cmd := authcmder.NewAuthCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.PersistentFlags().String("config-dir", "", "Override path to .qpv/ config directory")
		cmd.SetArgs(args)
		return cmd
	}

	Describe("NewAuthCmd", func() {
		It("creates a command with expected properties", func() {
			cmd := authcmder.NewAuthCmd()
			Expect(cmd.Use).To(Equal("auth [provider]"))
			Expect(cmd.Short).NotTo(BeEmpty())
			Expect(cmd.Flags().Lookup("list")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("remove")).NotTo(BeNil())
		})
	})

	Describe("storing a key", func() {
		It("reads the key from piped input", func() {
			cmd := newCmd("anthropic", "--config-dir", tmpDir)
			cmd.SetIn(bytes.NewBufferString("  sk-ant-test  \n"))
			Expect(cmd.Execute()).To(Succeed())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			key, err := mgr.GetKey(credentials.ProviderAnthropic)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-ant-test"))
		})

		It("normalizes the provider name", func() {
			cmd := newCmd("Voyage", "--config-dir", tmpDir)
			cmd.SetIn(bytes.NewBufferString("pa-test\n"))
			Expect(cmd.Execute()).To(Succeed())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			key, err := mgr.GetKey(credentials.ProviderVoyage)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("pa-test"))
		})

		It("rejects an empty key", func() {
			cmd := newCmd("anthropic", "--config-dir", tmpDir)
			cmd.SetIn(bytes.NewBufferString("   \n"))
			Expect(cmd.Execute()).To(MatchError(ContainSubstring("cannot be empty")))
		})

		It("fails when no input arrives", func() {
			cmd := newCmd("anthropic", "--config-dir", tmpDir)
			cmd.SetIn(&bytes.Buffer{})
			Expect(cmd.Execute()).To(MatchError(ContainSubstring("no input received")))
		})
	})

	Describe("--list flag", func() {
		It("shows no credentials when none stored", func() {
			Expect(newCmd("--list", "--config-dir", tmpDir).Execute()).To(Succeed())
		})

		It("lists stored credentials", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.SetKey(credentials.ProviderVoyage, "pa-test")).To(Succeed())

			Expect(newCmd("--list", "--config-dir", tmpDir).Execute()).To(Succeed())
		})
	})

	Describe("--remove flag", func() {
		It("removes stored credentials", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.SetKey(credentials.ProviderAnthropic, "sk-ant-test")).To(Succeed())

			Expect(newCmd("--remove", "anthropic", "--config-dir", tmpDir).Execute()).To(Succeed())

			key, err := mgr.GetKey(credentials.ProviderAnthropic)
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
		})
	})

	Describe("provider argument validation", func() {
		It("returns error when no provider given", func() {
			err := newCmd().Execute()
			Expect(err).To(MatchError(ContainSubstring("provider argument required")))
		})

		It("returns error for unsupported provider", func() {
			cmd := newCmd("openai", "--config-dir", tmpDir)
			cmd.SetIn(bytes.NewBufferString("sk-test\n"))
			Expect(cmd.Execute()).To(MatchError(ContainSubstring("unsupported provider")))
		})
	})

	Describe("shell completion", func() {
		It("provides provider name completions", func() {
			cmd := authcmder.NewAuthCmd()
			completions, directive := cmd.ValidArgsFunction(cmd, []string{}, "")
			Expect(completions).To(ConsistOf("anthropic", "voyage"))
			Expect(directive).To(Equal(cobra.ShellCompDirectiveNoFileComp))
		})

		It("provides no completions after first arg", func() {
			cmd := authcmder.NewAuthCmd()
			completions, directive := cmd.ValidArgsFunction(cmd, []string{"anthropic"}, "")
			Expect(completions).To(BeNil())
			Expect(directive).To(Equal(cobra.ShellCompDirectiveNoFileComp))
		})
	})
})
