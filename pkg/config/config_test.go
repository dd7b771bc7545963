package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			data := `version = 0

[storage]
driver = "postgres"
postgres_dsn = "postgres://db/qpv"

[api]
listen = ":9091"

[client]
api_target = "http://myhost:9091"
token = "client-token"

[[auth.tokens]]
token = "admin-token"
user_id = "u-1"
is_admin = true

[verifier]
provider = "anthropic"
model = "claude-test"
max_tokens = 512

[thumbnails]
allowed_hosts = ["cdn.example.com"]
path_prefix = "/thumbs/"
max_bytes = 2048

[embedding]
provider = "ollama"
target = "http://localhost:11434"
model = "nomic-embed-text"
dimensions = 768

[activity]
provider = "kafka"
brokers = ["k1:9092", "k2:9092"]
topic = "custom.topic"

[mcp]
enabled = false
`
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Driver).To(Equal("postgres"))
			Expect(cfg.Storage.PostgresDSN).To(Equal("postgres://db/qpv"))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Client.APITarget).To(Equal("http://myhost:9091"))
			Expect(cfg.Client.Token).To(Equal("client-token"))
			Expect(cfg.Auth.Tokens).To(HaveLen(1))
			Expect(cfg.Auth.Tokens[0].UserID).To(Equal("u-1"))
			Expect(cfg.Auth.Tokens[0].IsAdmin).To(BeTrue())
			Expect(cfg.Verifier.Model).To(Equal("claude-test"))
			Expect(cfg.Verifier.MaxTokens).To(Equal(uint(512)))
			Expect(cfg.Thumbnails.AllowedHosts).To(Equal([]string{"cdn.example.com"}))
			Expect(cfg.Thumbnails.PathPrefix).To(Equal("/thumbs/"))
			Expect(cfg.Thumbnails.MaxBytes).To(Equal(uint(2048)))
			Expect(cfg.Embedding.Provider).To(Equal("ollama"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
			Expect(cfg.Activity.Brokers).To(Equal([]string{"k1:9092", "k2:9092"}))
			Expect(cfg.Activity.Topic).To(Equal("custom.topic"))
			Expect(cfg.MCP.Enabled).To(BeFalse())
		})

		It("fills unset fields with defaults", func() {
			data := `[storage]
driver = "sqlite"
sqlite_path = "/tmp/qpv.sqlite"
`
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Storage.SQLitePath).To(Equal("/tmp/qpv.sqlite"))
			Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
			Expect(cfg.Verifier.Model).To(Equal(defaults.Verifier.Model))
			Expect(cfg.Thumbnails.PathPrefix).To(Equal(defaults.Thumbnails.PathPrefix))
			Expect(cfg.Thumbnails.MaxBytes).To(Equal(defaults.Thumbnails.MaxBytes))
			Expect(cfg.Embedding.Model).To(Equal(defaults.Embedding.Model))
			Expect(cfg.Activity.Topic).To(Equal(defaults.Activity.Topic))
		})

		It("returns error for malformed TOML", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid toml [[["), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})

		It("rejects an unsupported version", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 7\n"), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version 7")))
		})
	})

	Describe("SaveConfig", func() {
		It("returns an error for a nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(MatchError("cannot save nil config"))
		})

		It("round-trips through LoadConfig", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := config.PresetConfig("hosted")
			Expect(err).NotTo(HaveOccurred())
			cfg.MCP.Enabled = false
			Expect(c.SaveConfig(cfg)).To(Succeed())

			info, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets and reads back a string key", func() {
			Expect(c.SetConfigValue("storage.driver", "sqlite")).To(Succeed())

			value, err := c.GetConfigValue("storage.driver")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("sqlite"))
		})

		It("parses uint keys", func() {
			Expect(c.SetConfigValue("embedding.dimensions", "768")).To(Succeed())

			value, err := c.GetConfigValue("embedding.dimensions")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("768"))
		})

		It("rejects non-numeric uint values", func() {
			err := c.SetConfigValue("verifier.max_tokens", "lots")
			Expect(err).To(MatchError(ContainSubstring("invalid value for verifier.max_tokens")))
		})

		It("parses bool keys", func() {
			Expect(c.SetConfigValue("mcp.enabled", "false")).To(Succeed())

			value, err := c.GetConfigValue("mcp.enabled")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("false"))
		})

		It("splits list keys on commas", func() {
			Expect(c.SetConfigValue("thumbnails.allowed_hosts", "a.example.com, b.example.com,")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Thumbnails.AllowedHosts).To(Equal([]string{"a.example.com", "b.example.com"}))

			value, err := c.GetConfigValue("thumbnails.allowed_hosts")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("a.example.com,b.example.com"))
		})

		It("rejects unknown keys", func() {
			Expect(c.SetConfigValue("proxy.upstream", "x")).To(MatchError(ContainSubstring("unknown config key")))
			_, err := c.GetConfigValue("auth.tokens")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("lists every key in TOML order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys[0]).To(Equal("storage.driver"))
		Expect(keys[len(keys)-1]).To(Equal("mcp.enabled"))
		for _, k := range keys {
			Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
		}
	})

	It("does not expose auth tokens", func() {
		Expect(config.ValidConfigKeys()).NotTo(ContainElement(HavePrefix("auth.")))
	})
})

var _ = Describe("PresetConfig", func() {
	It("configures sqlite and ollama for local", func() {
		cfg, err := config.PresetConfig("local")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Driver).To(Equal(config.DriverSQLite))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
	})

	It("configures postgres and kafka for hosted", func() {
		cfg, err := config.PresetConfig("HOSTED")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Driver).To(Equal(config.DriverPostgres))
		Expect(cfg.Activity.Provider).To(Equal("kafka"))
		Expect(cfg.Activity.Topic).To(Equal(config.NewDefaultConfig().Activity.Topic))
	})

	It("rejects unknown presets", func() {
		_, err := config.PresetConfig("cloud")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})

	It("names every preset", func() {
		for _, name := range config.ValidPresetNames() {
			_, err := config.PresetConfig(name)
			Expect(err).NotTo(HaveOccurred())
		}
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("storage.driver")).To(Equal(defaults.Storage.Driver))
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
		Expect(v.GetString("verifier.model")).To(Equal(defaults.Verifier.Model))
		Expect(v.GetBool("mcp.enabled")).To(BeTrue())
	})

	It("reads config file values over defaults", func() {
		data := `[api]
listen = ":6000"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":6000"))
		Expect(v.GetString("storage.driver")).To(Equal(config.DriverInMemory))
	})

	It("env vars take precedence over config file values", func() {
		data := `[storage]
driver = "sqlite"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		os.Setenv("QPV_STORAGE_DRIVER", "postgres")
		defer os.Unsetenv("QPV_STORAGE_DRIVER")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("storage.driver")).To(Equal("postgres"))
	})
})

var _ = Describe("FromViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "fromviper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("decodes defaults", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(cfg.Storage).To(Equal(defaults.Storage))
		Expect(cfg.Verifier).To(Equal(defaults.Verifier))
		Expect(cfg.Thumbnails.AllowedHosts).To(BeEmpty())
		Expect(cfg.MCP.Enabled).To(BeTrue())
	})

	It("decodes auth tokens from the config file", func() {
		data := `[[auth.tokens]]
token = "secret"
user_id = "admin-1"
is_admin = true

[[auth.tokens]]
token = "other"
user_id = "user-2"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Auth.Tokens).To(HaveLen(2))
		Expect(cfg.Auth.Tokens[0].Token).To(Equal("secret"))
		Expect(cfg.Auth.Tokens[0].IsAdmin).To(BeTrue())
		Expect(cfg.Auth.Tokens[1].IsAdmin).To(BeFalse())
	})

	It("splits comma-separated env lists", func() {
		os.Setenv("QPV_THUMBNAILS_ALLOWED_HOSTS", "a.example.com,b.example.com")
		defer os.Unsetenv("QPV_THUMBNAILS_ALLOWED_HOSTS")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Thumbnails.AllowedHosts).To(Equal([]string{"a.example.com", "b.example.com"}))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)

		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		data := `[api]
listen = ":5555"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("api.listen")).To(Equal(config.NewDefaultConfig().API.Listen))
	})

	It("AddStringFlag pulls name, shorthand, and default from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &target)

		f := cmd.Flags().Lookup("api-target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("a"))
		Expect(f.DefValue).To(Equal(config.NewDefaultConfig().Client.APITarget))
	})

	It("AddUintFlag and AddBoolFlag use registry defaults", func() {
		cmd := &cobra.Command{Use: "test"}
		var dims uint
		var mcp bool
		config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &dims)
		config.AddBoolFlag(cmd, config.Flags, config.FlagMCPEnabled, &mcp)

		Expect(dims).To(Equal(config.NewDefaultConfig().Embedding.Dimensions))
		Expect(mcp).To(BeTrue())
	})

	It("AddStringSliceFlag binds list values", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var brokers []string
		config.AddStringSliceFlag(cmd, config.Flags, config.FlagKafkaBrokers, &brokers)
		Expect(cmd.Flags().Set("kafka-brokers", "k1:9092,k2:9092")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagKafkaBrokers})

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Activity.Brokers).To(Equal([]string{"k1:9092", "k2:9092"}))
	})
})
