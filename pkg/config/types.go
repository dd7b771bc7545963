package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/auth"
)

// Config represents the persistent qpv configuration stored as config.toml
// in the .qpv/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Storage    StorageConfig    `toml:"storage"`
	API        APIConfig        `toml:"api"`
	Client     ClientConfig     `toml:"client"`
	Auth       AuthConfig       `toml:"auth"`
	Verifier   VerifierConfig   `toml:"verifier"`
	Thumbnails ThumbnailsConfig `toml:"thumbnails"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Activity   ActivityConfig   `toml:"activity"`
	MCP        MCPConfig        `toml:"mcp"`
}

// StorageConfig selects and configures the pattern store.
type StorageConfig struct {
	// Driver is one of "postgres", "sqlite" or "inmemory".
	Driver      string `toml:"driver,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that call a running API
// server (qpv duplicates, qpv search). APITarget is a full URL.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
	Token     string `toml:"token,omitempty"`
}

// AuthConfig lists the bearer tokens the API server accepts. Tokens are
// edited in config.toml directly; they are not exposed through config set.
type AuthConfig struct {
	Tokens []auth.Token `toml:"tokens,omitempty"`
}

// VerifierConfig configures the vision model used for duplicate verification.
// The API key is resolved through pkg/credentials.
type VerifierConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Model     string `toml:"model,omitempty"`
	MaxTokens uint   `toml:"max_tokens,omitempty"`
}

// ThumbnailsConfig is the allow-list the thumbnail fetcher enforces.
type ThumbnailsConfig struct {
	AllowedHosts  []string `toml:"allowed_hosts,omitempty"`
	PathPrefix    string   `toml:"path_prefix,omitempty"`
	AllowInsecure bool     `toml:"allow_insecure,omitempty"`
	MaxBytes      uint     `toml:"max_bytes,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// ActivityConfig selects where admin activity events are published.
type ActivityConfig struct {
	// Provider is "nop" or "kafka".
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// MCPConfig toggles the MCP endpoint on the API server.
type MCPConfig struct {
	Enabled bool `toml:"enabled"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// listKey exposes a string slice as a comma-separated value.
func listKey(field func(c *Config) *[]string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strings.Join(*field(c), ",") },
		set: func(c *Config, v string) error {
			*field(c) = splitList(v)
			return nil
		},
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver":       stringKey(func(c *Config) *string { return &c.Storage.Driver }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"client.token":      stringKey(func(c *Config) *string { return &c.Client.Token }),

	"verifier.provider":   stringKey(func(c *Config) *string { return &c.Verifier.Provider }),
	"verifier.model":      stringKey(func(c *Config) *string { return &c.Verifier.Model }),
	"verifier.max_tokens": uintKey("verifier.max_tokens", func(c *Config) *uint { return &c.Verifier.MaxTokens }),

	"thumbnails.allowed_hosts":  listKey(func(c *Config) *[]string { return &c.Thumbnails.AllowedHosts }),
	"thumbnails.path_prefix":    stringKey(func(c *Config) *string { return &c.Thumbnails.PathPrefix }),
	"thumbnails.allow_insecure": boolKey("thumbnails.allow_insecure", func(c *Config) *bool { return &c.Thumbnails.AllowInsecure }),
	"thumbnails.max_bytes":      uintKey("thumbnails.max_bytes", func(c *Config) *uint { return &c.Thumbnails.MaxBytes }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),

	"activity.provider": stringKey(func(c *Config) *string { return &c.Activity.Provider }),
	"activity.brokers":  listKey(func(c *Config) *[]string { return &c.Activity.Brokers }),
	"activity.topic":    stringKey(func(c *Config) *string { return &c.Activity.Topic }),

	"mcp.enabled": boolKey("mcp.enabled", func(c *Config) *bool { return &c.MCP.Enabled }),
}

// orderedKeys is the display order of configKeys, matching the TOML layout.
var orderedKeys = []string{
	"storage.driver",
	"storage.postgres_dsn",
	"storage.sqlite_path",
	"api.listen",
	"client.api_target",
	"client.token",
	"verifier.provider",
	"verifier.model",
	"verifier.max_tokens",
	"thumbnails.allowed_hosts",
	"thumbnails.path_prefix",
	"thumbnails.allow_insecure",
	"thumbnails.max_bytes",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"activity.provider",
	"activity.brokers",
	"activity.topic",
	"mcp.enabled",
}
