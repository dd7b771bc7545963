package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the QPV_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (QPV_API_LISTEN, QPV_STORAGE_POSTGRES_DSN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("QPV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper decodes the layered viper settings into a Config. Environment
// lists are comma separated (QPV_THUMBNAILS_ALLOWED_HOSTS=a.example,b.example).
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	cfg.Version = v.GetInt("version")

	cfg.Storage.Driver = v.GetString("storage.driver")
	cfg.Storage.PostgresDSN = v.GetString("storage.postgres_dsn")
	cfg.Storage.SQLitePath = v.GetString("storage.sqlite_path")

	cfg.API.Listen = v.GetString("api.listen")

	cfg.Client.APITarget = v.GetString("client.api_target")
	cfg.Client.Token = v.GetString("client.token")

	var tokens AuthConfig
	if err := v.UnmarshalKey("auth", &tokens); err != nil {
		return nil, fmt.Errorf("decoding auth tokens: %w", err)
	}
	cfg.Auth = tokens

	cfg.Verifier.Provider = v.GetString("verifier.provider")
	cfg.Verifier.Model = v.GetString("verifier.model")
	cfg.Verifier.MaxTokens = v.GetUint("verifier.max_tokens")

	cfg.Thumbnails.AllowedHosts = getList(v, "thumbnails.allowed_hosts")
	cfg.Thumbnails.PathPrefix = v.GetString("thumbnails.path_prefix")
	cfg.Thumbnails.AllowInsecure = v.GetBool("thumbnails.allow_insecure")
	cfg.Thumbnails.MaxBytes = v.GetUint("thumbnails.max_bytes")

	cfg.Embedding.Provider = v.GetString("embedding.provider")
	cfg.Embedding.Target = v.GetString("embedding.target")
	cfg.Embedding.Model = v.GetString("embedding.model")
	cfg.Embedding.Dimensions = v.GetUint("embedding.dimensions")

	cfg.Activity.Provider = v.GetString("activity.provider")
	cfg.Activity.Brokers = getList(v, "activity.brokers")
	cfg.Activity.Topic = v.GetString("activity.topic")

	cfg.MCP.Enabled = v.GetBool("mcp.enabled")

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// getList reads a key that may hold a TOML array or a comma-separated string.
func getList(v *viper.Viper, key string) []string {
	raw := v.GetStringSlice(key)
	if len(raw) == 1 {
		return splitList(raw[0])
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("client.api_target", d.Client.APITarget)
	v.SetDefault("client.token", d.Client.Token)

	v.SetDefault("verifier.provider", d.Verifier.Provider)
	v.SetDefault("verifier.model", d.Verifier.Model)
	v.SetDefault("verifier.max_tokens", d.Verifier.MaxTokens)

	v.SetDefault("thumbnails.allowed_hosts", d.Thumbnails.AllowedHosts)
	v.SetDefault("thumbnails.path_prefix", d.Thumbnails.PathPrefix)
	v.SetDefault("thumbnails.allow_insecure", d.Thumbnails.AllowInsecure)
	v.SetDefault("thumbnails.max_bytes", d.Thumbnails.MaxBytes)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("activity.provider", d.Activity.Provider)
	v.SetDefault("activity.brokers", d.Activity.Brokers)
	v.SetDefault("activity.topic", d.Activity.Topic)

	v.SetDefault("mcp.enabled", d.MCP.Enabled)
}
