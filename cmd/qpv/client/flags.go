package client

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
)

var clientFlags = []string{config.FlagAPITarget, config.FlagToken}

// Flags holds the connection flag targets of a client command.
type Flags struct {
	APITarget string
	Token     string
}

// AddFlags registers --api-target and --token on cmd.
func AddFlags(cmd *cobra.Command, f *Flags) {
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &f.APITarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagToken, &f.Token)
}

// FromCommand resolves the client settings of cmd through flags, QPV_CLIENT_*
// environment variables and config.toml, and returns a Client.
func FromCommand(cmd *cobra.Command) (*Client, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, clientFlags)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return FromConfig(cfg)
}
