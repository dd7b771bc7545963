// Package configcmder provides the config command for managing persistent
// qpv configuration stored in the .qpv/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/config"
)

const configLongDesc string = `Manage persistent qpv configuration.

Configuration is stored as config.toml in the .qpv/ directory and provides
default values for command flags. CLI flags and QPV_* environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example
storage.driver, thumbnails.allowed_hosts or embedding.model. Run
qpv config list to see every key.

API tokens live in the [[auth.tokens]] table of config.toml and are edited
by hand.

Use subcommands to get, set, or list configuration values:
  qpv config set <key> <value>    Set a configuration value
  qpv config get <key>            Get a configuration value
  qpv config list                 List all configuration values

Examples:
  qpv config set storage.driver postgres
  qpv config set thumbnails.allowed_hosts storage.example.com,cdn.example.com
  qpv config get verifier.model
  qpv config list`

const configShortDesc string = "Manage persistent qpv configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Printf("\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
