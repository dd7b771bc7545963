// Package versioncmder
package versioncmder

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
)

type VersionCommander struct {
	json bool
}

// Info is the build metadata printed by the version command.
type Info struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	Buildtime string `json:"built_at"`
}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print build metadata as JSON")

	return cmd
}

// Current returns the build metadata of this binary.
func Current() Info {
	return Info{Version: utils.Version, Sha: utils.Sha, Buildtime: utils.Buildtime}
}

func (c *VersionCommander) run() error {
	info := Current()
	if c.json {
		return json.NewEncoder(os.Stdout).Encode(info)
	}

	fmt.Printf("%s %s\n%s %s\n%s %s\n",
		cliui.KeyStyle.Render("Version: "), cliui.ValueStyle.Render(info.Version),
		cliui.KeyStyle.Render("Sha:     "), cliui.DimStyle.Render(info.Sha),
		cliui.KeyStyle.Render("Built at:"), cliui.DimStyle.Render(info.Buildtime),
	)
	return nil
}
