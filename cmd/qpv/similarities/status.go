package similaritiescmder

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/dotdir"
)

const statusLongDesc string = `Show the most recent similarity index build.

Reads the build record written by qpv similarities compute to the .qpv/
directory.

Examples:
  qpv similarities status`

const statusShortDesc string = "Show the last similarity index build"

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runStatus(configDir)
		},
	}

	return cmd
}

func runStatus(configDir string) error {
	state, err := dotdir.NewManager().LoadIndexState(configDir)
	if err != nil {
		return fmt.Errorf("loading index state: %w", err)
	}

	if state == nil {
		fmt.Printf("  %s No similarity index built yet. Run qpv similarities compute.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	age := time.Since(state.ComputedAt).Round(time.Second)

	fmt.Printf("\n  %s  %s %s\n", cliui.KeyStyle.Render("Built:         "),
		cliui.ValueStyle.Render(state.ComputedAt.Local().Format(time.RFC1123)),
		cliui.DimStyle.Render(fmt.Sprintf("(%s ago)", age)))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Store:         "), cliui.NameStyle.Render(state.Store))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Patterns:      "), cliui.ValueStyle.Render(strconv.Itoa(state.Patterns)))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Pairs:         "), cliui.ValueStyle.Render(strconv.Itoa(state.Pairs)))
	fmt.Printf("  %s  %s\n\n", cliui.KeyStyle.Render("Min similarity:"), cliui.ValueStyle.Render(strconv.FormatFloat(state.MinSimilarity, 'f', 2, 64)))

	if age > 7*24*time.Hour {
		fmt.Printf("  %s\n\n", cliui.WarnStyle.Render("The index is over a week old."))
	}
	return nil
}
