package duplicatescmder

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiduplicates "github.com/mbuckingham74/quilting-patterns-viewer/api/duplicates"
	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/client"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
)

type listCommander struct {
	flags     client.Flags
	threshold float64
	limit     int
	json      bool
}

const listLongDesc string = `List candidate duplicate pairs.

Pairs come from the precomputed similarity index, highest similarity first.
Pattern metadata that no longer exists is shown as "Unknown".

The index only holds pairs at or above the floor used by
"qpv similarities compute --min-similarity" (default 0.85). A threshold
below that floor returns no additional pairs; recompute the index with a
lower floor first.

Examples:
  qpv duplicates list
  qpv duplicates list --threshold 0.9 --limit 100
  qpv duplicates list --json | jq '.duplicates[0]'`

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidate duplicate pairs",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := apiduplicates.Validate(cmder.threshold, cmder.limit); err != nil {
				return err
			}

			c, err := client.FromCommand(cmd)
			if err != nil {
				return err
			}

			out, err := c.ListDuplicates(cmd.Context(), cmder.threshold, cmder.limit)
			if err != nil {
				return err
			}

			if cmder.json {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			rendered, err := cliui.RenderMarkdown(RenderListMarkdown(out), 100)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", cliui.WarnStyle.Render("!"), err)
			}
			fmt.Print(rendered)
			return nil
		},
	}

	client.AddFlags(cmd, &cmder.flags)
	cmd.Flags().Float64VarP(&cmder.threshold, "threshold", "t", apiduplicates.DefaultThreshold, "Minimum similarity (0 to 1)")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", apiduplicates.DefaultLimit,
		fmt.Sprintf("Maximum pairs to return (1 to %d)", apiduplicates.MaxLimit))
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the raw JSON response")

	return cmd
}
