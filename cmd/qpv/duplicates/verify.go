package duplicatescmder

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/client"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/verify"
)

const verifyLongDesc string = `Ask the vision model whether two patterns are duplicates.

The server downloads both thumbnails and sends them to the vision model. The
verdict is advisory: nothing is changed. This can take up to a minute.

Examples:
  qpv duplicates verify 1204 1377
  qpv duplicates verify 1204 1377 --json`

func newVerifyCmd() *cobra.Command {
	var flags client.Flags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify <pattern-id-1> <pattern-id-2>",
		Short: "Verify a candidate pair with the vision model",
		Long:  verifyLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id1, err := parseID(args[0])
			if err != nil {
				return err
			}
			id2, err := parseID(args[1])
			if err != nil {
				return err
			}

			c, err := client.FromCommand(cmd)
			if err != nil {
				return err
			}

			var result *verify.Result
			if err := cliui.Step(os.Stderr, "Comparing thumbnails", func() error {
				result, err = c.VerifyDuplicates(cmd.Context(), id1, id2)
				return err
			}); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			rendered, err := cliui.RenderMarkdown(RenderVerificationMarkdown(result), 100)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", cliui.WarnStyle.Render("!"), err)
			}
			fmt.Print(rendered)
			return nil
		},
	}

	client.AddFlags(cmd, &flags)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")

	return cmd
}
