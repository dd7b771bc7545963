package duplicatescmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/client"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/cliui"
)

const deleteLongDesc string = `Delete a pattern from the library.

Removes the pattern and every similarity index entry that references it. The
deletion is recorded as an activity event on the server.

Examples:
  qpv duplicates delete 1377`

func newDeleteCmd() *cobra.Command {
	var flags client.Flags

	cmd := &cobra.Command{
		Use:   "delete <pattern-id>",
		Short: "Delete a pattern",
		Long:  deleteLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			c, err := client.FromCommand(cmd)
			if err != nil {
				return err
			}

			if err := c.DeletePattern(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Printf("\n  %s Deleted pattern %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(args[0]))
			return nil
		},
	}

	client.AddFlags(cmd, &flags)

	return cmd
}
