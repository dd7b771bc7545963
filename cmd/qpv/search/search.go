// Package searchcmder provides the search command for semantic search over
// the pattern library.
package searchcmder

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	apisearch "github.com/mbuckingham74/quilting-patterns-viewer/api/search"
	"github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv/client"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
)

var (
	rankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	authorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type searchCommander struct {
	flags client.Flags
	limit int
	quiet bool
}

const searchLongDesc string = `Search the pattern library via the qpv API.

Embeds the query text on the server and returns the patterns whose
embeddings are closest to it. Requires a running qpv API server with an
embedder configured.

Use --quiet to print only pattern ids, one per line, for piping into other
commands.

Examples:
  qpv search "feather border"
  qpv search "pantograph with stars" --limit 10
  qpv duplicates verify $(qpv search "feather border" --quiet --limit 2)`

const searchShortDesc string = "Search the pattern library"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmder.limit < 1 || cmder.limit > apisearch.MaxLimit {
				return fmt.Errorf("--limit must be between 1 and %d", apisearch.MaxLimit)
			}

			c, err := client.FromCommand(cmd)
			if err != nil {
				return err
			}

			output, err := c.SearchPatterns(cmd.Context(), args[0], cmder.limit)
			if err != nil {
				return err
			}

			Print(os.Stdout, output, cmder.quiet)
			return nil
		},
	}

	client.AddFlags(cmd, &cmder.flags)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "k", 5, "Number of results to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only pattern ids, one per line (for piping)")

	return cmd
}

// Print writes search results to w.
func Print(w io.Writer, output *apisearch.Output, quiet bool) {
	if output.Count == 0 {
		if !quiet {
			fmt.Fprintln(w, "No results found.")
		}
		return
	}

	if quiet {
		for _, result := range output.Results {
			fmt.Fprintln(w, result.ID)
		}
		return
	}

	fmt.Fprintf(w, "\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		idStyle.Render(fmt.Sprintf("%q", output.Query)),
	)

	for i, result := range output.Results {
		printResult(w, i+1, result)
	}
}

func printResult(w io.Writer, rank int, result patterns.SearchResult) {
	name := result.FileName
	if result.FileExtension != "" {
		name += "." + result.FileExtension
	}

	fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		idStyle.Render(strconv.FormatInt(result.ID, 10)),
		nameStyle.Render(utils.Truncate(name, 60)),
	)

	if result.Author != nil && *result.Author != "" {
		fmt.Fprintf(w, "      %s\n", authorStyle.Render("by "+*result.Author))
	}
	if result.ThumbnailURL != nil {
		fmt.Fprintf(w, "      %s\n", dimStyle.Render(*result.ThumbnailURL))
	}

	fmt.Fprintln(w)
}
