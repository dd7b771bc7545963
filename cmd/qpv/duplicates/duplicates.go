// Package duplicatescmder provides the duplicates command for reviewing
// candidate duplicate patterns on a running qpv API server.
package duplicatescmder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	apiduplicates "github.com/mbuckingham74/quilting-patterns-viewer/api/duplicates"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/verify"
)

const duplicatesLongDesc string = `Review candidate duplicate patterns.

These commands call a running qpv API server with an admin token. The server
address and token come from --api-target and --token, QPV_CLIENT_API_TARGET
and QPV_CLIENT_TOKEN, or client.api_target and client.token in config.toml.

  qpv duplicates list              List candidate pairs from the similarity index
  qpv duplicates verify <a> <b>    Ask the vision model whether two patterns match
  qpv duplicates delete <id>       Delete the pattern you decided to drop`

const duplicatesShortDesc string = "Review candidate duplicate patterns"

func NewDuplicatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "duplicates",
		Aliases: []string{"dups"},
		Short:   duplicatesShortDesc,
		Long:    duplicatesLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pattern id %q: must be a positive integer", raw)
	}
	return id, nil
}

// RenderListMarkdown renders a duplicate scan as a markdown table.
func RenderListMarkdown(out *apiduplicates.Output) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Duplicate candidates\n\n%d pairs at or above %.2f similarity.\n\n", out.Count, out.Threshold)
	if out.Count == 0 {
		return b.String()
	}

	b.WriteString("| # | Similarity | Pattern 1 | Pattern 2 |\n|---|---|---|---|\n")
	for i, d := range out.Duplicates {
		fmt.Fprintf(&b, "| %d | %.4f | %s | %s |\n", i+1, d.Similarity, describe(d.Pattern1), describe(d.Pattern2))
	}
	return b.String()
}

// RenderVerificationMarkdown renders a verification result.
func RenderVerificationMarkdown(r *verify.Result) string {
	var b strings.Builder
	v := r.Verification

	verdict := "Not duplicates"
	if v.IsDuplicate {
		verdict = "Duplicates"
	}

	fmt.Fprintf(&b, "# %s (%s confidence)\n\n", verdict, v.Confidence)
	fmt.Fprintf(&b, "- **Pattern 1:** %s\n", describe(r.Patterns.Pattern1))
	fmt.Fprintf(&b, "- **Pattern 2:** %s\n", describe(r.Patterns.Pattern2))
	fmt.Fprintf(&b, "- **Recommendation:** %s\n\n", recommendationText(v.Recommendation))
	fmt.Fprintf(&b, "## Reasoning\n\n%s\n\n", v.Reasoning)
	fmt.Fprintf(&b, "## Image quality\n\n- Pattern 1: %s\n- Pattern 2: %s\n", v.QualityNotes.Pattern1, v.QualityNotes.Pattern2)
	return b.String()
}

func describe(s patterns.Summary) string {
	name := s.FileName
	if s.FileExtension != "" {
		name += "." + s.FileExtension
	}
	name = strings.ReplaceAll(name, "|", `\|`)

	out := fmt.Sprintf("`%d` %s", s.ID, name)
	if s.Author != nil && *s.Author != "" {
		out += " by " + strings.ReplaceAll(*s.Author, "|", `\|`)
	}
	return out
}

func recommendationText(r verify.Recommendation) string {
	switch r {
	case verify.RecommendKeepFirst:
		return "keep pattern 1"
	case verify.RecommendKeepSecond:
		return "keep pattern 2"
	case verify.RecommendKeepBoth:
		return "keep both"
	case verify.RecommendHumanReview:
		return "needs human review"
	default:
		return string(r)
	}
}
