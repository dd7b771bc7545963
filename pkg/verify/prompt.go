package verify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/patterns"
)

// promptMetadata is the per-pattern metadata shown to the model.
type promptMetadata struct {
	ID            int64   `json:"id"`
	FileName      string  `json:"file_name"`
	FileExtension string  `json:"file_extension"`
	Author        *string `json:"author"`
	AuthorNotes   *string `json:"author_notes,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

const promptTemplate = `You are reviewing two quilting pattern thumbnails from the same library.
The first image is Pattern 1 and the second image is Pattern 2. An embedding
model flagged them as visually similar, and a human will decide whether to
delete one of them.

Pattern 1 metadata:
%s

Pattern 2 metadata:
%s

Decide whether the two images show the same pattern. Treat rotated, mirrored,
re-cropped or re-encoded copies of one design as duplicates. Treat patterns
that share a motif but differ in layout, density or border as distinct.

When they are duplicates, prefer keeping the one with the clearer image and
the more complete metadata. Use needs_human_review when you cannot tell.

Respond with a single JSON object and nothing else, in exactly this shape:
{
  "is_duplicate": true,
  "confidence": "high" | "medium" | "low",
  "recommendation": "keep_first" | "keep_second" | "keep_both" | "needs_human_review",
  "reasoning": "one or two sentences",
  "quality_notes": {
    "pattern_1": "short note on image and metadata quality",
    "pattern_2": "short note on image and metadata quality"
  }
}`

// BuildPrompt renders the comparison prompt for a pair of patterns.
func BuildPrompt(first, second *patterns.Pattern) string {
	return fmt.Sprintf(promptTemplate, describe(first), describe(second))
}

func describe(p *patterns.Pattern) string {
	b, err := json.MarshalIndent(promptMetadata{
		ID:            p.ID,
		FileName:      p.FileName,
		FileExtension: p.FileExtension,
		Author:        p.Author,
		AuthorNotes:   nonEmpty(p.AuthorNotes),
		Notes:         nonEmpty(p.Notes),
	}, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"id": %d}`, p.ID)
	}
	return string(b)
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
