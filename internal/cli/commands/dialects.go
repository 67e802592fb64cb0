package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/incant/internal/cli/output"
	"github.com/leapstack-labs/incant/pkg/dialect"
)

// DialectSummary is the JSON form of one listed dialect.
type DialectSummary struct {
	ID        string `json:"id"`
	Syllables int    `json:"syllables"`
	Gaps      int    `json:"gaps"`
	Words     int    `json:"words"`
	Meanings  int    `json:"meanings"`
}

func summarize(d *dialect.Dialect) DialectSummary {
	return DialectSummary{
		ID:        d.ID,
		Syllables: d.Lexicon.Len(),
		Gaps:      len(d.Lexicon.Gaps()),
		Words:     d.Dictionary.Len(),
		Meanings:  len(d.Dictionary.Meanings()),
	}
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the available dialects",
		Long: `List the built-in dialects and those found in the dialects directory.

Directories that fail to build are reported as warnings and left out.`,
		Example: `  incant dialects
  incant dialects -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			summaries := make([]DialectSummary, 0)
			for _, d := range cc.Engine.Dialects() {
				summaries = append(summaries, summarize(d))
			}
			return renderDialects(cc.Renderer, summaries)
		},
	}
}

func renderDialects(r *output.Renderer, summaries []DialectSummary) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(summaries)
	}

	r.Header(1, fmt.Sprintf("Dialects (%d)", len(summaries)))
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.ID,
			strconv.Itoa(s.Syllables),
			strconv.Itoa(s.Gaps),
			strconv.Itoa(s.Words),
			strconv.Itoa(s.Meanings),
		}
	}
	r.Table([]string{"Dialect", "Syllables", "Gaps", "Words", "Meanings"}, rows)
	return nil
}
