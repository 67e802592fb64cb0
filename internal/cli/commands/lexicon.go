package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/incant/internal/cli/output"
	"github.com/leapstack-labs/incant/pkg/dialect"
)

// gapCell marks an unpopulated syllable in text and markdown grids.
const gapCell = "·"

// LexiconOutput is the JSON form of lexicon show.
type LexiconOutput struct {
	Dialect    string       `json:"dialect"`
	Consonants []string     `json:"consonants"`
	Rows       []LexiconRow `json:"rows"`
	Gaps       []string     `json:"gaps"`
	Words      []WordOutput `json:"words"`
}

// LexiconRow is one vowel row of the grid.
type LexiconRow struct {
	Vowel string   `json:"vowel"`
	Cells []string `json:"cells"`
}

// WordOutput describes one dictionary word.
type WordOutput struct {
	ID         int      `json:"id"`
	Spelling   string   `json:"spelling"`
	Meaning    string   `json:"meaning"`
	Categories []string `json:"categories"`
}

// NewLexiconCommand creates the lexicon command and its show subcommand.
func NewLexiconCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Inspect dialect lexicons",
	}
	cmd.AddCommand(newLexiconShowCommand())
	return cmd
}

func newLexiconShowCommand() *cobra.Command {
	var wordsOnly bool

	cmd := &cobra.Command{
		Use:   "show <dialect>",
		Short: "Show a dialect's syllable grid and words",
		Long: `Show the syllable grid of a dialect in its source layout, one column per
consonant and one row per vowel, followed by the dictionary words and the
instruction categories each word emits.`,
		Example: `  incant lexicon show v1
  incant lexicon show v2 --words
  incant lexicon show v1 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			d, err := cc.Engine.Dialect(args[0])
			if err != nil {
				return err
			}
			out := BuildLexiconOutput(d)

			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(out)
			}
			renderLexicon(cc.Renderer, out, wordsOnly)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wordsOnly, "words", false, "Show only the dictionary words")
	return cmd
}

// BuildLexiconOutput collects the grid, gaps and words of a dialect.
func BuildLexiconOutput(d *dialect.Dialect) LexiconOutput {
	grid := d.Lexicon.Grid()
	out := LexiconOutput{Dialect: d.ID, Gaps: []string{}, Words: []WordOutput{}}
	for _, c := range grid.Consonants {
		out.Consonants = append(out.Consonants, c.String())
	}
	for _, row := range grid.Rows {
		out.Rows = append(out.Rows, LexiconRow{Vowel: row.Vowel.String(), Cells: row.Cells})
	}
	for _, s := range d.Lexicon.Gaps() {
		out.Gaps = append(out.Gaps, s.String())
	}

	titleCaser := cases.Title(language.English)
	for _, w := range d.Dictionary.Words() {
		wo := WordOutput{ID: int(w.ID), Spelling: w.Spelling(), Meaning: w.Meaning, Categories: []string{}}
		specs, _ := d.Emitter.Lookup(w.Meaning)
		seen := make(map[string]bool, len(specs))
		for _, s := range specs {
			name := titleCaser.String(string(s.Category))
			if !seen[name] {
				seen[name] = true
				wo.Categories = append(wo.Categories, name)
			}
		}
		out.Words = append(out.Words, wo)
	}
	return out
}

func renderLexicon(r *output.Renderer, out LexiconOutput, wordsOnly bool) {
	if !wordsOnly {
		r.Header(1, fmt.Sprintf("Lexicon %s", out.Dialect))
		header := append([]string{""}, out.Consonants...)
		rows := make([][]string, len(out.Rows))
		for i, row := range out.Rows {
			cells := make([]string, 0, len(row.Cells)+1)
			cells = append(cells, row.Vowel)
			for _, c := range row.Cells {
				if c == "" {
					c = gapCell
				}
				cells = append(cells, c)
			}
			rows[i] = cells
		}
		r.Table(header, rows)
		r.Println("")
		if len(out.Gaps) > 0 {
			r.Muted(fmt.Sprintf("Gaps (%d): %s", len(out.Gaps), strings.Join(out.Gaps, " ")))
			r.Println("")
		}
	}

	r.Header(2, fmt.Sprintf("Words (%d)", len(out.Words)))
	rows := make([][]string, len(out.Words))
	for i, w := range out.Words {
		rows[i] = []string{w.Spelling, w.Meaning, strings.Join(w.Categories, ", ")}
	}
	r.Table([]string{"Spelling", "Meaning", "Category"}, rows)
}
