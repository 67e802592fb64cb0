package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/incant/internal/cli/commands"
	"github.com/leapstack-labs/incant/pkg/dialect"
)

// generateDialectDocs writes one page per built-in dialect plus an index.
func generateDialectDocs(outDir string) error {
	log.Printf("Generating dialect docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ids := dialect.List()

	w := NewMarkdownWriter()
	w.Frontmatter("Dialects", "Built-in incant dialects")
	w.GeneratedMarker()
	w.Header(1, "Dialects")
	w.Paragraph("Each dialect pairs a syllable grid with a dictionary of words. Every word maps to a meaning that emits one or more stack instructions.")

	var rows [][]string
	for _, id := range ids {
		d := dialect.MustGet(id)
		rows = append(rows, []string{
			fmt.Sprintf("[%s](/dialects/%s)", InlineCode(id), id),
			fmt.Sprint(d.Lexicon.Len()),
			fmt.Sprint(len(d.Lexicon.Gaps())),
			fmt.Sprint(len(d.Dictionary.Words())),
		})
	}
	w.Table([]string{"Dialect", "Syllables", "Gaps", "Words"}, rows)

	if err := os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	for _, id := range ids {
		if err := generateDialectPage(dialect.MustGet(id), outDir); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", id, err)
		}
		log.Printf("  Generated %s.md", id)
	}
	return nil
}

func generateDialectPage(d *dialect.Dialect, outDir string) error {
	out := commands.BuildLexiconOutput(d)

	w := NewMarkdownWriter()
	w.Frontmatter(d.ID, fmt.Sprintf("Lexicon and dictionary of dialect %s", d.ID))
	w.GeneratedMarker()
	w.Header(1, fmt.Sprintf("Dialect %s", d.ID))

	w.Header(2, "Syllable Grid")
	header := append([]string{""}, out.Consonants...)
	rows := make([][]string, len(out.Rows))
	for i, row := range out.Rows {
		cells := []string{InlineCode(row.Vowel)}
		for _, c := range row.Cells {
			if c == "" {
				c = "·"
			}
			cells = append(cells, c)
		}
		rows[i] = cells
	}
	w.Table(header, rows)

	if len(out.Gaps) > 0 {
		w.Paragraph("Unpopulated syllables: " + strings.Join(inlineAll(out.Gaps), " "))
	}

	w.Header(2, "Words")
	rows = make([][]string, len(out.Words))
	for i, word := range out.Words {
		rows[i] = []string{InlineCode(word.Spelling), word.Meaning, strings.Join(word.Categories, ", ")}
	}
	w.Table([]string{"Spelling", "Meaning", "Category"}, rows)

	w.Header(2, "Example")
	w.CodeBlock("bash", fmt.Sprintf("incant decode --dialect %s %s", d.ID, exampleStream(out)))

	return os.WriteFile(filepath.Join(outDir, d.ID+".md"), w.Bytes(), 0600)
}

// exampleStream concatenates the first few word spellings.
func exampleStream(out commands.LexiconOutput) string {
	var parts []string
	for i, word := range out.Words {
		if i == 3 {
			break
		}
		parts = append(parts, word.Spelling)
	}
	return strings.Join(parts, " ")
}
