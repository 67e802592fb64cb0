package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/incant/internal/cli"
	"github.com/leapstack-labs/incant/internal/cli/config"
)

// envVars documents the INCANT_* variables read by the config loader.
var envVars = [][2]string{
	{"DIALECT", "Default dialect id"},
	{"DIALECTS_DIR", "Directory of dialect YAML files"},
	{"STATE_PATH", "Run ledger database path"},
	{"RECORD_RUNS", "Record decode runs in the ledger"},
	{"OUTPUT", "Output format"},
	{"LOG_LEVEL", "Log level"},
	{"SERVER__ADDR", "HTTP listen address"},
	{"WATCH__DEBOUNCE", "Reload debounce delay"},
	{"DECODE__CONCURRENCY", "Parallel decodes for multi-stream input"},
}

// generateCLIDocs writes index.md plus one page per top-level command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string]*MarkdownWriter{"index": cliIndex(root)}
	for _, cmd := range documented(root) {
		pages[cmd.Name()] = commandPage(cmd)
	}

	for name, w := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name+".md"), w.Bytes(), 0600); err != nil {
			return fmt.Errorf("failed to write %s.md: %w", name, err)
		}
		log.Printf("  Generated %s.md", name)
	}
	return nil
}

func cliIndex(root *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for incant")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph("incant decodes phoneme streams into stack programs and validates dialect lexicons for ambiguity.")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/incant/cmd/incant@latest\nincant <command> [options]")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documented(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	flagsTable(w, root.PersistentFlags())

	w.Header(2, "Configuration")
	w.Paragraph(fmt.Sprintf("Settings come from the first of %s found in the working directory or its parents, then the environment, then flags. Each layer overrides the one before.",
		strings.Join(inlineAll(config.ConfigFileNames), ", ")))

	rows = rows[:0]
	for _, v := range envVars {
		rows = append(rows, []string{InlineCode(config.EnvPrefix + v[0]), v[1]})
	}
	w.Paragraph("A double underscore in a variable name separates nested keys.")
	w.Table([]string{"Variable", "Setting"}, rows)

	w.Header(2, "Exit Status")
	w.Paragraph("incant exits 0 on success and 1 on any error, rejected dialect or faulted stream. The reason is printed to stderr.")
	return w
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	w.Paragraph(desc)

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		flagsTable(w, cmd.LocalFlags())
	}

	for _, sub := range cmd.Commands() {
		if sub.Hidden {
			continue
		}
		w.Header(3, sub.Name())
		w.Paragraph(cleanDescription(sub.Short))
		w.CodeBlock("bash", sub.UseLine())
		if sub.HasLocalFlags() {
			flagsTable(w, sub.LocalFlags())
		}
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	return w
}

// documented returns the top-level commands that get their own page.
func documented(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func flagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name += ", " + InlineCode("-"+f.Shorthand)
		}
		def := f.DefValue
		if def != "" && f.Value.Type() != "bool" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{name, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Default", "Description"}, rows)
}

func inlineAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = InlineCode(s)
	}
	return out
}

// dedent strips the indentation shared by every non-blank line.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, l := range lines {
		if len(l) >= indent && indent > 0 {
			lines[i] = l[indent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
