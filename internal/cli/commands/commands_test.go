package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/incant/internal/cli/config"
	"github.com/leapstack-labs/incant/internal/cli/output"
	"github.com/leapstack-labs/incant/internal/cli/testutil"
	"github.com/leapstack-labs/incant/internal/engine"
	inttestutil "github.com/leapstack-labs/incant/internal/testutil"
	"github.com/leapstack-labs/incant/pkg/dialect"
)

// execute runs sub under a minimal root that loads config the way the
// real root does. Output is never a terminal.
func execute(t *testing.T, sub *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()

	root := &cobra.Command{
		Use:           "incant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig("", cmd.Flags())
			if err != nil {
				return err
			}
			mode, _ := output.ParseMode(cfg.OutputFormat)
			ctx := config.WithLogger(cmd.Context(), inttestutil.NewTestLogger(t))
			ctx = WithConfig(ctx, cfg)
			ctx = WithRenderer(ctx, output.NewRendererWithTTY(cmd.OutOrStdout(), cmd.ErrOrStderr(), false, mode))
			cmd.SetContext(ctx)
			return nil
		},
	}
	root.PersistentFlags().String("dialects-dir", "", "")
	root.PersistentFlags().String("state", "", "")
	root.PersistentFlags().String("dialect", "", "")
	root.PersistentFlags().StringP("output", "o", "", "")
	root.AddCommand(sub)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{sub.Name()}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func setupProject(t *testing.T) string {
	t.Helper()
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)
	return dir
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewDialectsCommand(), "dialects", nil},
		{NewLexiconCommand(), "lexicon", nil},
		{NewValidateCommand(), "validate [dir...]", nil},
		{NewDecodeCommand(), "decode [stream...]", nil},
		{NewREPLCommand(), "repl", nil},
		{NewServeCommand("test"), "serve", []string{"addr", "watch", "debounce"}},
		{NewWatchCommand(), "watch", []string{"debounce"}},
		{NewHistoryCommand(), "history", []string{"limit", "kind"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestDialectsCommand(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, NewDialectsCommand(), "", "-o", "json")
	require.NoError(t, err)

	var summaries []DialectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 3)
	assert.Equal(t, "mini", summaries[0].ID)
	assert.Equal(t, 3, summaries[0].Syllables)
	assert.Equal(t, "v1", summaries[1].ID)
	assert.Equal(t, 27, summaries[1].Syllables)

	out, _, err = execute(t, NewDialectsCommand(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "# Dialects (3)")
	testutil.AssertNoANSI(t, out)
}

func TestLexiconShowCommand(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, NewLexiconCommand(), "", "show", "mini", "-o", "json")
	require.NoError(t, err)

	var lex LexiconOutput
	require.NoError(t, json.Unmarshal([]byte(out), &lex))
	assert.Equal(t, []string{"M", "S", "T"}, lex.Consonants)
	require.Len(t, lex.Rows, 1)
	assert.Equal(t, []string{"Add", "Multiply", "Five"}, lex.Rows[0].Cells)
	require.Len(t, lex.Words, 3)
	assert.Equal(t, []string{"Number"}, lex.Words[2].Categories)

	out, _, err = execute(t, NewLexiconCommand(), "", "show", "mini")
	require.NoError(t, err)
	assert.Contains(t, out, "Multiply")
	assert.Contains(t, out, "## Words (3)")
	assert.Contains(t, out, "Operator")

	_, _, err = execute(t, NewLexiconCommand(), "", "show", "v9")
	assert.ErrorIs(t, err, dialect.ErrUnknownDialect)
}

func TestDecodeCommand(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, NewDecodeCommand(), "", "--dialect", "mini", "-o", "json", "TA TA MA")
	require.NoError(t, err)

	var res struct {
		Stream  string `json:"stream"`
		Program struct {
			Dialect      string  `json:"dialect"`
			Cost         float64 `json:"cost"`
			Instructions []struct {
				Op string `json:"op"`
			} `json:"instructions"`
		} `json:"program"`
		Fault *FaultOutput `json:"fault"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "TATAMA", res.Stream)
	assert.Equal(t, "mini", res.Program.Dialect)
	require.Len(t, res.Program.Instructions, 3)
	assert.Equal(t, "add", res.Program.Instructions[2].Op)
	assert.InDelta(t, 11.0, res.Program.Cost, 1e-9)
	assert.Nil(t, res.Fault)
}

func TestDecodeCommandExamples(t *testing.T) {
	setupProject(t)

	for _, line := range strings.Split(NewDecodeCommand().Example, "\n") {
		line = strings.TrimSpace(line)
		t.Run(line, func(t *testing.T) {
			var stdin string
			if before, after, ok := strings.Cut(line, " | "); ok {
				stdin = strings.TrimPrefix(before, "echo ") + "\n"
				line = after
			}
			args := shellFields(strings.TrimPrefix(line, "incant decode "))
			out, _, err := execute(t, NewDecodeCommand(), stdin, args...)
			require.NoError(t, err, out)
		})
	}
}

// shellFields splits s on spaces, keeping double-quoted runs together.
func shellFields(s string) []string {
	var (
		fields []string
		cur    strings.Builder
		quoted bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

func TestDecodeCommandMarkdown(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, NewDecodeCommand(), "", "--dialect", "mini", "TASA")
	require.NoError(t, err)
	assert.Contains(t, out, "## TASA")
	assert.Contains(t, out, "push(5)")
	assert.Contains(t, out, "Operator")
	assert.Contains(t, out, "push(5) mul")
	testutil.AssertNoANSI(t, out)
}

func TestDecodeCommandFault(t *testing.T) {
	setupProject(t)

	out, errOut, err := execute(t, NewDecodeCommand(), "", "--dialect", "mini", "TAMI")
	require.Error(t, err)
	assert.ErrorIs(t, err, errDecodeFailed)
	assert.Contains(t, out, "^ "+engine.FaultUnknownWord)
	assert.Contains(t, errOut, "unknown word at 2")
}

func TestDecodeCommandStdin(t *testing.T) {
	setupProject(t)

	out, _, err := execute(t, NewDecodeCommand(), "MA\n\n SA \nTAM\n", "--dialect", "mini", "-o", "json")
	require.Error(t, err, "the truncated stream fails the command")

	var results []DecodeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "SA", results[1].Stream)
	assert.Nil(t, results[1].Fault)
	require.NotNil(t, results[2].Fault)
	assert.Equal(t, engine.FaultTruncatedWord, results[2].Fault.Kind)
	assert.Equal(t, 2, results[2].Fault.Position)
}

func TestDecodeCommandRequiresDialect(t *testing.T) {
	setupProject(t)

	_, _, err := execute(t, NewDecodeCommand(), "", "MA")
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)
}

func TestDecodeCommandDialectFromConfig(t *testing.T) {
	setupProject(t)
	t.Setenv("INCANT_DIALECT", "mini")

	out, _, err := execute(t, NewDecodeCommand(), "", "-o", "json", "MA")
	require.NoError(t, err)
	assert.Contains(t, out, `"dialect": "mini"`)
}

func TestValidateCommand(t *testing.T) {
	dir := setupProject(t)

	out, _, err := execute(t, NewValidateCommand(), "", "-o", "json")
	require.NoError(t, err)
	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.Equal(t, true, r["ok"], r["dialect"])
	}

	drafts := filepath.Join(dir, "drafts")
	inttestutil.WriteDialectFiles(t, drafts, "classic", map[string]string{
		"table.yaml": "dialect: classic\nconsonants: [M, R, S]\nrows:\n  - {vowel: E, cells: [Me, Re, \"\"]}\n  - {vowel: I, cells: [\"\", \"\", Si]}\n",
		"words.yaml": "words:\n  - {spelling: ME}\n  - {spelling: MESI, meaning: Mesi}\n",
	})

	out, _, err = execute(t, NewValidateCommand(), "", drafts)
	require.Error(t, err)
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, "✗ classic")

	_, _, err = execute(t, NewValidateCommand(), "", filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dialects found")
}

func TestHistoryCommand(t *testing.T) {
	setupProject(t)

	_, _, err := execute(t, NewDecodeCommand(), "", "--dialect", "mini", "MASA")
	require.NoError(t, err)

	out, _, err := execute(t, NewHistoryCommand(), "", "--kind", "decode", "-o", "json")
	require.NoError(t, err)
	var runs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "MASA", runs[0]["input"])
	assert.Equal(t, "mini", runs[0]["dialect"])

	out, _, err = execute(t, NewHistoryCommand(), "", "--dialect", "v2")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")

	_, _, err = execute(t, NewHistoryCommand(), "", "--kind", "cast")
	require.Error(t, err)
}

func TestREPLSession(t *testing.T) {
	root := t.TempDir()
	inttestutil.WriteDialect(t, root, "mini")
	eng, err := engine.New(engine.Config{DialectsDirs: []string{root}})
	require.NoError(t, err)
	require.NoError(t, eng.Load(context.Background()))

	var out, errOut bytes.Buffer
	s, err := newSession(eng, "mini", &out, &errOut)
	require.NoError(t, err)
	assert.Equal(t, "mini> ", s.prompt())
	ctx := context.Background()

	assert.False(t, s.handle(ctx, "TA"))
	assert.Contains(t, out.String(), "spell:  (empty)")
	assert.Contains(t, out.String(), "staged: TA -> push(5)")

	out.Reset()
	s.handle(ctx, "T")
	assert.Contains(t, out.String(), "staged: TA -> push(5)")
	assert.Contains(t, out.String(), "...     T", "a cut-off word is pending")

	out.Reset()
	s.handle(ctx, "A MA")
	assert.Contains(t, out.String(), "spell:  push(5) push(5)")
	assert.Contains(t, out.String(), "staged: MA -> add")
	assert.Contains(t, out.String(), "cost:   11")

	s.handle(ctx, "XA")
	assert.Contains(t, errOut.String(), "malformed input")
	assert.Equal(t, "TATAMA", s.stream, "a rejected line leaves the stream unchanged")

	out.Reset()
	s.handle(ctx, ".cast")
	assert.Contains(t, out.String(), `"instructions"`)
	assert.Empty(t, s.stream)

	out.Reset()
	s.handle(ctx, ".dialect v1")
	assert.Contains(t, out.String(), "switched to v1")
	assert.Equal(t, "v1> ", s.prompt())

	errOut.Reset()
	s.handle(ctx, ".dialect")
	assert.Contains(t, errOut.String(), "Usage")
	s.handle(ctx, ".bogus")
	assert.Contains(t, errOut.String(), "Unknown command")

	assert.True(t, s.handle(ctx, ".quit"))
}

func TestREPLUnknownDialect(t *testing.T) {
	eng, err := engine.New(engine.Config{})
	require.NoError(t, err)
	_, err = newSession(eng, "", &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)
}
