package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/incant/internal/engine"
	"github.com/leapstack-labs/incant/pkg/decoder"
	"github.com/leapstack-labs/incant/pkg/dialect"
	"github.com/leapstack-labs/incant/pkg/phoneme"
	"github.com/leapstack-labs/incant/pkg/program"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Speak a spell one syllable at a time",
		Long: `Start an interactive session that decodes the stream as it is typed.

Each line is appended to the current stream. The words decoded so far form
the spell; the most recent word is staged until the next one arrives. A
line that does not decode is rejected and the stream is left unchanged.
.cast emits the whole spell and starts a new one.`,
		Example: `  incant repl --dialect v1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := newSession(cc.Engine, cc.Cfg.Dialect, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			historyFile := ""
			if cc.Cfg.StatePath != "" && cc.Cfg.StatePath != ":memory:" {
				historyFile = filepath.Join(filepath.Dir(cc.Cfg.StatePath), "repl_history")
			}
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          s.prompt(),
				HistoryFile:     historyFile,
				AutoComplete:    s.completer(),
				InterruptPrompt: "^C",
				EOFPrompt:       ".quit",
				Stdin:           io.NopCloser(cmd.InOrStdin()),
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize REPL: %w", err)
			}
			defer func() { _ = rl.Close() }()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "incant REPL (dialect: %s)\n", s.dialect.ID)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
			_, _ = fmt.Fprintln(cmd.OutOrStdout())

			ctx := cmd.Context()
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					s.reset()
					rl.SetPrompt(s.prompt())
					continue
				}
				if err != nil {
					break
				}
				if s.handle(ctx, line) {
					break
				}
				rl.SetPrompt(s.prompt())
			}
			return nil
		},
	}
}

// session is the REPL state: the dialect and the stream spoken so far.
type session struct {
	engine  *engine.Engine
	dialect *dialect.Dialect
	stream  string
	out     io.Writer
	errOut  io.Writer
}

func newSession(eng *engine.Engine, dialectID string, out, errOut io.Writer) (*session, error) {
	d, err := eng.Dialect(dialectID)
	if err != nil {
		return nil, err
	}
	return &session{engine: eng, dialect: d, out: out, errOut: errOut}, nil
}

func (s *session) prompt() string {
	return s.dialect.ID + "> "
}

func (s *session) reset() {
	s.stream = ""
}

// handle processes one input line and reports whether to quit.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return s.command(ctx, line)
	}
	s.speak(phoneme.StripSpace(line))
	return false
}

// speak appends input to the stream when the result still decodes. A
// word cut off at the end of the line is kept as pending input.
func (s *session) speak(input string) {
	next := s.stream + input
	p, err := s.dialect.Compile(next)
	if err != nil && !errors.Is(err, decoder.ErrTruncatedWord) {
		s.errorf("%v", err)
		return
	}
	s.stream = next
	s.show(p, pending(next, err))
}

// pending returns the unfinished word at the end of stream, if any.
func pending(stream string, err error) string {
	var truncated *decoder.TruncatedWordError
	if errors.As(err, &truncated) && truncated.Position <= len(stream) {
		return stream[truncated.Position:]
	}
	return ""
}

func (s *session) show(p *program.Program, partial string) {
	spell, staged := p.Split(len(p.Units()) - 1)
	s.printf("spell:  %s\n", orNone(spell.String()))
	if units := staged.Units(); len(units) > 0 {
		s.printf("staged: %s -> %s\n", units[0].Word.Spelling(), staged.String())
	}
	if partial != "" {
		s.printf("...     %s\n", partial)
	}
	s.printf("cost:   %g\n", p.Cost())
}

func (s *session) command(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".dialects":
		for _, id := range s.engine.Registry().List() {
			marker := "  "
			if id == s.dialect.ID {
				marker = "* "
			}
			s.printf("%s%s\n", marker, id)
		}

	case ".dialect":
		if len(parts) < 2 {
			s.errorf("Usage: .dialect <id>")
			return false
		}
		d, err := s.engine.Dialect(parts[1])
		if err != nil {
			s.errorf("%v", err)
			return false
		}
		s.dialect = d
		s.reset()
		s.printf("switched to %s\n", d.ID)

	case ".staged":
		p, err := s.dialect.Compile(s.stream)
		s.show(p, pending(s.stream, err))

	case ".cast":
		p, err := s.engine.Decode(ctx, s.dialect.ID, s.stream)
		if err != nil {
			s.errorf("cannot cast: %v", err)
			return false
		}
		data, err := p.MarshalJSON()
		if err != nil {
			s.errorf("%v", err)
			return false
		}
		s.printf("%s\n", data)
		s.reset()

	case ".clear":
		s.reset()

	default:
		s.errorf("Unknown command: %s (type .help for commands)", parts[0])
	}
	return false
}

func (s *session) completer() *readline.PrefixCompleter {
	ids := make([]readline.PrefixCompleterInterface, 0)
	for _, id := range s.engine.Registry().List() {
		ids = append(ids, readline.PcItem(id))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".dialects"),
		readline.PcItem(".dialect", ids...),
		readline.PcItem(".staged"),
		readline.PcItem(".cast"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
	)
}

func (s *session) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *session) errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.errOut, "Error: "+format+"\n", a...)
}

func orNone(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .dialects       List dialects
  .dialect <id>   Switch dialect and start a new spell
  .staged         Show the spell, the staged word and pending input
  .cast           Emit the spell as JSON and start a new one
  .clear          Discard the current spell
  .quit / .exit   Exit the REPL

Tips:
  - Type syllables in uppercase; spaces are ignored (MA SA == MASA)
  - A word may span several lines
`
	_, _ = fmt.Fprintln(w, help)
}
