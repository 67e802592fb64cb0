package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/incant/internal/cli/output"
	"github.com/leapstack-labs/incant/internal/engine"
	"github.com/leapstack-labs/incant/pkg/phoneme"
	"github.com/leapstack-labs/incant/pkg/program"
)

// errDecodeFailed is returned when at least one stream faulted.
var errDecodeFailed = errors.New("decode failed")

// DecodeOutput is the JSON form of one decoded stream.
type DecodeOutput struct {
	Stream  string           `json:"stream"`
	Program *program.Program `json:"program"`
	Fault   *FaultOutput     `json:"fault,omitempty"`
}

// FaultOutput describes a decode fault.
type FaultOutput struct {
	Kind     string `json:"kind"`
	Position int    `json:"position"`
	Message  string `json:"message"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [stream...]",
		Short: "Decode phoneme streams into spell programs",
		Long: `Decode each stream with the dialect given by --dialect (or the dialect
config key) and print the emitted program.

Each argument is one stream; whitespace inside it is ignored, so "MA SA"
and "MASA" are the same stream. Without arguments, each non-empty line of
stdin is one stream. Streams are decoded concurrently.

Exits non-zero when any stream faults. A faulted stream still shows the
instructions emitted before the fault.`,
		Example: `  incant decode --dialect v1 "TA TE MA"
  incant decode --dialect v2 KASE MESI
  echo MASA | incant decode --dialect v1 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			streams := args
			if len(streams) == 0 {
				streams, err = readStreams(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			if len(streams) == 0 {
				return errors.New("no streams to decode")
			}
			for i, s := range streams {
				streams[i] = phoneme.StripSpace(s)
			}

			results, err := cc.Engine.DecodeMany(cmd.Context(), cc.Cfg.Dialect, streams)
			if err != nil {
				return err
			}

			outputs := make([]DecodeOutput, len(results))
			failed := 0
			for i, res := range results {
				outputs[i] = decodeOutput(res)
				if outputs[i].Fault != nil {
					failed++
				}
			}

			if err := renderDecode(cc.Renderer, outputs); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d streams faulted", errDecodeFailed, failed, len(outputs))
			}
			return nil
		},
	}
	return cmd
}

// readStreams returns the non-empty lines of r.
func readStreams(r io.Reader) ([]string, error) {
	var streams []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			streams = append(streams, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return streams, nil
}

func decodeOutput(res engine.Result) DecodeOutput {
	out := DecodeOutput{Stream: res.Stream, Program: res.Program}
	if res.Err == nil {
		return out
	}
	pos, _ := engine.FaultPosition(res.Err)
	out.Fault = &FaultOutput{
		Kind:     engine.FaultKind(res.Err),
		Position: pos,
		Message:  res.Err.Error(),
	}
	return out
}

func renderDecode(r *output.Renderer, outputs []DecodeOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		if len(outputs) == 1 {
			return r.JSON(outputs[0])
		}
		return r.JSON(outputs)
	}

	titleCaser := cases.Title(language.English)
	for i, o := range outputs {
		if i > 0 {
			r.Println("")
		}
		r.Header(2, o.Stream)

		if o.Program != nil && o.Program.Len() > 0 {
			rows := make([][]string, 0, o.Program.Len())
			for j, in := range o.Program.Instructions() {
				rows = append(rows, []string{
					strconv.Itoa(j + 1),
					in.Span.String(),
					in.Meaning,
					formatOp(in),
					titleCaser.String(string(in.Category)),
					strconv.FormatFloat(in.Cost, 'f', -1, 64),
				})
			}
			r.Table([]string{"#", "Span", "Meaning", "Op", "Category", "Cost"}, rows)
		}

		if o.Fault != nil {
			r.Println(o.Stream)
			r.Println(strings.Repeat(" ", o.Fault.Position) + r.Styles().Error.Render("^ "+o.Fault.Kind))
			r.Error(o.Fault.Message)
			continue
		}
		r.Success(fmt.Sprintf("%s  (cost %s)", o.Program.String(), strconv.FormatFloat(o.Program.Cost(), 'f', -1, 64)))
	}
	return nil
}

func formatOp(in program.Instruction) string {
	if v, ok := in.Args["value"]; ok {
		return fmt.Sprintf("%s(%v)", in.Op, v)
	}
	return in.Op
}
