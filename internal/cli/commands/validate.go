package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/incant/internal/cli/output"
	"github.com/leapstack-labs/incant/internal/engine"
)

// errRejected is returned when at least one dialect fails validation.
var errRejected = errors.New("dialect validation failed")

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir...]",
		Short: "Check dialects for ambiguous segmentations",
		Long: `Build dialects and check that every stream of their words has exactly one
segmentation.

With directories, each dialect found in them is built and checked without
being registered. Without arguments, every loaded dialect is re-checked.
Exits non-zero when any dialect is rejected.`,
		Example: `  incant validate
  incant validate ./dialects/draft
  incant validate ./dialects -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			var reports []engine.Report
			if len(args) > 0 {
				// Per-directory failures are carried in the reports.
				reports, err = cc.Engine.ValidateDirs(ctx, args...)
				if reports == nil && err != nil {
					return err
				}
				if len(reports) == 0 {
					return fmt.Errorf("no dialects found in %v", args)
				}
			} else {
				for _, d := range cc.Engine.Dialects() {
					report, _ := cc.Engine.Validate(ctx, d.ID)
					reports = append(reports, report)
				}
			}

			if err := renderReports(cc.Renderer, reports); err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				if !r.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d rejected", errRejected, failed, len(reports))
			}
			return nil
		},
	}
}

func renderReports(r *output.Renderer, reports []engine.Report) error {
	if r.EffectiveMode() == output.ModeJSON {
		if reports == nil {
			reports = []engine.Report{}
		}
		return r.JSON(reports)
	}

	r.Header(1, "Validation")
	if len(reports) == 0 {
		r.Muted("No dialects found")
		return nil
	}
	for _, rep := range reports {
		name := rep.Dialect
		if rep.Dir != "" {
			name += " (" + rep.Dir + ")"
		}
		if rep.OK() {
			r.StatusLine(name, "success",
				fmt.Sprintf("%d syllables, %d words, %d meanings", rep.Syllables, rep.Words, rep.Meanings))
			continue
		}
		r.StatusLine(name, "failed", rep.Err.Error())
	}
	return nil
}
