package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/incant/internal/cli/output"
	"github.com/leapstack-labs/incant/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		limit int
		kind  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded validation and decode runs",
		Long: `Show the run ledger, newest first. Every validation and, unless
record_runs is off, every decode is recorded.

--dialect narrows the list to one dialect.`,
		Example: `  incant history
  incant history --kind decode --limit 5
  incant history --dialect v2 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch state.RunKind(kind) {
			case "", state.RunKindValidate, state.RunKindDecode:
			default:
				return fmt.Errorf("unknown run kind %q (want validate or decode)", kind)
			}
			if limit < 0 {
				return fmt.Errorf("limit must not be negative, got %d", limit)
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := cc.Engine.Runs(cmd.Context(), state.RunFilter{
				Dialect: cc.Cfg.Dialect,
				Kind:    state.RunKind(kind),
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			return renderRuns(cc.Renderer, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().StringVar(&kind, "kind", "", "Only show runs of this kind (validate|decode)")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(state.RunKindValidate), string(state.RunKindDecode)}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func renderRuns(r *output.Renderer, runs []*state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.JSON(runs)
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(runs)))
	if len(runs) == 0 {
		r.Muted("No runs recorded")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		detail := run.Input
		if run.Error != "" {
			detail = run.Error
		}
		rows[i] = []string{
			run.StartedAt.Local().Format(time.DateTime),
			string(run.Kind),
			run.Dialect,
			string(run.Status),
			strconv.Itoa(run.Units),
			run.Duration.Round(time.Microsecond).String(),
			detail,
		}
	}
	r.Table([]string{"Started", "Kind", "Dialect", "Status", "Units", "Duration", "Detail"}, rows)
	return nil
}
