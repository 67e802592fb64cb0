package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/incant/internal/cli/config"
	"github.com/leapstack-labs/incant/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate dialects whenever their files change",
		Long: `Watch the dialects directory and rebuild every dialect after a change,
printing one line per reload. Useful while authoring a lexicon: an
ambiguous word set is reported as soon as the file is saved.`,
		Example: `  incant watch
  incant watch --debounce 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cc.Renderer.Println(fmt.Sprintf("Watching %s", strings.Join(cc.Engine.Dirs(), ", ")))
			cc.Renderer.Muted("Press Ctrl+C to stop")

			events := cc.Engine.Subscribe()
			defer cc.Engine.Unsubscribe(events)

			go func() {
				for ev := range events {
					if ev.Error != "" {
						cc.Renderer.StatusLine(fmt.Sprintf("generation %d", ev.Generation), "failed", ev.Error)
						continue
					}
					cc.Renderer.StatusLine(fmt.Sprintf("generation %d", ev.Generation), "success",
						strings.Join(ev.Dialects, ", "))
				}
			}()

			w := watch.New(cc.Engine, watch.Config{
				Dirs:     cc.Engine.Dirs(),
				Debounce: cc.Cfg.Watch.Debounce,
				Logger:   cc.Logger,
			})
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().Duration("debounce", config.DefaultDebounce, "Delay before reloading after a change")
	return cmd
}
