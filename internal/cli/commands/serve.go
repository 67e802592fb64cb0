package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/incant/internal/cli/config"
	"github.com/leapstack-labs/incant/internal/observe"
	"github.com/leapstack-labs/incant/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dialects and decoding over HTTP",
		Long: `Start an HTTP server exposing the loaded dialects.

Endpoints:
- GET  /healthz
- GET  /metrics                        (Prometheus)
- GET  /v1/dialects/                   list dialects
- GET  /v1/dialects/{id}               one dialect with its meanings
- GET  /v1/dialects/{id}/lexicon       syllable grid
- POST /v1/dialects/{id}/decode        decode a stream
- POST /v1/dialects/{id}/validate      re-check a dialect
- POST /v1/dialects/reload             reload dialects from disk
- GET  /v1/events                      reload events (server-sent events)
- GET  /v1/runs, /v1/runs/{id}         run ledger`,
		Example: `  incant serve
  incant serve --addr 127.0.0.1:9000 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := config.GetLogger(ctx)

			shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
			if err != nil {
				return fmt.Errorf("failed to init metrics: %w", err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					logger.Debug("metrics shutdown", slog.String("error", err.Error()))
				}
			}()

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			s := server.New(server.Config{
				Engine:            cc.Engine,
				Addr:              cc.Cfg.Server.Addr,
				ReadHeaderTimeout: cc.Cfg.Server.ReadHeaderTimeout,
				Watch:             cc.Cfg.Server.Watch,
				Debounce:          cc.Cfg.Watch.Debounce,
				Metrics:           observe.DefaultMetrics(),
				Logger:            cc.Logger,
			})

			cc.Renderer.Println(fmt.Sprintf("Serving %d dialects on %s", cc.Engine.Registry().Len(), cc.Cfg.Server.Addr))
			if cc.Cfg.Server.Watch {
				cc.Renderer.Muted(fmt.Sprintf("Watching %v", cc.Engine.Dirs()))
			}
			cc.Renderer.Muted("Press Ctrl+C to stop")

			return s.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", config.DefaultAddr, "Address to listen on")
	cmd.Flags().Bool("watch", false, "Reload dialects when their files change")
	cmd.Flags().Duration("debounce", config.DefaultDebounce, "Delay before reloading after a change")
	return cmd
}
