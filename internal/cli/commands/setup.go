// Package commands implements the incant subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/incant/internal/cli/config"
	"github.com/leapstack-labs/incant/internal/cli/output"
	"github.com/leapstack-labs/incant/internal/engine"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// WithConfig returns ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithRenderer returns ctx carrying r.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a loaded engine.
// Returns the context and a cleanup function that must be called (typically via defer).
//
// A dialect directory that fails to build is logged and left out; the
// remaining dialects are still served.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	if err := eng.Load(cmd.Context()); err != nil {
		cc.Logger.Warn("some dialects failed to load", slog.String("error", err.Error()))
	}
	cc.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only print.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := getConfig(ctx)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: getRenderer(cmd, cfg),
	}
}

// getConfig returns the configuration stored by the root command, the
// last loaded one, or the defaults.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	if c := config.GetCurrentConfig(); c != nil {
		return c
	}
	return &config.Config{
		DialectsDir:  config.DefaultDialectsDir,
		StatePath:    config.DefaultStateFile,
		RecordRuns:   true,
		OutputFormat: config.DefaultOutput,
		LogLevel:     config.DefaultLogLevel,
		Server: config.ServerConfig{
			Addr:              config.DefaultAddr,
			ReadHeaderTimeout: config.DefaultReadHeaderTimeout,
		},
		Watch:  config.WatchConfig{Debounce: config.DefaultDebounce},
		Decode: config.DecodeConfig{Concurrency: config.DefaultConcurrency},
	}
}

func getRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	if ctx := cmd.Context(); ctx != nil {
		if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
			return r
		}
	}
	mode, _ := output.ParseMode(cfg.OutputFormat)
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	var dirs []string
	if cfg.DialectsDir != "" {
		dirs = append(dirs, cfg.DialectsDir)
	}
	return engine.New(engine.Config{
		DialectsDirs: dirs,
		StatePath:    cfg.StatePath,
		RecordRuns:   cfg.RecordRuns,
		Concurrency:  cfg.Decode.Concurrency,
		Logger:       logger,
	})
}
