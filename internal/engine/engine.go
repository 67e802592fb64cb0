// Package engine owns the loaded dialects of a running process. It builds
// the registry at startup and on reload, decodes streams against an
// explicitly named dialect, and writes every validation and decode to the
// run ledger and the metrics.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/leapstack-labs/incant/internal/loader"
	"github.com/leapstack-labs/incant/internal/notify"
	"github.com/leapstack-labs/incant/internal/observe"
	"github.com/leapstack-labs/incant/internal/state"
	"github.com/leapstack-labs/incant/pkg/dialect"
	_ "github.com/leapstack-labs/incant/pkg/dialects/v1" // Register built-in dialect v1
	_ "github.com/leapstack-labs/incant/pkg/dialects/v2" // Register built-in dialect v2
)

// DefaultConcurrency bounds DecodeMany when Config.Concurrency is unset.
const DefaultConcurrency = 4

// ErrNoLedger is returned by Runs when no state store is configured.
var ErrNoLedger = errors.New("run ledger disabled")

// Config holds engine configuration.
type Config struct {
	// DialectsDirs are roots searched for dialect directories on disk, in
	// addition to the built-in dialects.
	DialectsDirs []string
	// StatePath is the SQLite run ledger. Empty disables the ledger unless
	// Store is set.
	StatePath string
	// Store overrides StatePath with an already opened store. The engine
	// does not close it.
	Store state.Store
	// RecordRuns writes decode runs to the ledger. Validation runs are
	// always written when a ledger exists.
	RecordRuns bool
	// Concurrency bounds DecodeMany.
	Concurrency int
	// Metrics defaults to observe.DefaultMetrics().
	Metrics *observe.Metrics
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Engine is safe for concurrent use. Decodes never wait on a reload: they
// see the registry that was current when they started.
type Engine struct {
	logger      *slog.Logger
	metrics     *observe.Metrics
	store       state.Store
	ownsStore   bool
	recordRuns  bool
	concurrency int
	dirs        []string

	registry   atomic.Pointer[dialect.Registry]
	generation atomic.Int64
	notifier   *notify.Notifier

	loadMu sync.Mutex
	hashes map[string]string
}

// New creates an engine serving the built-in dialects. Call Load to add
// the dialects found on disk.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	e := &Engine{
		logger:      logger,
		metrics:     metrics,
		store:       cfg.Store,
		recordRuns:  cfg.RecordRuns,
		concurrency: concurrency,
		dirs:        cfg.DialectsDirs,
		notifier:    notify.New(),
		hashes:      make(map[string]string),
	}
	e.registry.Store(dialect.Builtins())

	if e.store == nil && cfg.StatePath != "" {
		store, err := openStore(cfg.StatePath, logger)
		if err != nil {
			return nil, err
		}
		e.store = store
		e.ownsStore = true
	}
	return e, nil
}

func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the run ledger if the engine opened it.
func (e *Engine) Close() error {
	if e.ownsStore && e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Dirs returns the dialect roots the engine loads from.
func (e *Engine) Dirs() []string {
	return append([]string(nil), e.dirs...)
}

// Registry returns the current registry. It is never mutated after it
// is published.
func (e *Engine) Registry() *dialect.Registry {
	return e.registry.Load()
}

// Generation counts successful and partial loads.
func (e *Engine) Generation() int64 {
	return e.generation.Load()
}

// Dialect returns the dialect for id from the current registry.
func (e *Engine) Dialect(id string) (*dialect.Dialect, error) {
	return e.registry.Load().Get(id)
}

// Dialects returns the current dialects ordered by id.
func (e *Engine) Dialects() []*dialect.Dialect {
	reg := e.registry.Load()
	ids := reg.List()
	out := make([]*dialect.Dialect, 0, len(ids))
	for _, id := range ids {
		if d, err := reg.Get(id); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// Subscribe returns a channel of reload events.
func (e *Engine) Subscribe() chan notify.Event {
	return e.notifier.Subscribe()
}

// Unsubscribe stops delivery to ch and closes it.
func (e *Engine) Unsubscribe(ch chan notify.Event) {
	e.notifier.Unsubscribe(ch)
}

// Load rebuilds the registry from the built-in dialects and the dialect
// directories on disk, then publishes it. A directory that fails to build
// is left out and its error returned; the other dialects are still
// published. Validation runs are recorded for new or changed directories.
func (e *Engine) Load(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.logger.Debug("loading dialects", slog.Any("dirs", e.dirs))

	result, err := loader.Discover(e.dirs...)
	if err != nil {
		return fmt.Errorf("dialect discovery failed: %w", err)
	}

	reg := dialect.Builtins()
	errs := []error{result.Err()}
	hashes := make(map[string]string, len(result.Sources))
	changed := 0

	for _, src := range result.Sources {
		regErr := reg.Register(src.Dialect)
		if regErr != nil {
			regErr = &loader.SourceError{Dir: src.Dir, Err: regErr}
			errs = append(errs, regErr)
		}
		if e.hashes[src.Dir] == src.Hash && regErr == nil {
			hashes[src.Dir] = src.Hash
			continue
		}
		changed++
		if regErr == nil {
			hashes[src.Dir] = src.Hash
		}
		e.recordValidation(ctx, src.Dialect.ID, src.Dir, regErr)
	}
	for _, srcErr := range result.Errors {
		changed++
		e.recordValidation(ctx, filepath.Base(srcErr.Dir), srcErr.Dir, srcErr.Err)
	}

	e.hashes = hashes
	e.registry.Store(reg)
	gen := e.generation.Add(1)

	e.logger.Info("dialects loaded",
		slog.Int64("generation", gen),
		slog.Int("dialects", reg.Len()),
		slog.Int("changed", changed),
		slog.Int("failed", len(result.Errors)),
		slog.Int64("duration_ms", result.Duration.Milliseconds()))

	return errors.Join(errs...)
}

// Reload is Load followed by a reload metric and an event to subscribers.
func (e *Engine) Reload(ctx context.Context) error {
	err := e.Load(ctx)
	e.metrics.RecordReload(ctx, err == nil)

	ev := notify.Event{
		Generation: e.Generation(),
		Dialects:   e.registry.Load().List(),
	}
	if err != nil {
		ev.Error = err.Error()
		e.logger.Warn("reload finished with errors", slog.String("error", err.Error()))
	}
	e.notifier.Broadcast(ev)
	return err
}

// Runs lists ledger entries, newest first.
func (e *Engine) Runs(ctx context.Context, filter state.RunFilter) ([]*state.Run, error) {
	if e.store == nil {
		return nil, ErrNoLedger
	}
	return e.store.ListRuns(ctx, filter)
}

// Run returns one ledger entry.
func (e *Engine) Run(ctx context.Context, id string) (*state.Run, error) {
	if e.store == nil {
		return nil, ErrNoLedger
	}
	return e.store.GetRun(ctx, id)
}

func (e *Engine) recordRun(ctx context.Context, run *state.Run) {
	if e.store == nil {
		return
	}
	if err := e.store.RecordRun(ctx, run); err != nil {
		e.logger.Warn("failed to record run",
			slog.String("dialect", run.Dialect),
			slog.String("kind", string(run.Kind)),
			slog.String("error", err.Error()))
		return
	}
	e.logger.Debug("recorded run", slog.String("run_id", run.ID), slog.String("dialect", run.Dialect))
}
