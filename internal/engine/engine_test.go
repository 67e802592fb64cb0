package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/leapstack-labs/incant/internal/observe"
	"github.com/leapstack-labs/incant/internal/state"
	"github.com/leapstack-labs/incant/internal/testutil"
	"github.com/leapstack-labs/incant/pkg/ambiguity"
	"github.com/leapstack-labs/incant/pkg/decoder"
	"github.com/leapstack-labs/incant/pkg/dialect"
	"github.com/leapstack-labs/incant/pkg/lexicon"
)

type fixture struct {
	engine *Engine
	reader *sdkmetric.ManualReader
	root   string
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	root := t.TempDir()
	cfg := Config{
		DialectsDirs: []string{root},
		StatePath:    ":memory:",
		RecordRuns:   true,
		Metrics:      metrics,
		Logger:       testutil.NewTestLogger(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return &fixture{engine: e, reader: reader, root: root}
}

func (f *fixture) counter(t *testing.T, name, key, value string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestNewServesBuiltins(t *testing.T) {
	f := newFixture(t, nil)

	ids := make([]string, 0)
	for _, d := range f.engine.Dialects() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"v1", "v2"}, ids)
	assert.Equal(t, int64(0), f.engine.Generation())
	assert.Equal(t, []string{f.root}, f.engine.Dirs())
}

func TestNewWithoutLedger(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	_, err = e.Runs(context.Background(), state.RunFilter{})
	assert.ErrorIs(t, err, ErrNoLedger)

	_, err = e.Decode(context.Background(), "v1", "MA")
	assert.NoError(t, err)
}

func TestNewCreatesStateDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	e, err := New(Config{StatePath: path})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	testutil.WriteDialect(t, f.root, "mini")

	require.NoError(t, f.engine.Load(ctx))
	assert.Equal(t, int64(1), f.engine.Generation())
	assert.Equal(t, []string{"mini", "v1", "v2"}, f.engine.Registry().List())

	runs, err := f.engine.Runs(ctx, state.RunFilter{Kind: state.RunKindValidate})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "mini", runs[0].Dialect)
	assert.Equal(t, state.RunStatusOK, runs[0].Status)
	assert.Equal(t, int64(1), f.counter(t, "incant.validations", "dialect", "mini"))

	// Unchanged sources are not validated again.
	require.NoError(t, f.engine.Load(ctx))
	runs, err = f.engine.Runs(ctx, state.RunFilter{Kind: state.RunKindValidate})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, int64(2), f.engine.Generation())
}

func TestLoadKeepsGoodDialects(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	testutil.WriteDialect(t, f.root, "good")
	testutil.WriteDialectFiles(t, f.root, "broken", map[string]string{
		"table.yaml": "dialect: broken\nconsonants: [M]\nrows:\n  - {vowel: A, cells: [Add]}\n  - {vowel: A, cells: [Again]}\n",
	})

	err := f.engine.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, lexicon.ErrDuplicateSyllable)
	assert.Equal(t, []string{"good", "v1", "v2"}, f.engine.Registry().List())

	runs, err := f.engine.Runs(ctx, state.RunFilter{Dialect: "broken"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "duplicate syllable")
}

func TestLoadRejectsBuiltinCollision(t *testing.T) {
	f := newFixture(t, nil)
	testutil.WriteDialect(t, f.root, "v1")

	err := f.engine.Load(context.Background())
	assert.ErrorIs(t, err, dialect.ErrDuplicateDialect)

	d, err := f.engine.Dialect("v1")
	require.NoError(t, err)
	assert.Equal(t, 27, d.Lexicon.Len(), "built-in wins")
}

func TestReloadNotifies(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	ch := f.engine.Subscribe()
	defer f.engine.Unsubscribe(ch)

	testutil.WriteDialect(t, f.root, "mini")
	require.NoError(t, f.engine.Reload(ctx))

	select {
	case ev := <-ch:
		assert.Equal(t, int64(1), ev.Generation)
		assert.Equal(t, []string{"mini", "v1", "v2"}, ev.Dialects)
		assert.Empty(t, ev.Error)
	case <-time.After(time.Second):
		t.Fatal("no reload event")
	}
	assert.Equal(t, int64(1), f.counter(t, "incant.reloads", "status", "ok"))

	require.NoError(t, os.RemoveAll(filepath.Join(f.root, "mini")))
	require.NoError(t, f.engine.Reload(ctx))
	_, err := f.engine.Dialect("mini")
	assert.ErrorIs(t, err, dialect.ErrUnknownDialect)
}

func TestDecode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	p, err := f.engine.Decode(ctx, "v1", "TATEMAVA")
	require.NoError(t, err)
	assert.Equal(t, "push(5) push(10) add slider", p.String())
	assert.Equal(t, 4, len(p.Units()))

	runs, err := f.engine.Runs(ctx, state.RunFilter{Kind: state.RunKindDecode})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "TATEMAVA", runs[0].Input)
	assert.Equal(t, 4, runs[0].Units)
	assert.InDelta(t, p.Cost(), runs[0].Cost, 1e-9)

	got, err := f.engine.Run(ctx, runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, runs[0].ID, got.ID)

	assert.Equal(t, int64(4), f.counter(t, "incant.decode.units", "dialect", "v1"))
}

func TestDecodeDialectSelection(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.Decode(ctx, "", "MA")
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)

	_, err = f.engine.Decode(ctx, "v9", "MA")
	assert.ErrorIs(t, err, dialect.ErrUnknownDialect)

	// KA is "I" in v1 and "I vector" in v2.
	p1, err := f.engine.Decode(ctx, "v1", "KA")
	require.NoError(t, err)
	p2, err := f.engine.Decode(ctx, "V2", "KA")
	require.NoError(t, err)
	assert.Equal(t, "I", p1.Units()[0].Word.Meaning)
	assert.Equal(t, "I vector", p2.Units()[0].Word.Meaning)
}

func TestDecodeFaults(t *testing.T) {
	tests := []struct {
		name     string
		stream   string
		kind     string
		sentinel error
		position int
		units    int
	}{
		{"malformed", "MAXA", FaultMalformedInput, decoder.ErrMalformedInput, 2, 1},
		{"unknown", "MAWA", FaultUnknownWord, decoder.ErrUnknownWord, 2, 1},
		{"truncated", "MAS", FaultTruncatedWord, decoder.ErrTruncatedWord, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()

			p, err := f.engine.Decode(ctx, "v1", tt.stream)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.kind, FaultKind(err))
			pos, ok := FaultPosition(err)
			require.True(t, ok)
			assert.Equal(t, tt.position, pos)
			require.NotNil(t, p)
			assert.Len(t, p.Units(), tt.units)

			runs, err := f.engine.Runs(ctx, state.RunFilter{})
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, state.RunStatusFailed, runs[0].Status)
			assert.Equal(t, int64(1), f.counter(t, "incant.decode.faults", "kind", tt.kind))
		})
	}
}

func TestDecodeCanceled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Decode(ctx, "v1", "MASA")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, FaultCanceled, FaultKind(err))
}

func TestDecodeWithoutRecording(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.RecordRuns = false })
	ctx := context.Background()

	_, err := f.engine.Decode(ctx, "v1", "MA")
	require.NoError(t, err)

	runs, err := f.engine.Runs(ctx, state.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDecodeMany(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Concurrency = 2 })
	streams := []string{"MA", "SASA", "MAS", "TATE", "KO"}

	results, err := f.engine.DecodeMany(context.Background(), "v1", streams)
	require.NoError(t, err)
	require.Len(t, results, len(streams))

	for i, r := range results {
		assert.Equal(t, streams[i], r.Stream)
	}
	assert.Equal(t, "add", results[0].Program.String())
	assert.Equal(t, "mul mul", results[1].Program.String())
	assert.ErrorIs(t, results[2].Err, decoder.ErrTruncatedWord)
	assert.Equal(t, "push(5) push(10)", results[3].Program.String())
	assert.ErrorIs(t, results[4].Err, decoder.ErrUnknownWord)

	_, err = f.engine.DecodeMany(context.Background(), "", streams)
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)
}

func TestValidate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	report, err := f.engine.Validate(ctx, "v2")
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 27, report.Syllables)
	assert.Equal(t, 27, report.Words)
	assert.Contains(t, report.Describe(), "v2: ok")

	_, err = f.engine.Validate(ctx, "nope")
	assert.ErrorIs(t, err, dialect.ErrUnknownDialect)
}

func TestValidateDirs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	other := t.TempDir()
	testutil.WriteDialect(t, other, "mini")
	testutil.WriteDialectFiles(t, other, "classic", map[string]string{
		"table.yaml": "dialect: classic\nconsonants: [M, R, S]\nrows:\n  - {vowel: E, cells: [Me, Re, \"\"]}\n  - {vowel: I, cells: [\"\", \"\", Si]}\n",
		"words.yaml": "words:\n  - {spelling: ME}\n  - {spelling: MESI, meaning: Mesi}\n",
	})

	reports, err := f.engine.ValidateDirs(ctx, other)
	require.Error(t, err)
	assert.ErrorIs(t, err, ambiguity.ErrAmbiguousSegmentation)
	require.Len(t, reports, 2)

	assert.Equal(t, "mini", reports[0].Dialect)
	assert.True(t, reports[0].OK())
	assert.Equal(t, "classic", reports[1].Dialect)
	assert.False(t, reports[1].OK())
	assert.Contains(t, reports[1].Describe(), "rejected")

	// Validated directories are not published.
	_, err = f.engine.Dialect("mini")
	assert.ErrorIs(t, err, dialect.ErrUnknownDialect)

	runs, err := f.engine.Runs(ctx, state.RunFilter{Kind: state.RunKindValidate})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestReportJSON(t *testing.T) {
	data, err := Report{Dialect: "x", Err: assert.AnError}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"dialect":"x","syllables":0,"words":0,"meanings":0,"ok":false,"error":"`+assert.AnError.Error()+`"}`, string(data))
}
