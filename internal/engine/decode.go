package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/incant/internal/state"
	"github.com/leapstack-labs/incant/pkg/decoder"
	"github.com/leapstack-labs/incant/pkg/program"
)

// Fault kinds reported to metrics and in API responses.
const (
	FaultMalformedInput = "malformed_input"
	FaultUnknownWord    = "unknown_word"
	FaultTruncatedWord  = "truncated_word"
	FaultCanceled       = "canceled"
)

// FaultKind classifies a decode error. It returns "" for nil and
// "error" for anything that is not a decode fault.
func FaultKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, decoder.ErrMalformedInput):
		return FaultMalformedInput
	case errors.Is(err, decoder.ErrUnknownWord):
		return FaultUnknownWord
	case errors.Is(err, decoder.ErrTruncatedWord):
		return FaultTruncatedWord
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FaultCanceled
	default:
		return "error"
	}
}

// FaultPosition returns the stream offset carried by a decode fault.
func FaultPosition(err error) (int, bool) {
	var (
		malformed *decoder.MalformedInputError
		unknown   *decoder.UnknownWordError
		truncated *decoder.TruncatedWordError
	)
	switch {
	case errors.As(err, &malformed):
		return malformed.Position, true
	case errors.As(err, &unknown):
		return unknown.Position, true
	case errors.As(err, &truncated):
		return truncated.Position, true
	}
	return 0, false
}

// Decode decodes stream with the named dialect and emits its program. On
// a fault the returned program holds what was emitted before it.
func (e *Engine) Decode(ctx context.Context, dialectID, stream string) (*program.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := e.Dialect(dialectID)
	if err != nil {
		return nil, err
	}

	attrs := metric.WithAttributes(attribute.String("dialect", d.ID))
	e.metrics.ActiveDecodes.Add(ctx, 1, attrs)
	defer e.metrics.ActiveDecodes.Add(ctx, -1, attrs)

	start := time.Now()
	p, err := d.Emitter.EmitSeq(withContext(ctx, d.Decode(strings.NewReader(stream))))
	elapsed := time.Since(start)

	fault := FaultKind(err)
	e.metrics.RecordDecode(ctx, d.ID, len(p.Units()), elapsed.Seconds(), fault)

	if e.recordRuns {
		run := &state.Run{
			Kind:      state.RunKindDecode,
			Dialect:   d.ID,
			Status:    state.RunStatusOK,
			Input:     stream,
			Units:     len(p.Units()),
			Cost:      p.Cost(),
			StartedAt: start,
			Duration:  elapsed,
		}
		if err != nil {
			run.Status = state.RunStatusFailed
			run.Error = err.Error()
		}
		// The ledger write must outlive a canceled request.
		e.recordRun(context.WithoutCancel(ctx), run)
	}

	if err != nil {
		e.logger.Debug("decode fault",
			slog.String("dialect", d.ID),
			slog.String("kind", fault),
			slog.String("error", err.Error()))
		return p, fmt.Errorf("dialect %s: %w", d.ID, err)
	}
	return p, nil
}

// withContext stops seq with ctx's error once ctx is done.
func withContext(ctx context.Context, seq iter.Seq2[decoder.DecodedUnit, error]) iter.Seq2[decoder.DecodedUnit, error] {
	return func(yield func(decoder.DecodedUnit, error) bool) {
		for u, err := range seq {
			if cerr := ctx.Err(); cerr != nil {
				yield(decoder.DecodedUnit{}, cerr)
				return
			}
			if !yield(u, err) {
				return
			}
		}
	}
}

// Result is the outcome of one stream in DecodeMany.
type Result struct {
	Stream  string
	Program *program.Program
	Err     error
}

// DecodeMany decodes streams concurrently with the named dialect. Faults
// are reported per stream in the results, which keep the input order. The
// returned error is set only for an unknown dialect or a done context.
func (e *Engine) DecodeMany(ctx context.Context, dialectID string, streams []string) ([]Result, error) {
	if _, err := e.Dialect(dialectID); err != nil {
		return nil, err
	}

	results := make([]Result, len(streams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, stream := range streams {
		g.Go(func() error {
			p, err := e.Decode(gctx, dialectID, stream)
			results[i] = Result{Stream: stream, Program: p, Err: err}
			if cerr := gctx.Err(); cerr != nil {
				return cerr
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
