package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/incant/internal/loader"
	"github.com/leapstack-labs/incant/internal/state"
	"github.com/leapstack-labs/incant/pkg/ambiguity"
	"github.com/leapstack-labs/incant/pkg/dialect"
	"github.com/leapstack-labs/incant/pkg/phoneme"
)

// Report is the outcome of validating one dialect.
type Report struct {
	Dialect   string `json:"dialect"`
	Dir       string `json:"dir,omitempty"`
	Syllables int    `json:"syllables"`
	Words     int    `json:"words"`
	Meanings  int    `json:"meanings"`
	Err       error  `json:"-"`
}

// OK reports whether the dialect was accepted.
func (r Report) OK() bool { return r.Err == nil }

// MarshalJSON adds the error text and an ok flag.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	out := struct {
		plain
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}{plain: plain(r), OK: r.OK()}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

func reportFor(d *dialect.Dialect, dir string) Report {
	return Report{
		Dialect:   d.ID,
		Dir:       dir,
		Syllables: d.Lexicon.Len(),
		Words:     d.Dictionary.Len(),
		Meanings:  len(d.Dictionary.Meanings()),
	}
}

// Validate re-runs the ambiguity check over a registered dialect's
// dictionary and records the result.
func (e *Engine) Validate(ctx context.Context, dialectID string) (Report, error) {
	d, err := e.Dialect(dialectID)
	if err != nil {
		return Report{Dialect: dialectID, Err: err}, err
	}

	words := d.Dictionary.Words()
	seqs := make([][]phoneme.Syllable, len(words))
	for i, w := range words {
		seqs[i] = w.Syllables
	}

	report := reportFor(d, "")
	report.Err = ambiguity.Check(seqs)
	e.recordValidation(ctx, d.ID, "", report.Err)
	return report, report.Err
}

// ValidateDirs builds every dialect found under roots without publishing
// them. Each directory yields one report.
func (e *Engine) ValidateDirs(ctx context.Context, roots ...string) ([]Report, error) {
	result, err := loader.Discover(roots...)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(result.Sources)+len(result.Errors))
	for _, src := range result.Sources {
		reports = append(reports, reportFor(src.Dialect, src.Dir))
		e.recordValidation(ctx, src.Dialect.ID, src.Dir, nil)
	}
	for _, srcErr := range result.Errors {
		id := filepath.Base(srcErr.Dir)
		reports = append(reports, Report{Dialect: id, Dir: srcErr.Dir, Err: srcErr.Err})
		e.recordValidation(ctx, id, srcErr.Dir, srcErr.Err)
	}
	return reports, result.Err()
}

func (e *Engine) recordValidation(ctx context.Context, dialectID, dir string, err error) {
	e.metrics.RecordValidation(ctx, dialectID, err == nil)

	run := &state.Run{
		Kind:      state.RunKindValidate,
		Dialect:   dialectID,
		Status:    state.RunStatusOK,
		Input:     dir,
		StartedAt: time.Now(),
	}
	if err != nil {
		run.Status = state.RunStatusFailed
		run.Error = err.Error()
		e.logger.Warn("dialect rejected",
			slog.String("dialect", dialectID),
			slog.String("dir", dir),
			slog.String("error", err.Error()))
	} else {
		e.logger.Debug("dialect accepted", slog.String("dialect", dialectID), slog.String("dir", dir))
	}
	e.recordRun(ctx, run)
}

// Describe returns a short line for a report, for logs and plain output.
func (r Report) Describe() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: rejected: %v", r.Dialect, r.Err)
	}
	return fmt.Sprintf("%s: ok (%d syllables, %d words, %d meanings)", r.Dialect, r.Syllables, r.Words, r.Meanings)
}
