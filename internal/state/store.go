// Package state keeps the run ledger: one row per validation or decode
// performed by the engine, stored in SQLite.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// ErrNotOpen is returned when the store is used before Open.
var ErrNotOpen = errors.New("database not opened")

// RunKind says what a run did.
type RunKind string

// Run kinds.
const (
	RunKindValidate RunKind = "validate"
	RunKindDecode   RunKind = "decode"
)

// RunStatus is the outcome of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusOK     RunStatus = "ok"
	RunStatusFailed RunStatus = "failed"
)

// Run is one ledger entry.
type Run struct {
	ID        string        `json:"id"`
	Kind      RunKind       `json:"kind"`
	Dialect   string        `json:"dialect"`
	Status    RunStatus     `json:"status"`
	Input     string        `json:"input,omitempty"`
	Units     int           `json:"units"`
	Cost      float64       `json:"cost"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// RunFilter narrows ListRuns. Zero fields match everything.
type RunFilter struct {
	Dialect string
	Kind    RunKind
	Limit   int
}

// Store persists runs.
type Store interface {
	RecordRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
	Close() error
}

// maxInputLen bounds the stored copy of a decoded stream.
const maxInputLen = 256

func truncateInput(s string) string {
	if len(s) <= maxInputLen {
		return s
	}
	return s[:maxInputLen-3] + "..."
}
