package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/incant/internal/engine"
	"github.com/leapstack-labs/incant/internal/state"
	"github.com/leapstack-labs/incant/pkg/decoder"
	"github.com/leapstack-labs/incant/pkg/dialect"
	"github.com/leapstack-labs/incant/pkg/lexicon"
	"github.com/leapstack-labs/incant/pkg/phoneme"
	"github.com/leapstack-labs/incant/pkg/program"
)

// maxBodyBytes bounds decode request bodies.
const maxBodyBytes = 1 << 20

// Handlers provides the HTTP handlers.
type Handlers struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, logger *slog.Logger) *Handlers {
	return &Handlers{engine: eng, logger: logger}
}

// DialectView summarizes one dialect.
type DialectView struct {
	ID        string   `json:"id"`
	Syllables int      `json:"syllables"`
	Words     int      `json:"words"`
	Meanings  []string `json:"meanings,omitempty"`
}

// LexiconView is the tabular form of a dialect's lexicon.
type LexiconView struct {
	Dialect    string       `json:"dialect"`
	Consonants []string     `json:"consonants"`
	Rows       []LexiconRow `json:"rows"`
	Gaps       []string     `json:"gaps"`
}

// LexiconRow is one vowel row of a LexiconView.
type LexiconRow struct {
	Vowel string   `json:"vowel"`
	Cells []string `json:"cells"`
}

// DecodeRequest is the body of POST /v1/dialects/{id}/decode.
type DecodeRequest struct {
	Stream string `json:"stream"`
}

// DecodeResponse is a decoded program, or the fault that stopped it
// together with the program emitted before the fault.
type DecodeResponse struct {
	Program *program.Program `json:"program"`
	Fault   *FaultView       `json:"fault,omitempty"`
}

// FaultView describes a runtime decode fault. WordStart is where the
// failing word began; for an unknown word Position points further in, at
// the syllable that matched nothing.
type FaultView struct {
	Kind      string `json:"kind"`
	Position  int    `json:"position"`
	WordStart int    `json:"word_start"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness and the current registry generation.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": h.engine.Generation(),
		"dialects":   h.engine.Registry().Len(),
	})
}

// ListDialects lists the loaded dialects.
func (h *Handlers) ListDialects(w http.ResponseWriter, _ *http.Request) {
	dialects := h.engine.Dialects()
	views := make([]DialectView, len(dialects))
	for i, d := range dialects {
		views[i] = dialectView(d, false)
	}
	h.writeJSON(w, http.StatusOK, views)
}

// GetDialect describes one dialect including its meanings.
func (h *Handlers) GetDialect(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dialect(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, dialectView(d, true))
}

// Lexicon returns the dialect's lexicon in its source layout.
func (h *Handlers) Lexicon(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dialect(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, lexiconView(d.Lexicon))
}

// Decode decodes the posted stream. A plain-text body is taken as the
// stream itself; ASCII whitespace is removed either way.
func (h *Handlers) Decode(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dialect(w, r)
	if !ok {
		return
	}
	stream, err := readStream(w, r)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		return
	case err != nil:
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.engine.Decode(r.Context(), d.ID, stream)
	if err == nil {
		h.writeJSON(w, http.StatusOK, DecodeResponse{Program: p})
		return
	}

	kind := engine.FaultKind(err)
	pos, isFault := engine.FaultPosition(err)
	if !isFault {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusUnprocessableEntity, DecodeResponse{
		Program: p,
		Fault:   &FaultView{Kind: kind, Position: pos, WordStart: wordStart(err, pos), Message: err.Error()},
	})
}

// Validate re-runs the ambiguity check for one dialect.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dialect(w, r)
	if !ok {
		return
	}
	report, err := h.engine.Validate(r.Context(), d.ID)
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, report)
}

// Reload rebuilds the registry from disk.
func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	err := h.engine.Reload(r.Context())
	body := map[string]any{
		"generation": h.engine.Generation(),
		"dialects":   h.engine.Registry().List(),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	h.writeJSON(w, http.StatusOK, body)
}

// ListRuns lists ledger entries. Query: dialect, kind, limit.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := state.RunFilter{
		Dialect: q.Get("dialect"),
		Kind:    state.RunKind(q.Get("kind")),
		Limit:   50,
	}
	switch filter.Kind {
	case "", state.RunKindValidate, state.RunKindDecode:
	default:
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown run kind %q", filter.Kind))
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		filter.Limit = n
	}

	runs, err := h.engine.Runs(r.Context(), filter)
	switch {
	case errors.Is(err, engine.ErrNoLedger):
		h.writeError(w, http.StatusNotFound, err)
	case err != nil:
		h.writeError(w, http.StatusInternalServerError, err)
	default:
		if runs == nil {
			runs = []*state.Run{}
		}
		h.writeJSON(w, http.StatusOK, runs)
	}
}

// GetRun returns one ledger entry.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.engine.Run(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, engine.ErrNoLedger), errors.Is(err, state.ErrRunNotFound):
		h.writeError(w, http.StatusNotFound, err)
	case err != nil:
		h.writeError(w, http.StatusInternalServerError, err)
	default:
		h.writeJSON(w, http.StatusOK, run)
	}
}

// Events streams reload events as server-sent events until the client
// goes away.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Debug("event stream cannot flush", slog.String("error", err.Error()))
		return
	}

	updates := h.engine.Subscribe()
	defer h.engine.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: reload\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// dialect resolves the {id} parameter, writing 404 when unknown.
func (h *Handlers) dialect(w http.ResponseWriter, r *http.Request) (*dialect.Dialect, bool) {
	d, err := h.engine.Dialect(chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, dialect.ErrDialectRequired) {
			status = http.StatusBadRequest
		}
		h.writeError(w, status, err)
		return nil, false
	}
	return d, true
}

func wordStart(err error, pos int) int {
	var unk *decoder.UnknownWordError
	if errors.As(err, &unk) {
		return unk.WordStart
	}
	return pos
}

// readStream fails with *http.MaxBytesError rather than decode a cut-off
// prefix of an oversized body.
func readStream(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	stream := string(body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req DecodeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", fmt.Errorf("invalid request body: %w", err)
		}
		stream = req.Stream
	}
	return phoneme.StripSpace(stream), nil
}

func dialectView(d *dialect.Dialect, withMeanings bool) DialectView {
	v := DialectView{ID: d.ID, Syllables: d.Lexicon.Len(), Words: d.Dictionary.Len()}
	if withMeanings {
		v.Meanings = d.Dictionary.Meanings()
	}
	return v
}

func lexiconView(t *lexicon.Table) LexiconView {
	g := t.Grid()
	v := LexiconView{Dialect: t.Dialect(), Gaps: []string{}}
	for _, c := range g.Consonants {
		v.Consonants = append(v.Consonants, c.String())
	}
	for _, row := range g.Rows {
		v.Rows = append(v.Rows, LexiconRow{Vowel: row.Vowel.String(), Cells: row.Cells})
	}
	for _, s := range t.Gaps() {
		v.Gaps = append(v.Gaps, s.String())
	}
	return v
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		h.logger.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
