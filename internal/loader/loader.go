// Package loader discovers dialect source directories on disk and builds
// them into validated dialects.
//
// A dialect directory holds table.yaml and, optionally, words.yaml and
// emit.yaml. A root passed to Discover is either such a directory or a
// parent whose immediate children are.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/incant/pkg/dialect"
)

// Source is one dialect built from disk.
type Source struct {
	Dir     string
	Hash    string
	Dialect *dialect.Dialect
}

// SourceError is a dialect directory that failed to build.
type SourceError struct {
	Dir string
	Err error
}

func (e *SourceError) Error() string { return fmt.Sprintf("%s: %v", e.Dir, e.Err) }

func (e *SourceError) Unwrap() error { return e.Err }

// Result is the outcome of one discovery pass.
type Result struct {
	Sources  []Source
	Errors   []*SourceError
	Duration time.Duration
}

// HasErrors reports whether any directory failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Err joins every directory failure, or returns nil.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Dialects returns the successfully built dialects.
func (r *Result) Dialects() []*dialect.Dialect {
	out := make([]*dialect.Dialect, len(r.Sources))
	for i, s := range r.Sources {
		out[i] = s.Dialect
	}
	return out
}

// Summary returns a one-line description of the pass.
func (r *Result) Summary() string {
	return fmt.Sprintf("Dialects: %d loaded, %d failed | Duration: %s",
		len(r.Sources), len(r.Errors), r.Duration.Round(time.Millisecond))
}

// Discover builds every dialect found under roots. Missing roots are
// skipped. Failures of single directories are collected, not fatal.
func Discover(roots ...string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	dirs, err := Dirs(roots...)
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		src, err := LoadDir(dir)
		if err != nil {
			result.Errors = append(result.Errors, &SourceError{Dir: dir, Err: err})
			continue
		}
		result.Sources = append(result.Sources, *src)
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Dirs lists the dialect directories under roots in a stable order.
func Dirs(roots ...string) ([]string, error) {
	var dirs []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		info, err := os.Stat(root)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s: not a directory", root)
		}

		fsys := os.DirFS(root)
		if dialect.IsSource(fsys, ".") {
			dirs = append(dirs, root)
			continue
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", root, err)
		}
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if dialect.IsSource(fsys, e.Name()) {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// LoadDir builds the dialect stored in dir.
func LoadDir(dir string) (*Source, error) {
	fsys := os.DirFS(dir)
	if !dialect.IsSource(fsys, ".") {
		return nil, fmt.Errorf("no %s in %s", dialect.TableFile, dir)
	}
	hash, err := Hash(dir)
	if err != nil {
		return nil, err
	}
	d, err := dialect.Load(fsys, ".")
	if err != nil {
		return nil, err
	}
	return &Source{Dir: dir, Hash: hash, Dialect: d}, nil
}

// Hash returns a content hash over the source files of dir. Absent
// optional files contribute nothing.
func Hash(dir string) (string, error) {
	h := sha256.New()
	for _, name := range []string{dialect.TableFile, dialect.WordsFile, dialect.EmitFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
