package dialect

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/incant/pkg/lexicon"
	"github.com/leapstack-labs/incant/pkg/program"
)

// Source file names inside a dialect directory. Only the table is required.
const (
	TableFile = "table.yaml"
	WordsFile = "words.yaml"
	EmitFile  = "emit.yaml"
)

type wordsFile struct {
	Words []WordSource `yaml:"words"`
}

// Load reads the dialect stored in dir of fsys and builds it.
func Load(fsys fs.FS, dir string) (*Dialect, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, TableFile))
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	table, err := lexicon.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path.Join(dir, TableFile), err)
	}

	var words wordsFile
	if err := readOptional(fsys, path.Join(dir, WordsFile), &words); err != nil {
		return nil, err
	}

	emission := program.EmissionTable{}
	if err := readOptional(fsys, path.Join(dir, EmitFile), &emission); err != nil {
		return nil, err
	}

	d, err := New(table, words.Words, emission)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return d, nil
}

// MustLoad is Load for embedded sources that are known to be valid.
func MustLoad(fsys fs.FS, dir string) *Dialect {
	d, err := Load(fsys, dir)
	if err != nil {
		panic(err)
	}
	return d
}

// IsSource reports whether dir of fsys looks like a dialect directory.
func IsSource(fsys fs.FS, dir string) bool {
	info, err := fs.Stat(fsys, path.Join(dir, TableFile))
	return err == nil && !info.IsDir()
}

func readOptional(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
