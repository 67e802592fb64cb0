package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// MiniEmit is the emission table written by WriteDialect.
const MiniEmit = `
Add: [{op: add, category: operator}]
Multiply: [{op: mul, category: operator}]
Five: [{op: push, category: number, cost: 5, args: {value: 5}}]
`

// WriteDialect writes a three-syllable dialect named id into root/id and
// returns that directory. MA is Add, SA is Multiply and TA is Five.
func WriteDialect(t testing.TB, root, id string) string {
	t.Helper()
	table := fmt.Sprintf(`dialect: %s
consonants: [M, S, T]
rows:
  - vowel: A
    cells: [Add, Multiply, Five]
`, id)
	return WriteDialectFiles(t, root, id, map[string]string{
		"table.yaml": table,
		"emit.yaml":  MiniEmit,
	})
}

// WriteDialectFiles writes files into root/name and returns that directory.
func WriteDialectFiles(t testing.TB, root, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for file, body := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	return dir
}
