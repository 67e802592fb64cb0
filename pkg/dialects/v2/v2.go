// Package v2 provides the second sample dialect. Rows of its table run
// E, I, A, U, O and the vector and scalar primitives carry qualified names
// ("I vector", "X scalar").
package v2

import (
	"embed"

	"github.com/leapstack-labs/incant/pkg/dialect"
)

//go:embed source/*.yaml
var source embed.FS

// Dialect is the v2 dialect.
var Dialect = dialect.MustLoad(source, "source")

func init() {
	dialect.Register(Dialect)
}
