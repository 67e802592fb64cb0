// Package v1 provides the first sample dialect. Rows of its table run
// A, E, I, O, U and every populated syllable is a one-syllable word.
//
// Import it for its side effect:
//
//	import _ "github.com/leapstack-labs/incant/pkg/dialects/v1"
package v1

import (
	"embed"

	"github.com/leapstack-labs/incant/pkg/dialect"
)

//go:embed source/*.yaml
var source embed.FS

// Dialect is the v1 dialect.
var Dialect = dialect.MustLoad(source, "source")

func init() {
	dialect.Register(Dialect)
}
