package program

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leapstack-labs/incant/pkg/decoder"
)

// Program is an ordered instruction list. It is immutable once emitted.
type Program struct {
	dialect string
	units   []decoder.DecodedUnit
	instrs  []Instruction
	starts  []int // index of each unit's first instruction
}

// Dialect returns the dialect the program was decoded under.
func (p *Program) Dialect() string { return p.dialect }

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.instrs) }

// Instructions returns a copy of the instruction list.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.instrs))
	copy(out, p.instrs)
	return out
}

// Units returns a copy of the decoded units the program was emitted from.
func (p *Program) Units() []decoder.DecodedUnit {
	out := make([]decoder.DecodedUnit, len(p.units))
	copy(out, p.units)
	return out
}

// Cost returns the total casting cost.
func (p *Program) Cost() float64 {
	var total float64
	for _, in := range p.instrs {
		total += in.Cost
	}
	return total
}

// Split divides the program after its first n units into the committed spell
// and the staged tail. n is clamped to the unit count.
func (p *Program) Split(n int) (committed, staged *Program) {
	n = max(0, min(n, len(p.units)))
	cut := len(p.instrs)
	if n < len(p.units) {
		cut = p.starts[n]
	}

	committed = &Program{
		dialect: p.dialect,
		units:   p.units[:n:n],
		instrs:  p.instrs[:cut:cut],
		starts:  p.starts[:n:n],
	}
	staged = &Program{dialect: p.dialect, units: p.units[n:], instrs: p.instrs[cut:]}
	for _, s := range p.starts[n:] {
		staged.starts = append(staged.starts, s-cut)
	}
	return committed, staged
}

// String renders the op sequence, e.g. "push(5) push(10) add".
func (p *Program) String() string {
	parts := make([]string, len(p.instrs))
	for i, in := range p.instrs {
		parts[i] = in.Op
		if v, ok := in.Args["value"]; ok {
			parts[i] += fmt.Sprintf("(%v)", v)
		}
	}
	return strings.Join(parts, " ")
}

type programJSON struct {
	Dialect      string        `json:"dialect"`
	Cost         float64       `json:"cost"`
	Instructions []Instruction `json:"instructions"`
}

// MarshalJSON encodes the program for the spell engine.
func (p *Program) MarshalJSON() ([]byte, error) {
	instrs := p.instrs
	if instrs == nil {
		instrs = []Instruction{}
	}
	return json.Marshal(programJSON{Dialect: p.dialect, Cost: p.Cost(), Instructions: instrs})
}
