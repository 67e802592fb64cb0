package program

import "fmt"

// Category groups instructions the way the spell engine schedules them.
type Category string

// Instruction categories.
const (
	Number     Category = "number"
	Scalar     Category = "scalar"
	Vector     Category = "vector"
	Input      Category = "input"
	Output     Category = "output"
	Operator   Category = "operator"
	Control    Category = "control"
	Combinator Category = "combinator"
)

var categories = []Category{Number, Scalar, Vector, Input, Output, Operator, Control, Combinator}

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown instruction category %q", s)
	}
	return c, nil
}
