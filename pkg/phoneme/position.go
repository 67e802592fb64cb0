package phoneme

import "fmt"

// Span is a half-open range [Start, End) of 0-based phoneme offsets in a stream.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of phonemes covered.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// IsValid returns true if the span is non-empty and non-negative.
func (s Span) IsValid() bool {
	return s.Start >= 0 && s.End > s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}
