package samplearchive

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/chatgraph/internal/domain/types"
)

// Tolerance absorbs floating-point drift between summation orders.
const Tolerance = 1e-6

// Verify checks c against the expected per-person totals: every individual
// series names a known person with the expected total, series are in
// non-increasing total order, and Other holds the remainder.
func Verify(c types.Chart, expected map[string]float64) error {
	if len(c.Series) == 0 || !c.Series[len(c.Series)-1].Other {
		return fmt.Errorf("%w: Other series missing or not last", ErrMismatch)
	}

	var grand, top float64
	for _, v := range expected {
		grand += v
	}

	prev := math.Inf(1)
	for _, s := range c.Series[:len(c.Series)-1] {
		name := LabelName(s.Label)
		want, ok := expected[name]
		if !ok {
			return fmt.Errorf("%w: unexpected person %q", ErrMismatch, name)
		}
		if math.Abs(s.Total-want) > Tolerance {
			return fmt.Errorf("%w: %q total %.6f, expected %.6f", ErrMismatch, name, s.Total, want)
		}
		if s.Total > prev+Tolerance {
			return fmt.Errorf("%w: %q ranked after a smaller total", ErrMismatch, name)
		}
		prev = s.Total
		top += s.Total
	}

	other := c.Series[len(c.Series)-1]
	if math.Abs(other.Total-(grand-top)) > Tolerance {
		return fmt.Errorf("%w: Other total %.6f, expected %.6f", ErrMismatch, other.Total, grand-top)
	}
	return nil
}

// LabelName strips the "(total)" suffix from a display label.
func LabelName(label string) string {
	if i := strings.LastIndex(label, "("); i > 0 {
		return label[:i]
	}
	return label
}
