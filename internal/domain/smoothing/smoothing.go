// Package smoothing expands sparse per-day totals into dense, kernel-smoothed
// series over a fixed date range.
package smoothing

import (
	"fmt"

	"github.com/okian/chatgraph/internal/domain/model"
)

// Window is the output range [Start, End) and the kernel radius.
type Window struct {
	Start     model.Day
	End       model.Day
	HalfWidth int
}

// Len returns the number of days in the output range.
func (w Window) Len() int { return w.End.Sub(w.Start) }

// Validate reports whether w can be smoothed over.
func (w Window) Validate() error {
	if w.End <= w.Start {
		return fmt.Errorf("%w: end %s must be after start %s", ErrInvalidWindow, w.End, w.Start)
	}
	if w.HalfWidth < 0 {
		return fmt.Errorf("%w: half width must not be negative, got %d", ErrInvalidWindow, w.HalfWidth)
	}
	return nil
}

// Day returns the calendar day at output index i.
func (w Window) Day(i int) model.Day { return w.Start.Add(i) }

// Dense is a zero-filled series aligned to a Window: Values[i] is the
// smoothed total for Window.Day(i). Total is the unsmoothed sum of counts on
// days inside [Start, End).
type Dense struct {
	Values []float64
	Total  float64
}

// Smoother convolves series with a kernel over a window. The kernel is
// tabulated once for distances 0..HalfWidth, so a Smoother is read-only and
// safe to share between goroutines.
type Smoother struct {
	window Window
	table  []float64
}

// New creates a Smoother. The window must be valid and the kernel non-nil.
func New(w Window, k Kernel) (*Smoother, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if k == nil {
		return nil, fmt.Errorf("%w: nil kernel", ErrInvalidKernel)
	}
	table := make([]float64, w.HalfWidth+1)
	for d := range table {
		table[d] = k.Weight(d)
	}
	return &Smoother{window: w, table: table}, nil
}

// Window returns the smoother's window.
func (s *Smoother) Window() Window { return s.window }

// Smooth produces the dense series for one person. Days whose window lies
// wholly outside the output range are skipped; partial windows are clipped at
// the range edges. Days are visited in ascending order so the result is
// reproducible bit for bit.
func (s *Smoother) Smooth(series model.Series) Dense {
	w := s.window
	n := w.Len()
	hw := w.HalfWidth
	out := Dense{Values: make([]float64, n)}

	for _, day := range series.Days() {
		count := series[day]
		offset := day.Sub(w.Start)
		if offset >= 0 && offset < n {
			out.Total += count
		}
		if offset < -hw || offset >= n+hw {
			continue
		}
		lo := max(offset-hw, 0)
		hi := min(offset+hw, n-1)
		for i := lo; i <= hi; i++ {
			out.Values[i] += count * s.table[abs(i-offset)]
		}
	}
	return out
}

// Smooth is a convenience wrapper building a one-off Smoother.
func Smooth(series model.Series, w Window, k Kernel) (Dense, error) {
	s, err := New(w, k)
	if err != nil {
		return Dense{}, err
	}
	return s.Smooth(series), nil
}
