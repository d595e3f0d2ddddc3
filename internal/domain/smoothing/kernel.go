package smoothing

import (
	"fmt"
	"math"
)

// Kernel names accepted by NewKernel.
const (
	KernelGaussian = "gaussian"
	KernelBox      = "box"
)

// Kernel weighs a contribution by its absolute distance in days from the day
// it was recorded on. Implementations must be deterministic and depend only
// on the absolute distance.
type Kernel interface {
	Weight(distance int) float64
}

// KernelFunc adapts a function to Kernel. Negative distances are folded so
// the result is symmetric.
type KernelFunc func(distance int) float64

// Weight implements Kernel.
func (f KernelFunc) Weight(distance int) float64 { return f(abs(distance)) }

// Gaussian is a normal density with the given standard deviation in days.
type Gaussian struct {
	Stdev float64
}

// Weight implements Kernel.
func (g Gaussian) Weight(distance int) float64 {
	d := float64(abs(distance))
	variance := g.Stdev * g.Stdev
	return math.Exp(-(d*d)/(2*variance)) / math.Sqrt(2*math.Pi*variance)
}

// Box spreads a count evenly over a window of 2*HalfWidth+1 days, a moving
// average.
type Box struct {
	HalfWidth int
}

// Weight implements Kernel.
func (b Box) Weight(distance int) float64 {
	if abs(distance) > b.HalfWidth {
		return 0
	}
	return 1 / float64(2*b.HalfWidth+1)
}

// NewKernel builds a named kernel.
func NewKernel(name string, stdevDays float64, halfWindowDays int) (Kernel, error) {
	switch name {
	case KernelGaussian, "":
		if stdevDays <= 0 || math.IsNaN(stdevDays) || math.IsInf(stdevDays, 0) {
			return nil, fmt.Errorf("%w: stdev must be positive, got %g", ErrInvalidKernel, stdevDays)
		}
		return Gaussian{Stdev: stdevDays}, nil
	case KernelBox:
		if halfWindowDays < 0 {
			return nil, fmt.Errorf("%w: half window must not be negative, got %d", ErrInvalidKernel, halfWindowDays)
		}
		return Box{HalfWidth: halfWindowDays}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kernel %q", ErrInvalidKernel, name)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
