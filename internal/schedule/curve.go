package schedule

import (
	"fmt"
	"math"
)

// Curve shapes a transition: it maps elapsed fraction t in [0,1] to progress in
// [0,1]. Every curve maps 0 to 0 and 1 to 1 and never decreases.
type Curve int

const (
	Linear Curve = iota
	EaseInOut
	Cosine
)

// ParseCurve parses a curve name as used in configuration
func ParseCurve(name string) (Curve, error) {
	switch name {
	case "linear":
		return Linear, nil
	case "ease-in-out", "easeinout", "smoothstep":
		return EaseInOut, nil
	case "cosine":
		return Cosine, nil
	default:
		return Linear, fmt.Errorf("unknown curve %q", name)
	}
}

func (c Curve) String() string {
	switch c {
	case Linear:
		return "linear"
	case EaseInOut:
		return "ease-in-out"
	case Cosine:
		return "cosine"
	default:
		return fmt.Sprintf("curve(%d)", int(c))
	}
}

// Apply evaluates the curve at t, clamping t into [0,1]
func (c Curve) Apply(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch c {
	case EaseInOut:
		return t * t * (3 - 2*t)
	case Cosine:
		return (1 - math.Cos(math.Pi*t)) / 2
	default:
		return t
	}
}
