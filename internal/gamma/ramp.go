package gamma

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedRampSize is returned for ramps with fewer than two entries
var ErrUnsupportedRampSize = errors.New("unsupported gamma ramp size")

// MinRampSize is the smallest ramp Build accepts
const MinRampSize = 2

const maxEntry = math.MaxUint16

// Target is a color temperature and brightness
type Target struct {
	Kelvin     int     `json:"kelvin"`
	Brightness float64 `json:"brightness"`
}

// Neutral returns the identity target
func Neutral() Target {
	return Target{Kelvin: NeutralKelvin, Brightness: 1.0}
}

func (t Target) String() string {
	return fmt.Sprintf("%dK %.0f%%", t.Kelvin, t.Brightness*100)
}

// Ramp is a per-channel gamma lookup table. All channels have the same length.
type Ramp struct {
	Red   []uint16
	Green []uint16
	Blue  []uint16
}

// Build computes the ramp for t with size entries per channel
func Build(t Target, size int) (Ramp, error) {
	if size < MinRampSize {
		return Ramp{}, fmt.Errorf("%w: %d", ErrUnsupportedRampSize, size)
	}

	r, g, b := Multipliers(t.Kelvin)
	brightness := clamp01(t.Brightness)

	ramp := Ramp{
		Red:   make([]uint16, size),
		Green: make([]uint16, size),
		Blue:  make([]uint16, size),
	}
	last := float64(size - 1)
	for i := 0; i < size; i++ {
		v := float64(i) / last * maxEntry * brightness
		ramp.Red[i] = entry(v * r)
		ramp.Green[i] = entry(v * g)
		ramp.Blue[i] = entry(v * b)
	}
	return ramp, nil
}

// Identity returns the neutral ramp, entry i = round(i * 65535 / (size-1))
func Identity(size int) (Ramp, error) {
	return Build(Neutral(), size)
}

// Estimate recovers an approximate target from a ramp using its top entries.
// Ramps that did not come from Build give a best-effort answer.
func Estimate(r Ramp) Target {
	n := r.Size()
	if n == 0 || len(r.Green) != n || len(r.Blue) != n {
		return Neutral()
	}

	red := float64(r.Red[n-1])
	green := float64(r.Green[n-1])
	blue := float64(r.Blue[n-1])

	top := math.Max(red, math.Max(green, blue))
	if top == 0 {
		return Target{Kelvin: NeutralKelvin, Brightness: 0}
	}

	return Target{
		Kelvin:     kelvinFromMultipliers(red/top, green/top, blue/top),
		Brightness: math.Round(top/maxEntry*1000) / 1000,
	}
}

// Size returns the number of entries per channel
func (r Ramp) Size() int {
	return len(r.Red)
}

// Valid reports whether all channels have the same non-trivial length
func (r Ramp) Valid() bool {
	n := len(r.Red)
	return n >= MinRampSize && len(r.Green) == n && len(r.Blue) == n
}

// Clone returns a deep copy
func (r Ramp) Clone() Ramp {
	return Ramp{
		Red:   append([]uint16(nil), r.Red...),
		Green: append([]uint16(nil), r.Green...),
		Blue:  append([]uint16(nil), r.Blue...),
	}
}

// Equal reports whether both ramps hold the same entries
func (r Ramp) Equal(other Ramp) bool {
	return r.Size() == other.Size() && r.MaxDelta(other) == 0
}

// MaxDelta returns the largest absolute difference between corresponding
// entries. Ramps of different shape differ by the full range.
func (r Ramp) MaxDelta(other Ramp) int {
	if len(r.Red) != len(other.Red) || len(r.Green) != len(other.Green) || len(r.Blue) != len(other.Blue) {
		return maxEntry
	}
	delta := 0
	for _, pair := range [][2][]uint16{{r.Red, other.Red}, {r.Green, other.Green}, {r.Blue, other.Blue}} {
		for i := range pair[0] {
			d := int(pair[0][i]) - int(pair[1][i])
			if d < 0 {
				d = -d
			}
			if d > delta {
				delta = d
			}
		}
	}
	return delta
}

// Monotonic reports whether every channel is non-decreasing
func (r Ramp) Monotonic() bool {
	for _, ch := range [][]uint16{r.Red, r.Green, r.Blue} {
		for i := 1; i < len(ch); i++ {
			if ch[i] < ch[i-1] {
				return false
			}
		}
	}
	return true
}

func entry(v float64) uint16 {
	return uint16(math.Max(0, math.Min(maxEntry, math.Round(v))))
}
