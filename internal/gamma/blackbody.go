package gamma

import "math"

const (
	// NeutralKelvin is the white point: all channel multipliers are 1.0
	NeutralKelvin = 6500
	// NightKelvin is the warm reference temperature
	NightKelvin = 4500

	// Range accepted by the black-body fit
	MinKelvin = 1000
	MaxKelvin = 40000
)

// Coefficients of the log-polynomial fit of the black-body locus. The warm
// piece is offset by 700K, the cool piece by 5800K.
const (
	warmOffset = 700.0
	coolOffset = 5800.0

	k0GR = -1.47751309139817
	k1GR = 0.28590164772055
	k0BR = -4.38321650114872
	k1BR = 0.6212158769447
	k0RB = 1.75390204039018
	k1RB = -0.1150805671482
	k0GB = 1.49221604915144
	k1GB = -0.07513509588921
)

// Multipliers returns the red, green and blue gains for a color temperature.
// Each gain is in [0,1]; at NeutralKelvin all three are exactly 1.
func Multipliers(kelvin int) (r, g, b float64) {
	k := float64(clampKelvin(kelvin))
	if k < NeutralKelvin {
		l := math.Log(k - warmOffset)
		r = 1
		g = k0GR + k1GR*l
		b = k0BR + k1BR*l
	} else if k > NeutralKelvin {
		l := math.Log(k - coolOffset)
		r = k0RB + k1RB*l
		g = k0GB + k1GB*l
		b = 1
	} else {
		return 1, 1, 1
	}
	return clamp01(r), clamp01(g), clamp01(b)
}

// kelvinFromMultipliers inverts Multipliers. Gains are relative to the
// brightest channel.
func kelvinFromMultipliers(r, g, b float64) int {
	if r == b {
		return NeutralKelvin
	}

	var k float64
	switch {
	case b < r && b == 0:
		// Blue saturated at zero carries no information
		k = math.Exp((g-k0GR)/k1GR) + warmOffset
	case b < r:
		k = math.Exp((g+b-k0GR-k0BR)/(k1GR+k1BR)) + warmOffset
	default:
		k = math.Exp((g+r-k0GB-k0RB)/(k1GB+k1RB)) + coolOffset
	}
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return NeutralKelvin
	}
	return clampKelvin(int(math.Round(k)))
}

func clampKelvin(k int) int {
	if k < MinKelvin {
		return MinKelvin
	}
	if k > MaxKelvin {
		return MaxKelvin
	}
	return k
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
