package common

import "math"

// Unlimited is the magnitude the SDF format uses for an unset joint limit.
const Unlimited = 1e16

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WrapAngle maps a into (-pi, pi].
func WrapAngle(a float64) float64 {
	if a > -math.Pi && a <= math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// IsLimited reports whether v is a finite joint limit.
func IsLimited(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) < Unlimited*0.1
}
