package utils

import (
	"math"
	"time"
)

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ClampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RoundTo rounds v half away from zero to the given number of decimals.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// HoursBetween returns to-from in whole hours, rounded half away from zero.
func HoursBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours()))
}
