package microspec

import "math"

// msPerCycle is the length of one exposure cycle in milliseconds.
const msPerCycle = 20e-3

// ToCycles converts an exposure time in milliseconds to cycles. The time
// is clamped to [MinMs, MaxMs] first, so the result is always a valid
// exposure.
func ToCycles(ms float64) int {
	switch {
	case math.IsNaN(ms), ms < MinMs:
		ms = MinMs
	case ms > MaxMs:
		ms = MaxMs
	}
	return int(math.Round(ms / msPerCycle))
}

// ToMs converts cycles to milliseconds. It does not clamp: out-of-range
// and negative counts convert as they are.
func ToMs(cycles int) float64 {
	return float64(cycles) * msPerCycle
}

// ExposureTime is an exposure given in exactly one unit: Milliseconds or
// Cycles.
type ExposureTime interface {
	// cycles returns the exposure as an in-range cycle count.
	cycles() uint16
}

// Milliseconds is an exposure time in milliseconds.
type Milliseconds float64

// Cycles is an exposure time in 20µs cycles.
type Cycles int

func (ms Milliseconds) cycles() uint16 {
	return uint16(ToCycles(float64(ms)))
}

func (c Cycles) cycles() uint16 {
	switch {
	case c < MinCycles:
		return MinCycles
	case c > MaxCycles:
		return MaxCycles
	}
	return uint16(c)
}
