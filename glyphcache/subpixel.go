package glyphcache

import (
	"math"
	"strconv"
)

// DefaultSubpixelSteps is the number of sub-pixel phases per axis.
const DefaultSubpixelSteps = 4

// SubpixelPhase is a quantized fractional glyph position.
// With the default 4 steps the phases are 0, 0.25, 0.5 and 0.75 pixels.
type SubpixelPhase uint8

// Phases for the default 4-step quantization.
const (
	PhaseZero SubpixelPhase = iota
	PhaseQuarter
	PhaseHalf
	PhaseThreeQuarters
)

// Quantize maps the fractional part of p to one of steps phases.
//
// The fraction is split into 2*steps bins and adjacent bins are paired so
// that each phase is centered on its offset. For steps=4:
//
//	a = floor(frac(p) * 8)
//	a in {1,2} -> Quarter, {3,4} -> Half, {5,6} -> ThreeQuarters, else Zero
//
// Quantize(p, n) == Quantize(p+1, n) for all p.
func Quantize(p float32, steps int) SubpixelPhase {
	if steps <= 1 || math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
		return PhaseZero
	}
	frac := float64(p) - math.Floor(float64(p))
	a := int(frac * float64(2*steps))
	return SubpixelPhase(((a + 1) / 2) % steps) //nolint:gosec // result < steps <= 255
}

// Offset returns the pixel offset of the phase for the given step count.
func (ph SubpixelPhase) Offset(steps int) float32 {
	if steps <= 1 {
		return 0
	}
	return float32(ph) / float32(steps)
}

// String returns the phase name for the default step count.
func (ph SubpixelPhase) String() string {
	switch ph {
	case PhaseZero:
		return "Zero"
	case PhaseQuarter:
		return "Quarter"
	case PhaseHalf:
		return "Half"
	case PhaseThreeQuarters:
		return "ThreeQuarters"
	default:
		return "Phase(" + strconv.Itoa(int(ph)) + ")"
	}
}
