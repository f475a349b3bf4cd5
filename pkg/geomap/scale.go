package geomap

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

type stop struct {
	at    float64
	color colorful.Color
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// reds is the sequential scale used for tile fills, light gray at the low end
// to dark red at the high end.
var reds = []stop{
	{0, rgb(220, 220, 220)},
	{0.2, rgb(245, 195, 157)},
	{0.4, rgb(245, 160, 105)},
	{1, rgb(178, 10, 28)},
}

// ScaleColor returns the hex color at position t in [0, 1]. Values outside
// the range clamp to the ends.
func ScaleColor(t float64) string {
	if t <= reds[0].at {
		return reds[0].color.Hex()
	}
	for i := 1; i < len(reds); i++ {
		if t <= reds[i].at {
			lo, hi := reds[i-1], reds[i]
			return lo.color.BlendRgb(hi.color, (t-lo.at)/(hi.at-lo.at)).Clamped().Hex()
		}
	}
	return reds[len(reds)-1].color.Hex()
}

// Extent is the min..max of the scored values.
type Extent struct {
	Min, Max float64
	OK       bool
}

// ExtentOf computes the extent of values. Empty input has no extent.
func ExtentOf(values []float64) Extent {
	if len(values) == 0 {
		return Extent{}
	}
	return Extent{Min: floats.Min(values), Max: floats.Max(values), OK: true}
}

// Color maps v onto the scale. A degenerate extent maps to the midpoint.
func (e Extent) Color(v float64) string {
	if !e.OK {
		return ScaleColor(0)
	}
	if e.Max == e.Min {
		return ScaleColor(0.5)
	}
	return ScaleColor((v - e.Min) / (e.Max - e.Min))
}
