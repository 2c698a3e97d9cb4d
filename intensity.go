package tranquility

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Intensity bounds. Every component works on this 0-10 scale; values on
// other scales are converted at the boundary.
const (
	MinIntensity = 0
	MaxIntensity = 10
)

// calmHue is the hue of intensity zero (blue). Intensity ten maps to hue
// zero (red).
const calmHue = 210.0

// lightTextThreshold is the rounded intensity from which backgrounds are
// dark enough for light text.
const lightTextThreshold = 4

const (
	lightForeground = "#ffffff"
	darkForeground  = "#0f172a"
)

// Style is the presentation derived from an intensity value.
type Style struct {
	Hue       float64
	LightText bool
}

// ClampIntensity clamps v into [MinIntensity, MaxIntensity]. NaN maps to
// MinIntensity.
func ClampIntensity(v float64) float64 {
	if math.IsNaN(v) {
		return MinIntensity
	}
	return math.Max(MinIntensity, math.Min(MaxIntensity, v))
}

// ClampLevel is ClampIntensity for integer levels.
func ClampLevel(v int) int {
	return max(MinIntensity, min(MaxIntensity, v))
}

// RescalePercent converts a 0-100 reading to the 0-10 scale.
func RescalePercent(v float64) float64 {
	return v / 10
}

// StyleFor maps an intensity onto a hue running from blue (calm) to red
// (intense). Out-of-range input is clamped first.
func StyleFor(intensity float64) Style {
	c := ClampIntensity(intensity)
	return Style{
		Hue:       calmHue - calmHue*c/MaxIntensity,
		LightText: math.Round(c) >= lightTextThreshold,
	}
}

// Background returns the hex colour hsl(Hue, 85%, 50%).
func (s Style) Background() string {
	return colorful.Hsl(s.Hue, 0.85, 0.5).Hex()
}

// Foreground returns the hex text colour that reads on Background.
func (s Style) Foreground() string {
	if s.LightText {
		return lightForeground
	}
	return darkForeground
}
