package tranquility_test

import (
	"math"
	"testing"

	"github.com/fwojciec/tranquility"
	"github.com/stretchr/testify/assert"
)

func TestStyleFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		intensity float64
		hue       float64
		lightText bool
	}{
		{"zero is calm blue", 0, 210, false},
		{"two", 2, 168, false},
		{"just below threshold rounds down", 3.4, 138.6, false},
		{"rounds up to threshold", 3.5, 136.5, true},
		{"four", 4, 126, true},
		{"ten is red", 10, 0, true},
		{"negative clamps to zero", -3, 210, false},
		{"above range clamps to ten", 42, 0, true},
		{"NaN treated as zero", math.NaN(), 210, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := tranquility.StyleFor(tt.intensity)
			assert.InDelta(t, tt.hue, s.Hue, 1e-9)
			assert.Equal(t, tt.lightText, s.LightText)
		})
	}
}

func TestStyleFor_HueIsMonotonic(t *testing.T) {
	t.Parallel()

	prev := tranquility.StyleFor(0).Hue
	for v := 0.0; v <= 10; v += 0.25 {
		s := tranquility.StyleFor(v)
		assert.GreaterOrEqual(t, s.Hue, 0.0)
		assert.LessOrEqual(t, s.Hue, 210.0)
		assert.LessOrEqual(t, s.Hue, prev, "hue increased at %v", v)
		assert.Equal(t, math.Round(v) >= 4, s.LightText, "light text at %v", v)
		prev = s.Hue
	}
}

func TestStyle_Colors(t *testing.T) {
	t.Parallel()

	calm := tranquility.StyleFor(0)
	assert.Equal(t, "#0f172a", calm.Foreground())
	assert.Regexp(t, `^#[0-9a-f]{6}$`, calm.Background())

	angry := tranquility.StyleFor(10)
	assert.Equal(t, "#ffffff", angry.Foreground())
	// hsl(0, 85%, 50%)
	assert.Equal(t, "#ec1313", angry.Background())
}

func TestClampLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, tranquility.ClampLevel(-1))
	assert.Equal(t, 7, tranquility.ClampLevel(7))
	assert.Equal(t, 10, tranquility.ClampLevel(11))
}

func TestRescalePercent(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 4.5, tranquility.RescalePercent(45), 1e-9)
	assert.InDelta(t, 10.0, tranquility.RescalePercent(100), 1e-9)
}
