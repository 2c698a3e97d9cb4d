package tranquility

import (
	"fmt"
	"strings"
	"time"
)

// Message is one entry in a conversation as shown to the user.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Intensity *int
	MoodLabel string
	CreatedAt time.Time
}

// Style returns the intensity styling of the message. ok is false when the
// message carries no intensity.
func (m Message) Style() (style Style, ok bool) {
	if m.Intensity == nil {
		return Style{}, false
	}
	return StyleFor(float64(*m.Intensity)), true
}

// AnalysisResult is the outcome of one analysis request.
type AnalysisResult struct {
	Text      string
	MoodLabel string
	Intensity *int
}

const (
	// FallbackText replaces a reply that could not be interpreted.
	FallbackText = "I'm here with you, though something went wrong with my response. Let's try again in a moment."

	// FallbackMood labels a reply that could not be interpreted.
	FallbackMood = "Error"
)

// FallbackResult returns the deterministic result used when a structured
// reply is malformed.
func FallbackResult() AnalysisResult {
	zero := 0
	return AnalysisResult{Text: FallbackText, MoodLabel: FallbackMood, Intensity: &zero}
}

// IsFallback reports whether r is the malformed-reply fallback.
func (r AnalysisResult) IsFallback() bool {
	return r.MoodLabel == FallbackMood && r.Text == FallbackText
}

// MoodBadge formats a mood label and intensity as "Calm · 2/10". A missing
// or zero intensity means the reply was not rated and only the label is
// shown.
func MoodBadge(mood string, intensity *int) string {
	var parts []string
	if mood != "" {
		parts = append(parts, mood)
	}
	if intensity != nil && *intensity >= 1 {
		parts = append(parts, fmt.Sprintf("%d/%d", *intensity, MaxIntensity))
	}
	return strings.Join(parts, " · ")
}
