package tranquility

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values. Assistant
// replies are the exception: their colours come from StyleFor.
type Theme struct {
	UserMsg int // User message accent
	Mood    int // Mood badge when no intensity is known
	Error   int // Error messages
	Muted   int // Status bar, placeholders
	CodeBg  int // Code block background
	Accent  int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg: 4,
		Mood:    6,
		Error:   1,
		Muted:   8,
		CodeBg:  0,
		Accent:  5,
	}
}
