// Package goldmark renders assistant replies, which are markdown, to
// ANSI-styled terminal output using goldmark for parsing and lipgloss for
// styling.
package goldmark

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/tranquility"
)

// Option configures a render.
type Option func(*ansiRenderer)

// WithBase sets the style every fragment inherits from. Replies are drawn
// on an intensity-tinted bubble, so the base usually carries the bubble's
// background and foreground; without it the resets emitted after bold or
// italic runs would punch holes in the background.
func WithBase(base lipgloss.Style) Option {
	return func(r *ansiRenderer) { r.base = base }
}

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered at full width without reflow.
func Render(source string, width int, theme tranquility.Theme, opts ...Option) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme, opts...)
	return r.render([]byte(source), width)
}
