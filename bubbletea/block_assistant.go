package bubbletea

import (
	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/goldmark"
	"github.com/mattn/go-runewidth"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders a reply as markdown on a bubble whose colour
// follows the intensity of the user's message, followed by a mood badge.
type AssistantBlock struct {
	msg    tranquility.Message
	theme  tranquility.Theme
	styles Styles

	// Rendering goes through goldmark, so views are cached per width.
	byWidth map[int]string
}

// NewAssistantBlock creates an AssistantBlock for msg.
func NewAssistantBlock(msg tranquility.Message, theme tranquility.Theme, styles Styles) *AssistantBlock {
	return &AssistantBlock{msg: msg, theme: theme, styles: styles, byWidth: make(map[int]string)}
}

func (b *AssistantBlock) View(width int) string {
	if v, ok := b.byWidth[width]; ok {
		return v
	}
	v := b.render(width)
	b.byWidth[width] = v
	return v
}

func (b *AssistantBlock) render(width int) string {
	st, tinted := b.msg.Style()
	if !tinted {
		body := goldmark.Render(b.msg.Text, width, b.theme)
		if badge := runewidth.Truncate(b.badge(), width, "…"); badge != "" {
			body += "\n" + b.styles.Mood.Render(badge)
		}
		return body
	}

	bubble := Bubble(st)
	inner := width - 2
	if inner < 10 {
		inner = 10
	}
	body := goldmark.Render(b.msg.Text, inner, b.theme, goldmark.WithBase(bubble))
	view := bubble.Padding(0, 1).Width(width).Render(body)
	if badge := runewidth.Truncate(b.badge(), inner, "…"); badge != "" {
		view += "\n" + bubble.Italic(true).Padding(0, 1).Render(badge)
	}
	return view
}

func (b *AssistantBlock) badge() string {
	return tranquility.MoodBadge(b.msg.MoodLabel, b.msg.Intensity)
}
