package goldmark_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/goldmark"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return csi.ReplaceAllString(s, "")
}

// plainLines renders src and returns its lines without escape codes or
// trailing padding.
func plainLines(src string, width int) []string {
	out := stripANSI(goldmark.Render(src, width, tranquility.DefaultTheme()))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

func TestMain(m *testing.M) {
	// Styled runs must produce escape codes for the colour assertions.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender_Replies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		want    []string
		wantNot []string
	}{
		{
			name: "emphasis keeps the sentence intact",
			src:  "It's **okay** to feel *tired* after a week like this.",
			want: []string{"It's okay to feel tired after a week like this."},
		},
		{
			name: "breathing steps keep their numbers",
			src:  "1. Breathe in for four counts\n2. Hold for seven\n3. Breathe out for eight",
			want: []string{"1. Breathe in for four counts", "2. Hold for seven", "3. Breathe out for eight"},
		},
		{
			name: "ordered list honours its start",
			src:  "3. Drink some water\n4. Step outside",
			want: []string{"3. Drink some water", "4. Step outside"},
		},
		{
			name: "nested coping ideas",
			src:  "- Move a little\n  - a short walk\n  - stretching\n- Reach out",
			want: []string{"- Move a little", "  - a short walk", "  - stretching", "- Reach out"},
		},
		{
			name: "helpline link shows its address",
			src:  "You can call the [988 Lifeline](https://988lifeline.org) any time.",
			want: []string{"988 Lifeline (https://988lifeline.org)"},
		},
		{
			name: "named technique in a code span",
			src:  "Try `box breathing` for a minute.",
			want: []string{"Try box breathing for a minute."},
		},
		{
			name: "exercise in a fenced block keeps its label",
			src:  "```exercise\nName five things you can see.\nName four you can touch.\n```",
			want: []string{"exercise", "│ Name five things you can see.", "│ Name four you can touch."},
		},
		{
			name: "indented block is kept verbatim",
			src:  "Repeat after me:\n\n    I am safe right now.",
			want: []string{"Repeat after me:", "│ I am safe right now."},
		},
		{
			name: "thematic break between sections",
			src:  "That sounds heavy.\n\n---\n\nWhat helped last time?",
			want: []string{"That sounds heavy.", "---", "What helped last time?"},
		},
		{
			name: "image falls back to alt text",
			src:  "![a calm lake](https://example.com/lake.png)",
			want: []string{"a calm lake (https://example.com/lake.png)"},
		},
		{
			name:    "raw html is dropped",
			src:     "Take care.\n\n<div class=\"note\">internal</div>\n",
			want:    []string{"Take care."},
			wantNot: []string{"internal", "<div"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			joined := strings.Join(plainLines(tt.src, 80), "\n")
			for _, w := range tt.want {
				assert.Contains(t, joined, w)
			}
			for _, w := range tt.wantNot {
				assert.NotContains(t, joined, w)
			}
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := tranquility.DefaultTheme()

	t.Run("empty reply renders nothing", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", goldmark.Render("", 80, theme))
	})

	t.Run("non-positive width falls back to 80 columns", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("calm ", 15)
		assert.Equal(t, goldmark.Render(long, 80, theme), goldmark.Render(long, 0, theme))
		assert.Equal(t, goldmark.Render(long, 80, theme), goldmark.Render(long, -5, theme))
	})

	t.Run("heading is styled apart from body text", func(t *testing.T) {
		t.Parallel()
		heading := goldmark.Render("## A few ideas", 80, theme)
		body := goldmark.Render("A few ideas", 80, theme)
		assert.Equal(t, stripANSI(body), stripANSI(heading))
		assert.NotEqual(t, body, heading)
	})

	t.Run("reply wraps to the bubble width", func(t *testing.T) {
		t.Parallel()
		src := "I'm really sorry today has been so hard. It makes sense that you feel worn out after all of that."
		lines := plainLines(src, 30)
		require.Greater(t, len(lines), 2)
		for _, l := range lines {
			assert.LessOrEqual(t, len(l), 30, "line too wide: %q", l)
		}
		assert.Contains(t, strings.Join(lines, " "), "worn out")
	})

	t.Run("wrapped list item lines up under its text", func(t *testing.T) {
		t.Parallel()
		lines := plainLines("- Write down what is worrying you so it feels less like it is spinning around", 30)
		require.Greater(t, len(lines), 1)
		assert.True(t, strings.HasPrefix(lines[0], "- Write"))
		for _, l := range lines[1:] {
			assert.True(t, strings.HasPrefix(l, "  "), "continuation not indented: %q", l)
		}
	})

	t.Run("blockquote lines get a gutter", func(t *testing.T) {
		t.Parallel()
		lines := plainLines("> breathe in\n>\n> breathe out", 80)
		for _, l := range lines {
			assert.True(t, strings.HasPrefix(l, "│"), "line without gutter: %q", l)
		}
		assert.Contains(t, lines, "│ breathe in")
		assert.Contains(t, lines, "│ breathe out")
	})

	t.Run("base style colours every fragment", func(t *testing.T) {
		t.Parallel()
		st := tranquility.StyleFor(9)
		base := lipgloss.NewStyle().
			Background(lipgloss.Color(st.Background())).
			Foreground(lipgloss.Color(st.Foreground()))
		plain := goldmark.Render("I hear **you**, truly.", 80, theme)
		tinted := goldmark.Render("I hear **you**, truly.", 80, theme, goldmark.WithBase(base))

		assert.Equal(t, stripANSI(plain), stripANSI(tinted))
		assert.NotEqual(t, plain, tinted)
		// The run after the bold word must re-open the base colours.
		after := tinted[strings.Index(tinted, "you")+len("you"):]
		assert.Contains(t, after, "\x1b[")
	})
}
