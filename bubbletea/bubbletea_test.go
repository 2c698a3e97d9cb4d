package bubbletea_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/tranquility"
	bt "github.com/fwojciec/tranquility/bubbletea"
	"github.com/fwojciec/tranquility/session"
	"github.com/stretchr/testify/require"
)

// initModel creates a model for sess and sends a WindowSizeMsg to initialize
// the viewport.
func initModel(t *testing.T, sess *session.Session, opts ...bt.Option) bt.Model {
	t.Helper()
	m := bt.New(sess, tranquility.DefaultTheme(), opts...)
	return updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// runCmd executes cmd, flattening batches, and returns the messages it
// produced.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runCmd(c)...)
	}
	return out
}

// submitDone returns the SubmitDoneMsg among msgs.
func submitDone(t *testing.T, msgs []tea.Msg) bt.SubmitDoneMsg {
	t.Helper()
	for _, msg := range msgs {
		if done, ok := msg.(bt.SubmitDoneMsg); ok {
			return done
		}
	}
	require.Fail(t, "no SubmitDoneMsg", "got %#v", msgs)
	return bt.SubmitDoneMsg{}
}

func intPtr(v int) *int { return &v }
