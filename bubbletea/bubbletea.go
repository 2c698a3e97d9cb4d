// Package bubbletea provides a Bubble Tea TUI for a Tranquility
// conversation.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/tranquility/session"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Updates carries session snapshots from a session observer to the TUI.
// Pass Observe to session.WithObserver.
type Updates struct {
	ch chan session.Snapshot
}

// NewUpdates creates an Updates with room for a handful of pending
// snapshots.
func NewUpdates() *Updates {
	return &Updates{ch: make(chan session.Snapshot, 32)}
}

// Observe queues snap for the TUI. It never blocks: when the queue is full
// the oldest pending snapshot is dropped so the newest state always gets
// through.
func (u *Updates) Observe(snap session.Snapshot) {
	for {
		select {
		case u.ch <- snap:
			return
		default:
		}
		select {
		case <-u.ch:
		default:
		}
	}
}

// Pending returns the number of queued snapshots.
func (u *Updates) Pending() int {
	return len(u.ch)
}

// SnapshotMsg delivers a session snapshot to the model.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// SubmitDoneMsg signals that a submission has returned.
type SubmitDoneMsg struct {
	Err error
}

func listenForSnapshot(ch <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}
