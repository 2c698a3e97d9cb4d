package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/tranquility"
	bt "github.com/fwojciec/tranquility/bubbletea"
	"github.com/fwojciec/tranquility/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to Tranquility in the terminal",
		Long: `Starts an interactive conversation. Type a message and press Enter, or
send a recording with /voice <file>. /reset starts over.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal, so nothing may log to it.
			analyzer, err := buildAnalyzer(cmd.Context(), a.cfg, zap.NewNop())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			w, err := watchPersona(a.cfg, analyzer, zap.NewNop())
			if err != nil {
				return err
			}
			if w != nil {
				go w.Run(ctx)
			}
			updates := bt.NewUpdates()
			sess := session.New(analyzer, session.WithObserver(updates.Observe))
			defer sess.Close()

			m := bt.New(sess, tranquility.DefaultTheme(), bt.WithUpdates(updates))
			if err := bt.Run(ctx, m); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			return nil
		},
	}
}
