package mock

import (
	"context"

	"github.com/fwojciec/tranquility"
)

// Interface compliance check.
var _ tranquility.Analyzer = (*Analyzer)(nil)

// Analyzer is a test double for tranquility.Analyzer.
// Set the function fields for the methods you need. Unset fields panic to
// catch missing setup.
type Analyzer struct {
	ChatFn         func(ctx context.Context, text string) (tranquility.AnalysisResult, error)
	AnalyzeAudioFn func(ctx context.Context, audio tranquility.Audio) (tranquility.AnalysisResult, error)
}

// Chat delegates to ChatFn.
func (a *Analyzer) Chat(ctx context.Context, text string) (tranquility.AnalysisResult, error) {
	return a.ChatFn(ctx, text)
}

// AnalyzeAudio delegates to AnalyzeAudioFn.
func (a *Analyzer) AnalyzeAudio(ctx context.Context, audio tranquility.Audio) (tranquility.AnalysisResult, error) {
	return a.AnalyzeAudioFn(ctx, audio)
}
