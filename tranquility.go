// Package tranquility defines the domain of an assistant that replies to
// spoken or typed messages and rates their emotional intensity.
//
// Subpackages hold implementations, one per dependency: gemini talks to the
// generative service, json validates structured replies, http serves the
// API, bubbletea renders a terminal conversation view.
package tranquility

import (
	"context"
	"encoding/json"
)

// Model sends one envelope to a generative service and returns the text of
// the first candidate.
type Model interface {
	Generate(ctx context.Context, env Envelope) (string, error)
}

// Analyzer turns user input into an analysis result.
type Analyzer interface {
	Chat(ctx context.Context, text string) (AnalysisResult, error)
	AnalyzeAudio(ctx context.Context, audio Audio) (AnalysisResult, error)
}

// Transport posts a JSON payload and returns the decoded response body.
type Transport interface {
	Send(ctx context.Context, url string, payload any) (json.RawMessage, error)
}
