// Package analysis turns typed or spoken input into an analysis result by
// calling a tranquility.Model.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/json"
	"go.uber.org/zap"
)

// Interface compliance check.
var _ tranquility.Analyzer = (*Orchestrator)(nil)

// Orchestrator implements [tranquility.Analyzer].
type Orchestrator struct {
	chatModel  tranquility.Model
	audioModel tranquility.Model
	persona    atomic.Pointer[tranquility.Persona]
	logger     *zap.Logger
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithAudioModel sets the model used for both audio phases. Defaults to the
// chat model.
func WithAudioModel(m tranquility.Model) Option {
	return func(o *Orchestrator) { o.audioModel = m }
}

// WithPersona replaces the built-in persona.
func WithPersona(p tranquility.Persona) Option {
	return func(o *Orchestrator) { o.persona.Store(&p) }
}

// WithLogger sets the logger used to record failures that are hidden from
// the caller.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an [Orchestrator] that sends chat requests to model.
func New(model tranquility.Model, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		chatModel: model,
		logger:    zap.NewNop(),
	}
	o.SetPersona(tranquility.DefaultPersona())
	for _, opt := range opts {
		opt(o)
	}
	if o.audioModel == nil {
		o.audioModel = o.chatModel
	}
	return o
}

// Persona returns the persona used by new requests.
func (o *Orchestrator) Persona() tranquility.Persona {
	return *o.persona.Load()
}

// SetPersona replaces the persona. Requests already in flight finish with
// the persona they started with.
func (o *Orchestrator) SetPersona(p tranquility.Persona) {
	o.persona.Store(&p)
}

// Chat sends text with the mood schema and returns the reply text together
// with the inferred mood. A reply that does not match the schema yields
// tranquility.FallbackResult. Other failures are returned sanitized.
func (o *Orchestrator) Chat(ctx context.Context, text string) (tranquility.AnalysisResult, error) {
	if err := tranquility.ValidateText(text); err != nil {
		return tranquility.AnalysisResult{}, err
	}

	env := tranquility.Envelope{
		SystemInstruction: o.Persona().ChatInstruction,
		Turns:             []tranquility.Turn{tranquility.UserTurn(tranquility.TextPart{Text: text})},
		ResponseSchema:    tranquility.MoodReplySchema(),
	}
	raw, err := o.chatModel.Generate(ctx, env)
	if err != nil {
		return tranquility.AnalysisResult{}, o.fail("chat", err)
	}

	res, err := json.DecodeMoodReply(raw)
	if err != nil {
		return tranquility.AnalysisResult{}, o.fail("chat", err)
	}
	if res.IsFallback() {
		o.logger.Warn("malformed mood reply, using fallback", zap.Int("bytes", len(raw)))
	}
	return res, nil
}

// AnalyzeAudio runs the two-phase voice protocol. Phase one asks for an
// analysis of vocal tone. Phase two replays that exchange and asks for
// advice. Only the phase two text is returned.
func (o *Orchestrator) AnalyzeAudio(ctx context.Context, audio tranquility.Audio) (tranquility.AnalysisResult, error) {
	if err := audio.Validate(); err != nil {
		return tranquility.AnalysisResult{}, err
	}

	p := o.Persona()
	toneTurn := tranquility.UserTurn(
		tranquility.TextPart{Text: p.TonePrompt},
		tranquility.InlineDataPart{MIMEType: audio.MIMEType, Data: audio.Data},
	)
	tone, err := o.phase(ctx, p.VoiceInstruction, []tranquility.Turn{toneTurn})
	if err != nil {
		return tranquility.AnalysisResult{}, o.fail("tone analysis", err)
	}

	history := []tranquility.Turn{
		toneTurn,
		tranquility.ModelTurn(tone),
		tranquility.UserTurn(tranquility.TextPart{Text: p.AdvicePrompt}),
	}
	advice, err := o.phase(ctx, p.VoiceInstruction, history)
	if err != nil {
		return tranquility.AnalysisResult{}, o.fail("advice", err)
	}

	return json.DecodeText(advice)
}

func (o *Orchestrator) phase(ctx context.Context, instruction string, turns []tranquility.Turn) (string, error) {
	text, err := o.audioModel.Generate(ctx, tranquility.Envelope{
		SystemInstruction: instruction,
		Turns:             turns,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model returned no text: %w", tranquility.ErrEmptyCompletion)
	}
	return text, nil
}

// fail logs err with its detail and returns the sanitized form.
func (o *Orchestrator) fail(stage string, err error) error {
	if errors.Is(err, context.Canceled) {
		o.logger.Debug("analysis cancelled", zap.String("stage", stage))
	} else {
		o.logger.Error("analysis failed", zap.String("stage", stage), zap.Error(err))
	}
	return tranquility.Sanitize(fmt.Errorf("%s: %w", stage, err))
}
