// Package session tracks one conversation: its messages, the single
// in-flight analysis request, and the last error shown to the user.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fwojciec/tranquility"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle state of a session.
type State int

const (
	StateIdle State = iota
	StateSending
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of a session. Version grows with every
// change, so a higher version is always the newer state.
type Snapshot struct {
	ID        string
	Version   uint64
	State     State
	Messages  []tranquility.Message
	LastError string
	UpdatedAt time.Time
}

// Session is safe for concurrent use. At most one submission runs at a time.
type Session struct {
	analyzer tranquility.Analyzer
	newID    func() string
	now      func() time.Time
	logger   *zap.Logger
	observe  func(Snapshot)

	mu         sync.Mutex
	id         string
	state      State
	messages   []tranquility.Message
	lastError  string
	updatedAt  time.Time
	cancel     context.CancelFunc
	generation uint64
	version    uint64

	notifyMu  sync.Mutex
	delivered uint64
}

// Option configures a [Session].
type Option func(*Session)

// WithIDGenerator replaces uuid-based IDs for the session and its messages.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) { s.newID = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Session) { s.now = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver registers fn to receive a snapshot after every state change.
// Calls are serialized and arrive in the order the changes happened; a
// snapshot superseded before it could be delivered is skipped. fn is called
// without the session lock held and must not block for long.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Session) { s.observe = fn }
}

// New creates an idle [Session] backed by analyzer.
func New(analyzer tranquility.Analyzer, opts ...Option) *Session {
	s := &Session{
		analyzer: analyzer,
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.id = s.newID()
	s.updatedAt = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Submit sends a typed message. It blocks until the analysis finishes and
// returns its error. A call made while another submission is in flight
// returns tranquility.ErrBusy and changes nothing.
func (s *Session) Submit(ctx context.Context, text string) error {
	if err := tranquility.ValidateText(text); err != nil {
		return err
	}
	return s.run(ctx, text, func(ctx context.Context) (tranquility.AnalysisResult, error) {
		return s.analyzer.Chat(ctx, text)
	})
}

// SubmitAudio sends a recorded clip. The user message shown in the history
// is a placeholder since the clip has no text.
func (s *Session) SubmitAudio(ctx context.Context, audio tranquility.Audio) error {
	if err := audio.Validate(); err != nil {
		return err
	}
	return s.run(ctx, VoiceNotePlaceholder, func(ctx context.Context) (tranquility.AnalysisResult, error) {
		return s.analyzer.AnalyzeAudio(ctx, audio)
	})
}

// VoiceNotePlaceholder is the text of the user message recorded for audio.
const VoiceNotePlaceholder = "🎙 Voice note"

func (s *Session) run(ctx context.Context, userText string, analyze func(context.Context) (tranquility.AnalysisResult, error)) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return tranquility.ErrSessionClosed
	case StateSending:
		s.mu.Unlock()
		return tranquility.ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.state = StateSending
	s.lastError = ""
	s.cancel = cancel
	gen := s.generation
	s.messages = append(s.messages, tranquility.Message{
		ID:        s.newID(),
		Role:      tranquility.RoleUser,
		Text:      userText,
		CreatedAt: s.now(),
	})
	s.touch()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	res, err := analyze(runCtx)

	s.mu.Lock()
	if s.generation != gen {
		// Reset or Close happened while the request was in flight.
		s.mu.Unlock()
		s.logger.Debug("discarding result of superseded run", zap.String("session", s.id))
		if err == nil {
			err = context.Canceled
		}
		return err
	}
	s.cancel = nil
	switch {
	case err != nil && runCtx.Err() != nil && errors.Is(err, context.Canceled):
		s.state = StateIdle
	case err != nil:
		s.state = StateError
		s.lastError = tranquility.PublicMessage(err)
		s.logger.Info("submission failed", zap.String("session", s.id), zap.Error(err))
	default:
		msg := tranquility.Message{
			ID:        s.newID(),
			Role:      tranquility.RoleAssistant,
			Text:      res.Text,
			MoodLabel: res.MoodLabel,
			CreatedAt: s.now(),
		}
		if res.Intensity != nil {
			level := tranquility.ClampLevel(*res.Intensity)
			msg.Intensity = &level
		}
		s.messages = append(s.messages, msg)
		s.state = StateIdle
	}
	s.touch()
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return err
}

// Cancel aborts the in-flight submission, if any. The session returns to
// idle without recording an error or a reply.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Reset cancels any in-flight submission and clears the history.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.abortLocked()
	s.messages = nil
	s.lastError = ""
	s.state = StateIdle
	s.touch()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Close cancels any in-flight submission and rejects further submissions.
// A result that arrives after Close is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.abortLocked()
	s.state = StateClosed
	s.touch()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// DismissError clears the last error and returns the session to idle.
func (s *Session) DismissError() {
	s.mu.Lock()
	if s.state != StateError {
		s.mu.Unlock()
		return
	}
	s.state = StateIdle
	s.lastError = ""
	s.touch()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Snapshot returns a copy of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the history in submission order.
func (s *Session) Messages() []tranquility.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tranquility.Message(nil), s.messages...)
}

// LastError returns the message of the last failed submission.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// UpdatedAt returns the time of the last state change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) abortLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) touch() {
	s.version++
	s.updatedAt = s.now()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        s.id,
		Version:   s.version,
		State:     s.state,
		Messages:  append([]tranquility.Message(nil), s.messages...),
		LastError: s.lastError,
		UpdatedAt: s.updatedAt,
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.observe == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version
	s.observe(snap)
}
