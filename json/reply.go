// Package json decodes replies from the generative service into analysis
// results.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fwojciec/tranquility"
)

// Intensity bounds accepted in a structured reply.
const (
	minRageMeter = 1
	maxRageMeter = 10
)

// moodReplyDTO is the wire shape of a structured reply. Pointer fields let
// absent keys be told apart from zero values.
type moodReplyDTO struct {
	Text *string  `json:"text"`
	Mood *moodDTO `json:"mood"`
}

type moodDTO struct {
	Mood      *string  `json:"mood"`
	RageMeter *float64 `json:"rageMeter"`
}

// ValidateMoodReply parses a structured reply. It returns an error wrapping
// tranquility.ErrSchemaParse when the reply does not match the mood schema,
// and tranquility.ErrEmptyCompletion when it matches but carries no text.
func ValidateMoodReply(raw string) (tranquility.AnalysisResult, error) {
	raw = stripFence(strings.TrimSpace(raw))
	if raw == "" {
		return tranquility.AnalysisResult{}, fmt.Errorf("reply is blank: %w", tranquility.ErrEmptyCompletion)
	}

	var dto moodReplyDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return tranquility.AnalysisResult{}, fmt.Errorf("decode reply: %v: %w", err, tranquility.ErrSchemaParse)
	}
	if dto.Mood == nil {
		return tranquility.AnalysisResult{}, fmt.Errorf("reply has no mood: %w", tranquility.ErrSchemaParse)
	}
	if dto.Mood.Mood == nil {
		return tranquility.AnalysisResult{}, fmt.Errorf("mood has no label: %w", tranquility.ErrSchemaParse)
	}
	if dto.Mood.RageMeter == nil {
		return tranquility.AnalysisResult{}, fmt.Errorf("mood has no rageMeter: %w", tranquility.ErrSchemaParse)
	}
	level := *dto.Mood.RageMeter
	if level != math.Trunc(level) || level < minRageMeter || level > maxRageMeter {
		return tranquility.AnalysisResult{}, fmt.Errorf("rageMeter %v is not an integer in %d..%d: %w",
			level, minRageMeter, maxRageMeter, tranquility.ErrSchemaParse)
	}
	if dto.Text == nil || strings.TrimSpace(*dto.Text) == "" {
		return tranquility.AnalysisResult{}, fmt.Errorf("reply has no text: %w", tranquility.ErrEmptyCompletion)
	}

	intensity := tranquility.ClampLevel(int(level))
	return tranquility.AnalysisResult{
		Text:      *dto.Text,
		MoodLabel: strings.TrimSpace(*dto.Mood.Mood),
		Intensity: &intensity,
	}, nil
}

// DecodeMoodReply is ValidateMoodReply with schema failures replaced by
// tranquility.FallbackResult.
func DecodeMoodReply(raw string) (tranquility.AnalysisResult, error) {
	res, err := ValidateMoodReply(raw)
	if err != nil {
		if errors.Is(err, tranquility.ErrSchemaParse) {
			return tranquility.FallbackResult(), nil
		}
		return tranquility.AnalysisResult{}, err
	}
	return res, nil
}

// DecodeText interprets a plain-text reply.
func DecodeText(raw string) (tranquility.AnalysisResult, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return tranquility.AnalysisResult{}, fmt.Errorf("reply is blank: %w", tranquility.ErrEmptyCompletion)
	}
	return tranquility.AnalysisResult{Text: text}, nil
}

// stripFence removes a surrounding markdown code fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Drop a language tag such as "json" on the opening line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}
