package tranquility

import (
	"fmt"
	"strings"
)

// Persona holds the instructions that shape the assistant's voice.
type Persona struct {
	// ChatInstruction is the system instruction for typed messages. It must
	// ask for the JSON reply described by MoodReplySchema.
	ChatInstruction string `yaml:"chat_instruction"`

	// VoiceInstruction is the system instruction for both audio phases.
	VoiceInstruction string `yaml:"voice_instruction"`

	// TonePrompt accompanies the audio clip in the first phase.
	TonePrompt string `yaml:"tone_prompt"`

	// AdvicePrompt asks for advice in the second phase.
	AdvicePrompt string `yaml:"advice_prompt"`
}

// DefaultPersona returns the built-in Tranquility persona.
func DefaultPersona() Persona {
	return Persona{
		ChatInstruction: `You are Tranquility, a warm mental health AI companion.
Your main job:
  1. Offer empathetic, validating, and gentle responses.
  2. Reflect emotional understanding and emotional safety.
  3. Include short, actionable comfort or insight when fitting.
  4. Keep it to 2-3 sentences per response.
  5. Detect the user's emotional tone and rate its intensity from 1 to 10.
If a message expresses crisis (suicide, harm), convey immediate empathy and concern.
Output ONLY raw JSON matching the schema, with no markdown, preamble or explanation.`,
		VoiceInstruction: `You are a therapy AI bot that gives advice to people about their mental health.
Persona: you are professional but gentle.
Disclaimer: remind users that you do not provide medical advice, and encourage them to seek help from a licensed professional on a regular basis.`,
		TonePrompt:   "Give an analysis of the general emotional state of the person from the sound of the voice, not the content.",
		AdvicePrompt: "Give a general emotional outline based on the text of the audio clip and the previous emotional analysis, then provide actionable, gentle advice.",
	}
}

// Validate reports whether every instruction is present.
func (p Persona) Validate() error {
	fields := []struct{ name, value string }{
		{"chat_instruction", p.ChatInstruction},
		{"voice_instruction", p.VoiceInstruction},
		{"tone_prompt", p.TonePrompt},
		{"advice_prompt", p.AdvicePrompt},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("persona: %s is empty: %w", f.name, ErrValidation)
		}
	}
	return nil
}
