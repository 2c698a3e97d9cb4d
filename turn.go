package tranquility

import "fmt"

// Part is a sealed interface for one piece of a turn.
type Part interface {
	part()
}

// TextPart carries text.
type TextPart struct {
	Text string
}

func (TextPart) part() {}

// InlineDataPart carries binary media, such as recorded audio.
type InlineDataPart struct {
	MIMEType string
	Data     []byte
}

func (InlineDataPart) part() {}

var (
	_ Part = TextPart{}
	_ Part = InlineDataPart{}
)

// Turn is one role-tagged entry of the history sent to the model.
type Turn struct {
	Role  TurnRole
	Parts []Part
}

// UserTurn builds a user turn from parts.
func UserTurn(parts ...Part) Turn {
	return Turn{Role: TurnUser, Parts: parts}
}

// ModelTurn builds a model turn holding a single text part.
func ModelTurn(text string) Turn {
	return Turn{Role: TurnModel, Parts: []Part{TextPart{Text: text}}}
}

// Envelope is everything sent to the model in one call.
type Envelope struct {
	SystemInstruction string
	Turns             []Turn
	ResponseSchema    *Schema
}

// Validate checks the envelope is well formed before it leaves the process.
func (e Envelope) Validate() error {
	if len(e.Turns) == 0 {
		return fmt.Errorf("envelope has no turns: %w", ErrValidation)
	}
	for i, t := range e.Turns {
		switch t.Role {
		case TurnUser, TurnModel:
		case TurnSystem:
			return fmt.Errorf("turns[%d]: system text belongs in the system instruction: %w", i, ErrValidation)
		default:
			return fmt.Errorf("turns[%d]: unknown role %q: %w", i, t.Role, ErrValidation)
		}
		if len(t.Parts) == 0 {
			return fmt.Errorf("turns[%d]: no parts: %w", i, ErrValidation)
		}
		for j, p := range t.Parts {
			switch p := p.(type) {
			case TextPart:
				if p.Text == "" {
					return fmt.Errorf("turns[%d].parts[%d]: empty text: %w", i, j, ErrValidation)
				}
			case InlineDataPart:
				if t.Role == TurnModel {
					return fmt.Errorf("turns[%d].parts[%d]: model turns carry text only: %w", i, j, ErrValidation)
				}
				if len(p.Data) == 0 || p.MIMEType == "" {
					return fmt.Errorf("turns[%d].parts[%d]: inline data needs bytes and a MIME type: %w", i, j, ErrValidation)
				}
			}
		}
	}
	if last := e.Turns[len(e.Turns)-1]; last.Role != TurnUser {
		return fmt.Errorf("final turn must be a user turn, got %q: %w", last.Role, ErrValidation)
	}
	return nil
}
