package tranquility

// Role represents who authored a displayed message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnRole represents the author of a turn sent to the generative service.
type TurnRole string

const (
	TurnSystem TurnRole = "system"
	TurnUser   TurnRole = "user"
	TurnModel  TurnRole = "model"
)
