package llms

// TurnRole describes who a history turn is from.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is a single prior exchange entry handed to a completion provider as
// conversation history.
type Turn struct {
	Role    TurnRole
	Content string
}
