package tutoring

import (
	"github.com/invopop/jsonschema"
	"github.com/tesslearn/tessa-core/core/voicechannel"
)

const blackboardToolName = "blackboard"

type blackboardParameters struct {
	Text string `json:"text" jsonschema:"description=Content to write on the blackboard. May contain markdown and TeX formulas."`
}

// sessionTools describes the client tools this session answers for,
// announced to the voice agent at conversation start.
func sessionTools() []voicechannel.ToolDefinition {
	reflector := jsonschema.Reflector{DoNotReference: true}

	return []voicechannel.ToolDefinition{
		{
			Name:        blackboardToolName,
			Description: "Write working notes, formulas or worked examples onto the shared blackboard",
			Parameters:  reflector.Reflect(blackboardParameters{}),
		},
	}
}
