package eleven

import (
	"encoding/json"

	"github.com/tesslearn/tessa-core/core/voicechannel"
)

// Wire messages for the ElevenLabs conversational agent websocket. Only the
// subset the session engine consumes is modeled; everything else falls
// through the type switch untouched.

type serverMessage struct {
	Type string `json:"type"`

	UserTranscriptionEvent *struct {
		UserTranscript string `json:"user_transcript"`
	} `json:"user_transcription_event,omitempty"`

	AgentResponseEvent *struct {
		AgentResponse string `json:"agent_response"`
	} `json:"agent_response_event,omitempty"`

	AgentResponseCorrectionEvent *struct {
		CorrectedAgentResponse string `json:"corrected_agent_response"`
	} `json:"agent_response_correction_event,omitempty"`

	ClientToolCallEvent *struct {
		ToolName   string          `json:"tool_name"`
		ToolCallID string          `json:"tool_call_id"`
		Parameters json.RawMessage `json:"parameters"`
	} `json:"client_tool_call,omitempty"`

	PingEvent *struct {
		EventID int `json:"event_id"`
	} `json:"ping_event,omitempty"`
}

const (
	messageTypeInitiationMetadata = "conversation_initiation_metadata"
	messageTypeUserTranscript     = "user_transcript"
	messageTypeAgentResponse      = "agent_response"
	messageTypeAgentCorrection    = "agent_response_correction"
	messageTypeClientToolCall     = "client_tool_call"
	messageTypeAudio              = "audio"
	messageTypeInterruption       = "interruption"
	messageTypePing               = "ping"
)

type initiationData struct {
	Type             string                        `json:"type"`
	DynamicVariables map[string]string             `json:"dynamic_variables,omitempty"`
	ClientTools      []voicechannel.ToolDefinition `json:"client_tools,omitempty"`
}

type pongMessage struct {
	Type    string `json:"type"`
	EventID int    `json:"event_id"`
}

type clientToolResult struct {
	Type       string `json:"type"`
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
	IsError    bool   `json:"is_error"`
}

type contextualUpdate struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type userMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
