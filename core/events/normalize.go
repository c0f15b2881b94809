package events

import (
	"encoding/json"
	"strings"
)

// VoicePayload is the loose shape voice-channel events arrive in. Providers
// disagree on where the speaker marker lives, so all three hint fields are
// kept and resolved in priority order.
type VoicePayload struct {
	Role   string `json:"role,omitempty"`
	Source string `json:"source,omitempty"`
	Type   string `json:"type,omitempty"`
	Text   string `json:"text"`
}

// toolTextKeys are the parameter names tool invocations are expected to carry
// their content under, checked in order.
var toolTextKeys = []string{"text", "content", "value", "message"}

// Normalize converts one voice-channel payload into at most one Message.
// Whitespace-only payloads produce no event.
//
// The role resolves to learner if any user-indicating marker matches, and to
// tutor otherwise. Payloads without any marker also resolve to tutor: a
// missed agent reply is more disruptive to the transcript than a
// misattributed one.
func Normalize(payload VoicePayload, opts ...RebaseOption) (Message, bool) {
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return Message{}, false
	}

	return NewMessage(resolveRole(payload), ChannelVoice, text, opts...), true
}

func resolveRole(payload VoicePayload) Role {
	for _, marker := range []string{payload.Role, payload.Source, payload.Type} {
		if marker == "" {
			continue
		}
		if isLearnerMarker(marker) {
			return RoleLearner
		}
	}
	return RoleTutor
}

func isLearnerMarker(marker string) bool {
	switch strings.ToLower(strings.TrimSpace(marker)) {
	case "user", "human", "learner", "user_transcript":
		return true
	}
	return false
}

// NormalizeToolCall converts a tool invocation's parameters into an
// annotation Message. The content is taken from the first recognized
// parameter name; unrecognized shapes fall back to the serialized payload so
// no tool write is ever lost silently.
func NormalizeToolCall(parameters map[string]any, opts ...RebaseOption) (Message, bool) {
	for _, key := range toolTextKeys {
		value, ok := parameters[key]
		if !ok {
			continue
		}
		text, ok := value.(string)
		if !ok {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return NewAnnotationMessage(text, opts...), true
		}
	}

	serialized, err := json.Marshal(parameters)
	if err != nil || len(parameters) == 0 {
		return Message{}, false
	}

	return NewAnnotationMessage(string(serialized), opts...), true
}
