// Package voicechannel defines the contract for the bidirectional voice
// agent channel. Implementations live in subpackages; consumers only depend
// on the Client interface and the callback options here.
package voicechannel

import (
	"context"

	"github.com/invopop/jsonschema"
	"github.com/tesslearn/tessa-core/core/events"
)

// Status is the connection state of the channel.
type Status string

const (
	StatusDisconnected  Status = "disconnected"
	StatusConnecting    Status = "connecting"
	StatusConnected     Status = "connected"
	StatusDisconnecting Status = "disconnecting"
)

// Client is a live voice agent channel.
type Client interface {
	Start(ctx context.Context, opts ...SessionOption) error
	Stop(ctx context.Context) error

	SetVolume(volume float64)

	// SendContextualUpdate pushes background context to the agent without
	// triggering a spoken response.
	SendContextualUpdate(text string) error
	// SendUserMessage submits text on the learner's behalf, as if spoken.
	SendUserMessage(text string) error
}

type SessionOptions struct {
	MessageCallback  func(payload events.VoicePayload)
	ToolCallCallback func(name string, parameters map[string]any) (string, error)

	StatusChangedCallback   func(status Status)
	SpeakingChangedCallback func(isSpeaking bool)
	ErrorCallback           func(err error)

	DynamicVariables map[string]string
	ClientTools      []ToolDefinition
}

// ToolDefinition announces a client-side tool to the agent at session start.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type SessionOption func(*SessionOptions)

func WithMessageCallback(callback func(payload events.VoicePayload)) SessionOption {
	return func(o *SessionOptions) {
		o.MessageCallback = callback
	}
}

func WithToolCallCallback(callback func(name string, parameters map[string]any) (string, error)) SessionOption {
	return func(o *SessionOptions) {
		o.ToolCallCallback = callback
	}
}

func WithStatusChangedCallback(callback func(status Status)) SessionOption {
	return func(o *SessionOptions) {
		o.StatusChangedCallback = callback
	}
}

func WithSpeakingChangedCallback(callback func(isSpeaking bool)) SessionOption {
	return func(o *SessionOptions) {
		o.SpeakingChangedCallback = callback
	}
}

func WithErrorCallback(callback func(err error)) SessionOption {
	return func(o *SessionOptions) {
		o.ErrorCallback = callback
	}
}

// WithDynamicVariable attaches one named context blob to session start (e.g.
// a learner profile or module text the agent should tutor from).
func WithDynamicVariable(name string, value string) SessionOption {
	return func(o *SessionOptions) {
		if o.DynamicVariables == nil {
			o.DynamicVariables = map[string]string{}
		}
		o.DynamicVariables[name] = value
	}
}

func WithClientTools(tools ...ToolDefinition) SessionOption {
	return func(o *SessionOptions) {
		o.ClientTools = append(o.ClientTools, tools...)
	}
}
