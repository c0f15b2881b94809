package tutoring

import (
	"context"

	"github.com/tesslearn/tessa-core/core/contents"
	"github.com/tesslearn/tessa-core/core/llms"
	"github.com/tesslearn/tessa-core/core/voicechannel"
)

type SessionOption func(*Session)

// LLMWithStream is the text-completion provider contract the session drives
// its typed exchanges against.
type LLMWithStream interface {
	PromptWithStream(ctx context.Context, prompt *string, systemPrompt string, opts ...llms.StreamingPromptOption) llms.Stream
}

func WithStreamingLLM(client LLMWithStream) SessionOption {
	return func(s *Session) { s.llm = client }
}

func WithVoiceChannel(client voicechannel.Client) SessionOption {
	return func(s *Session) { s.voice = client }
}

func WithContentStore(store *contents.Store) SessionOption {
	return func(s *Session) { s.contents = store }
}

// WithPersona overrides the default tutor persona used as the base of every
// system instruction.
func WithPersona(persona string) SessionOption {
	return func(s *Session) { s.persona = persona }
}

// WithMaxResponseTokens caps typed-exchange responses. Zero keeps the
// provider default.
func WithMaxResponseTokens(maxTokens int) SessionOption {
	return func(s *Session) { s.maxResponseTokens = maxTokens }
}

func WithTranscriptChangedCallback(callback func()) SessionOption {
	return func(s *Session) { s.onTranscriptChanged = callback }
}

func WithBlackboardChangedCallback(callback func(content string)) SessionOption {
	return func(s *Session) { s.onBlackboardChanged = callback }
}

func WithStatusChangedCallback(callback func(status voicechannel.Status)) SessionOption {
	return func(s *Session) { s.onStatusChanged = callback }
}

func WithSpeakingChangedCallback(callback func(isSpeaking bool)) SessionOption {
	return func(s *Session) { s.onSpeakingChanged = callback }
}

func WithErrorCallback(callback func(err error)) SessionOption {
	return func(s *Session) { s.onError = callback }
}

// ConversationOption configures one conversation start.
type ConversationOptions struct {
	LearnerID string
	ModuleID  string
}

type ConversationOption func(*ConversationOptions)

// WithLearner selects the learner profile blob handed to the agent and woven
// into typed-exchange instructions.
func WithLearner(id string) ConversationOption {
	return func(o *ConversationOptions) { o.LearnerID = id }
}

// WithModule selects the tutoring module blob.
func WithModule(id string) ConversationOption {
	return func(o *ConversationOptions) { o.ModuleID = id }
}
