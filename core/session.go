// Package tutoring orchestrates a live voice/text tutoring session: a
// bidirectional voice agent channel and a typed completion exchange feed one
// reconciled transcript, with an auxiliary blackboard surface written by the
// agent through a client tool.
package tutoring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tesslearn/tessa-core/core/contents"
	"github.com/tesslearn/tessa-core/core/events"
	"github.com/tesslearn/tessa-core/core/transcript"
	"github.com/tesslearn/tessa-core/core/voicechannel"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrResponseInFlight     = errors.New("a response is already being generated")
	ErrVoiceNotConfigured   = errors.New("no voice channel configured")
	ErrNoStreamingLLM       = errors.New("no streaming llm configured")
	ErrConversationInFlight = errors.New("conversation already started")
)

type Session struct {
	transcript *transcript.Log
	voice      voicechannel.Client
	llm        LLMWithStream
	contents   *contents.Store

	blackboard blackboard

	persona           string
	maxResponseTokens int

	mu           sync.Mutex
	status       voicechannel.Status
	isSpeaking   bool
	ordinal      int
	inFlight     bool
	ended        bool
	conversation ConversationOptions

	onTranscriptChanged func()
	onBlackboardChanged func(content string)
	onStatusChanged     func(status voicechannel.Status)
	onSpeakingChanged   func(isSpeaking bool)
	onError             func(err error)
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		transcript: transcript.NewLog(),
		contents:   contents.NewStore(nil),
		persona:    defaultPersona,
		status:     voicechannel.StatusDisconnected,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Transcript returns a point-in-time snapshot of the reconciled message
// sequence for display.
func (s *Session) Transcript() []transcript.Message {
	return s.transcript.Snapshot()
}

// Blackboard returns the accumulated blackboard content.
func (s *Session) Blackboard() string {
	return s.blackboard.Content()
}

func (s *Session) Status() voicechannel.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSpeaking
}

// Greeting returns the opening utterance for the current conversation
// ordinal.
func (s *Session) Greeting() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Greeting(s.ordinal)
}

// StartConversation connects the voice channel and opens a fresh
// conversation. Starting again after an explicit end resets the transcript
// and the blackboard; ids issued in the previous conversation stay retired.
func (s *Session) StartConversation(ctx context.Context, opts ...ConversationOption) error {
	ctx, span := tracer.Start(ctx, "start conversation")
	defer span.End()

	options := ConversationOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	s.mu.Lock()
	if s.status != voicechannel.StatusDisconnected {
		s.mu.Unlock()
		return ErrConversationInFlight
	}
	s.conversation = options
	s.mu.Unlock()

	if s.voice == nil {
		return ErrVoiceNotConfigured
	}

	sessionOpts := []voicechannel.SessionOption{
		voicechannel.WithMessageCallback(s.handleVoicePayload),
		voicechannel.WithToolCallCallback(s.handleToolCall),
		voicechannel.WithStatusChangedCallback(s.handleStatusChanged),
		voicechannel.WithSpeakingChangedCallback(s.handleSpeakingChanged),
		voicechannel.WithErrorCallback(s.handleVoiceError),
		voicechannel.WithClientTools(sessionTools()...),
	}
	for _, name := range []struct{ variable, id string }{
		{"learner", options.LearnerID},
		{"module", options.ModuleID},
	} {
		if name.id == "" {
			continue
		}
		if blob, ok := s.contents.Get(name.id); ok {
			sessionOpts = append(sessionOpts, voicechannel.WithDynamicVariable(name.variable, blob))
		}
	}

	if err := s.voice.Start(ctx, sessionOpts...); err != nil {
		err = fmt.Errorf("failed to start voice conversation: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	// A session only counts once the channel is up: a failed attempt must not
	// consume an ordinal, wipe a reviewable transcript, or orphan a greeting.
	s.mu.Lock()
	fresh := s.ended
	s.ended = false
	s.ordinal++
	ordinal := s.ordinal
	s.mu.Unlock()

	if fresh {
		s.transcript.Reset()
		s.blackboard.Clear()
		s.notifyBlackboard("")
	}

	s.transcript.Append(events.NewMessage(events.RoleTutor, events.ChannelVoice, Greeting(ordinal)))
	s.notifyTranscript()

	return nil
}

// EndConversation disconnects the voice channel. The transcript survives
// until the next StartConversation so the learner can review it.
func (s *Session) EndConversation(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "end conversation")
	defer span.End()

	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	if s.voice == nil {
		return nil
	}

	if err := s.voice.Stop(ctx); err != nil {
		err = fmt.Errorf("failed to end voice conversation: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// SetVolume forwards the playback volume to the voice channel.
func (s *Session) SetVolume(volume float64) {
	if s.voice == nil {
		return
	}
	s.voice.SetVolume(volume)
}

func (s *Session) handleVoicePayload(payload events.VoicePayload) {
	ev, ok := events.Normalize(payload)
	if !ok {
		return
	}

	s.transcript.Append(ev)
	s.notifyTranscript()
}

func (s *Session) handleToolCall(name string, parameters map[string]any) (string, error) {
	if name != blackboardToolName {
		return "", fmt.Errorf("tool not found: %s", name)
	}

	ev, ok := events.NormalizeToolCall(parameters)
	if !ok {
		return "", fmt.Errorf("blackboard call carried no content")
	}

	content := s.blackboard.Write(ev.Text)
	s.transcript.Append(ev)
	s.notifyTranscript()
	s.notifyBlackboard(content)

	return "Successfully updated blackboard", nil
}

func (s *Session) handleStatusChanged(status voicechannel.Status) {
	s.mu.Lock()
	s.status = status
	callback := s.onStatusChanged
	s.mu.Unlock()

	if callback != nil {
		callback(status)
	}
}

func (s *Session) handleSpeakingChanged(isSpeaking bool) {
	s.mu.Lock()
	s.isSpeaking = isSpeaking
	callback := s.onSpeakingChanged
	s.mu.Unlock()

	if callback != nil {
		callback(isSpeaking)
	}
}

func (s *Session) handleVoiceError(err error) {
	logger.Error("voice channel error", "error", err)

	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Session) notifyTranscript() {
	if s.onTranscriptChanged != nil {
		s.onTranscriptChanged()
	}
}

func (s *Session) notifyBlackboard(content string) {
	if s.onBlackboardChanged != nil {
		s.onBlackboardChanged(content)
	}
}
