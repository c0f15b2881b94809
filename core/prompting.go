package tutoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tesslearn/tessa-core/core/events"
	"github.com/tesslearn/tessa-core/core/llms"
	"github.com/tesslearn/tessa-core/core/transcript"
	"github.com/tesslearn/tessa-core/core/voicechannel"
	"github.com/tesslearn/tessa-core/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultPersona = "You are Tessa, a patient one-on-one tutor. " +
	"Keep explanations short and concrete, check understanding with questions, " +
	"and build on what the learner already got right."

// SendPrompt submits learner-typed text to the session.
//
// While the voice channel is connected the text is handed to the voice agent,
// which answers through its own event stream. Otherwise a typed exchange runs
// against the completion provider: the prompt is appended as a learner
// message, a tutor placeholder streams token by token, and the finished text
// is forwarded to any later-connected voice context.
//
// At most one typed exchange runs at a time; a second submission fails with
// ErrResponseInFlight and must be prevented at the input boundary, not
// queued.
func (s *Session) SendPrompt(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if s.Status() == voicechannel.StatusConnected {
		s.transcript.Append(events.NewMessage(events.RoleLearner, events.ChannelText, text))
		s.notifyTranscript()

		if err := s.voice.SendUserMessage(text); err != nil {
			err = fmt.Errorf("failed to hand prompt to voice agent: %w", err)
			s.reportError(err)
			return err
		}
		return nil
	}

	if s.llm == nil {
		return ErrNoStreamingLLM
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrResponseInFlight
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	ctx, span := tracer.Start(ctx, "typed exchange")
	defer span.End()

	// History is captured before the prompt lands in the transcript; the
	// provider receives the prompt separately.
	history := s.history()

	s.transcript.Append(events.NewMessage(events.RoleLearner, events.ChannelText, text))
	s.notifyTranscript()

	promptOpts := []llms.StreamingPromptOption{llms.WithTurns(history...)}
	if s.maxResponseTokens > 0 {
		promptOpts = append(promptOpts, llms.WithMaxTokens(s.maxResponseTokens))
	}

	stream := s.llm.PromptWithStream(ctx, utils.Ptr(text), s.systemInstruction(), promptOpts...)

	id := s.transcript.BeginStreaming(events.RoleTutor, events.ChannelText)
	s.notifyTranscript()
	span.SetAttributes(attribute.String("response.message_id", id))

	var response strings.Builder
	var streamErr error
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			streamErr = err
			break
		}

		contentChunk, ok := chunk.(llms.StreamContentChunk)
		if !ok {
			continue
		}

		if err := s.transcript.AppendDelta(id, contentChunk.Content()); err != nil {
			if errors.Is(err, transcript.ErrMessageRetired) {
				// The conversation was reset mid-stream; drop the rest.
				span.AddEvent("stream invalidated by reset")
				return nil
			}
			streamErr = err
			break
		}
		response.WriteString(contentChunk.Content())
		s.notifyTranscript()
	}

	if err := s.transcript.Finalize(id); err != nil && !errors.Is(err, transcript.ErrMessageRetired) {
		logger.Error("failed to finalize streamed response", "error", err)
	}
	s.notifyTranscript()

	if streamErr != nil {
		// The placeholder keeps whatever partial text it had; the engine
		// stays usable for the next event.
		streamErr = fmt.Errorf("typed exchange failed: %w", streamErr)
		span.RecordError(streamErr)
		span.SetStatus(codes.Error, streamErr.Error())
		s.reportError(streamErr)
		return streamErr
	}

	s.forwardToVoice(response.String())
	return nil
}

// forwardToVoice keeps a live voice agent's context in sync with the typed
// exchange. One-way and best-effort: delivery failure never rolls back the
// text message.
func (s *Session) forwardToVoice(text string) {
	if text == "" || s.voice == nil || s.Status() != voicechannel.StatusConnected {
		return
	}

	if err := s.voice.SendContextualUpdate(text); err != nil {
		logger.Warn("failed to forward typed response to voice agent", "error", err)
	}
}

// history maps the transcript onto provider turns, excluding blackboard
// annotations and empty placeholders.
func (s *Session) history() []llms.Turn {
	var turns []llms.Turn
	for _, message := range s.transcript.Snapshot() {
		if message.IsAnnotation || strings.TrimSpace(message.Text) == "" {
			continue
		}

		role := llms.TurnRoleAssistant
		if message.Role == events.RoleLearner {
			role = llms.TurnRoleUser
		}
		turns = append(turns, llms.Turn{Role: role, Content: message.Text})
	}
	return turns
}

// systemInstruction assembles the persona with the conversation's learner
// and module blobs.
func (s *Session) systemInstruction() string {
	s.mu.Lock()
	conversation := s.conversation
	s.mu.Unlock()

	sections := []string{s.persona}
	if blob, ok := s.contents.Get(conversation.LearnerID); ok && conversation.LearnerID != "" {
		sections = append(sections, "About the learner:\n"+blob)
	}
	if blob, ok := s.contents.Get(conversation.ModuleID); ok && conversation.ModuleID != "" {
		sections = append(sections, "Module being tutored:\n"+blob)
	}
	return strings.Join(sections, "\n\n")
}

func (s *Session) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
