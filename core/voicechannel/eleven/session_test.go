package eleven

import (
	"context"
	"testing"

	"github.com/tesslearn/tessa-core/core/events"
	"github.com/tesslearn/tessa-core/core/voicechannel"
)

func newTestClient(opts ...voicechannel.SessionOption) *ConversationClient {
	options := voicechannel.SessionOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return &ConversationClient{
		agentID: "test-agent",
		status:  voicechannel.StatusConnected,
		options: options,
	}
}

func TestProcessMessageEmitsUserTranscript(t *testing.T) {
	var payloads []events.VoicePayload
	client := newTestClient(voicechannel.WithMessageCallback(func(payload events.VoicePayload) {
		payloads = append(payloads, payload)
	}))

	client.processMessage(context.Background(), []byte(`{
		"type": "user_transcript",
		"user_transcription_event": {"user_transcript": "explain gravity"}
	}`))

	if len(payloads) != 1 {
		t.Fatalf("expected one payload, got %d", len(payloads))
	}
	if payloads[0].Role != "user" || payloads[0].Text != "explain gravity" {
		t.Fatalf("unexpected payload %+v", payloads[0])
	}
}

func TestProcessMessageEmitsAgentResponseAndCorrection(t *testing.T) {
	var payloads []events.VoicePayload
	client := newTestClient(voicechannel.WithMessageCallback(func(payload events.VoicePayload) {
		payloads = append(payloads, payload)
	}))

	client.processMessage(context.Background(), []byte(`{
		"type": "agent_response",
		"agent_response_event": {"agent_response": "Gravity pulls masses together."}
	}`))
	client.processMessage(context.Background(), []byte(`{
		"type": "agent_response_correction",
		"agent_response_correction_event": {"corrected_agent_response": "Gravity pulls masses together."}
	}`))

	if len(payloads) != 2 {
		t.Fatalf("expected both delivery paths to emit, got %d", len(payloads))
	}
	for _, payload := range payloads {
		if payload.Source != "ai" {
			t.Fatalf("expected ai source marker, got %+v", payload)
		}
	}
	if payloads[0].Text != payloads[1].Text {
		t.Fatalf("expected correction to carry the same text, got %q / %q", payloads[0].Text, payloads[1].Text)
	}
}

func TestProcessMessageTracksSpeakingState(t *testing.T) {
	var states []bool
	client := newTestClient(voicechannel.WithSpeakingChangedCallback(func(isSpeaking bool) {
		states = append(states, isSpeaking)
	}))

	client.processMessage(context.Background(), []byte(`{"type": "audio"}`))
	client.processMessage(context.Background(), []byte(`{"type": "audio"}`))
	client.processMessage(context.Background(), []byte(`{"type": "interruption"}`))

	if len(states) != 2 || !states[0] || states[1] {
		t.Fatalf("expected speaking states [true false], got %v", states)
	}
}

func TestProcessMessageDispatchesClientToolCall(t *testing.T) {
	var gotName string
	var gotParameters map[string]any
	client := newTestClient(voicechannel.WithToolCallCallback(func(name string, parameters map[string]any) (string, error) {
		gotName = name
		gotParameters = parameters
		return "ok", nil
	}))

	client.processMessage(context.Background(), []byte(`{
		"type": "client_tool_call",
		"client_tool_call": {
			"tool_name": "blackboard",
			"tool_call_id": "call-1",
			"parameters": {"text": "E = mc^2"}
		}
	}`))

	if gotName != "blackboard" {
		t.Fatalf("expected blackboard tool call, got %q", gotName)
	}
	if gotParameters["text"] != "E = mc^2" {
		t.Fatalf("unexpected parameters %+v", gotParameters)
	}
}

func TestProcessMessageIgnoresMalformedPayloads(t *testing.T) {
	client := newTestClient(voicechannel.WithMessageCallback(func(payload events.VoicePayload) {
		t.Fatalf("expected no payload for malformed message, got %+v", payload)
	}))

	client.processMessage(context.Background(), []byte(`{not json`))
	client.processMessage(context.Background(), []byte(`{"type": "user_transcript"}`))
	client.processMessage(context.Background(), []byte(`{"type": "unknown_event"}`))
}

func TestOptionsSwapDoesNotRaceMessageProcessing(t *testing.T) {
	client := newTestClient()

	// A read loop from a previous session can still be dereferencing the
	// callbacks while a new Start swaps them in.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			client.processMessage(context.Background(), []byte(`{
				"type": "agent_response",
				"agent_response_event": {"agent_response": "still here"}
			}`))
		}
	}()

	for range 200 {
		options := voicechannel.SessionOptions{}
		voicechannel.WithMessageCallback(func(events.VoicePayload) {})(&options)
		client.setOptions(options)
	}
	<-done

	if client.sessionOptions().MessageCallback == nil {
		t.Fatalf("expected the swapped callbacks to stay installed")
	}
}

func TestSetVolumeClamps(t *testing.T) {
	client := newTestClient()

	client.SetVolume(1.5)
	if got := client.Volume(); got != 1 {
		t.Fatalf("expected volume clamped to 1, got %f", got)
	}

	client.SetVolume(-0.2)
	if got := client.Volume(); got != 0 {
		t.Fatalf("expected volume clamped to 0, got %f", got)
	}
}
