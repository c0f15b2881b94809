package events

import (
	"testing"
	"time"
)

func TestNormalizeResolvesExplicitRoleFirst(t *testing.T) {
	msg, ok := Normalize(VoicePayload{Role: "user", Source: "ai", Text: "hello"})
	if !ok {
		t.Fatalf("expected payload to normalize")
	}
	if msg.Role != RoleLearner {
		t.Fatalf("expected explicit role marker to win, got %q", msg.Role)
	}
	if msg.Channel != ChannelVoice {
		t.Fatalf("expected voice channel, got %q", msg.Channel)
	}
}

func TestNormalizeFallsBackThroughMarkers(t *testing.T) {
	msg, ok := Normalize(VoicePayload{Source: "user", Text: "hello"})
	if !ok || msg.Role != RoleLearner {
		t.Fatalf("expected source marker to resolve learner, got %q", msg.Role)
	}

	msg, ok = Normalize(VoicePayload{Type: "user_transcript", Text: "hello"})
	if !ok || msg.Role != RoleLearner {
		t.Fatalf("expected type marker to resolve learner, got %q", msg.Role)
	}
}

func TestNormalizeDefaultsToTutorWithoutMarkers(t *testing.T) {
	msg, ok := Normalize(VoicePayload{Text: "let's go over gravity"})
	if !ok {
		t.Fatalf("expected payload to normalize")
	}
	if msg.Role != RoleTutor {
		t.Fatalf("expected fail-open tutor attribution, got %q", msg.Role)
	}
}

func TestNormalizeTreatsUnknownMarkersAsTutor(t *testing.T) {
	msg, ok := Normalize(VoicePayload{Role: "agent", Source: "ai", Text: "hello"})
	if !ok || msg.Role != RoleTutor {
		t.Fatalf("expected non-learner markers to resolve tutor, got %q", msg.Role)
	}
}

func TestNormalizeDropsWhitespaceOnlyText(t *testing.T) {
	if _, ok := Normalize(VoicePayload{Role: "user", Text: "  \n\t "}); ok {
		t.Fatalf("expected whitespace-only payload to produce no event")
	}
}

func TestNormalizeTrimsText(t *testing.T) {
	msg, ok := Normalize(VoicePayload{Role: "user", Text: "  hello  "})
	if !ok || msg.Text != "hello" {
		t.Fatalf("expected trimmed text %q, got %q", "hello", msg.Text)
	}
}

func TestNormalizeHonorsExplicitTimestamp(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, ok := Normalize(VoicePayload{Role: "user", Text: "hello"}, WithTimestamp(at))
	if !ok || !msg.Timestamp().Equal(at) {
		t.Fatalf("expected pinned timestamp %v, got %v", at, msg.Timestamp())
	}
}

func TestNormalizeToolCallExtractsKnownKeys(t *testing.T) {
	msg, ok := NormalizeToolCall(map[string]any{"content": "E = mc^2"})
	if !ok {
		t.Fatalf("expected tool call to normalize")
	}
	if msg.Text != "E = mc^2" {
		t.Fatalf("expected extracted content, got %q", msg.Text)
	}
	if !msg.IsAnnotation || msg.Role != RoleTutor || msg.Channel != ChannelVoice {
		t.Fatalf("expected tutor/voice annotation, got %+v", msg)
	}
}

func TestNormalizeToolCallPrefersEarlierKeys(t *testing.T) {
	msg, ok := NormalizeToolCall(map[string]any{"text": "first", "message": "second"})
	if !ok || msg.Text != "first" {
		t.Fatalf("expected earlier key to win, got %q", msg.Text)
	}
}

func TestNormalizeToolCallFallsBackToSerializedPayload(t *testing.T) {
	msg, ok := NormalizeToolCall(map[string]any{"formula": "a^2 + b^2"})
	if !ok {
		t.Fatalf("expected fallback serialization")
	}
	if msg.Text != `{"formula":"a^2 + b^2"}` {
		t.Fatalf("unexpected serialized payload %q", msg.Text)
	}
}

func TestNormalizeToolCallDropsEmptyPayload(t *testing.T) {
	if _, ok := NormalizeToolCall(map[string]any{}); ok {
		t.Fatalf("expected empty parameters to produce no event")
	}
}
