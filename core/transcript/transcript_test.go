package transcript

import (
	"errors"
	"testing"
	"time"

	"github.com/tesslearn/tessa-core/core/events"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func learnerVoiceAt(text string, at time.Time) events.Message {
	return events.NewMessage(events.RoleLearner, events.ChannelVoice, text, events.WithTimestamp(at))
}

func TestAppendMergesRefinedUtteranceWithinWindow(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("The cat", base))
	log.Append(learnerVoiceAt("The cat sat", base.Add(2*time.Second)))

	messages := log.Snapshot()
	if len(messages) != 1 {
		t.Fatalf("expected refinements to merge into one message, got %d", len(messages))
	}
	if messages[0].Text != "The cat sat" {
		t.Fatalf("expected merged text %q, got %q", "The cat sat", messages[0].Text)
	}
	if !messages[0].CreatedAt.Equal(base) {
		t.Fatalf("expected CreatedAt to stay at first insertion, got %v", messages[0].CreatedAt)
	}
}

func TestAppendDoesNotMergeAcrossWindowBoundary(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("hello", base))
	log.Append(learnerVoiceAt("hello", base.Add(RecencyWindow)))

	if got := len(log.Snapshot()); got != 2 {
		t.Fatalf("expected separate utterances outside the window, got %d messages", got)
	}
}

func TestAppendDropsDuplicateDeliveryWithinWindow(t *testing.T) {
	log := NewLog()
	log.Append(events.NewMessage(events.RoleTutor, events.ChannelVoice, "welcome back", events.WithTimestamp(base)))
	log.Append(events.NewMessage(events.RoleTutor, events.ChannelVoice, "welcome back", events.WithTimestamp(base.Add(time.Second))))

	if got := len(log.Snapshot()); got != 1 {
		t.Fatalf("expected duplicate re-delivery to be dropped, got %d messages", got)
	}
}

func TestAppendDuplicateIsIdempotentForLearnerVoice(t *testing.T) {
	log := NewLog()
	ev := learnerVoiceAt("explain gravity", base)
	log.Append(ev)
	// Interpose a tutor turn so the second delivery cannot merge into the tail.
	log.Append(events.NewMessage(events.RoleTutor, events.ChannelVoice, "sure", events.WithTimestamp(base.Add(time.Second))))
	log.Append(learnerVoiceAt("explain gravity", base.Add(2*time.Second)))

	if got := len(log.Snapshot()); got != 2 {
		t.Fatalf("expected identical re-delivery to be a no-op, got %d messages", got)
	}
}

func TestAppendKeepsDistinctRolesApart(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("hello", base))
	log.Append(events.NewMessage(events.RoleTutor, events.ChannelVoice, "hello", events.WithTimestamp(base.Add(time.Second))))

	if got := len(log.Snapshot()); got != 2 {
		t.Fatalf("expected same text under different roles to stay separate, got %d messages", got)
	}
}

func TestAppendDoesNotMergeTextChannelIntoVoiceTail(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("hello", base))
	log.Append(events.NewMessage(events.RoleLearner, events.ChannelText, "hello there", events.WithTimestamp(base.Add(time.Second))))

	messages := log.Snapshot()
	if len(messages) != 2 {
		t.Fatalf("expected typed message to append, got %d messages", len(messages))
	}
	if messages[0].Text != "hello" {
		t.Fatalf("expected voice tail untouched, got %q", messages[0].Text)
	}
}

func TestAppendAnnotationNeverMergesIntoUtterance(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("hello", base))
	log.Append(events.NewAnnotationMessage("E = mc^2", events.WithTimestamp(base.Add(time.Second))))

	messages := log.Snapshot()
	if len(messages) != 2 {
		t.Fatalf("expected annotation to append, got %d messages", len(messages))
	}
	if !messages[1].IsAnnotation {
		t.Fatalf("expected annotation flag to survive reconciliation")
	}
	if messages[1].Role != events.RoleTutor || messages[1].Channel != events.ChannelVoice {
		t.Fatalf("expected tutor/voice annotation, got %s/%s", messages[1].Role, messages[1].Channel)
	}
}

func TestCreatedAtIsNonDecreasing(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("one", base))
	log.Append(events.NewMessage(events.RoleTutor, events.ChannelVoice, "two", events.WithTimestamp(base.Add(10*time.Second))))
	// Late event with a timestamp behind the tail.
	log.Append(events.NewMessage(events.RoleTutor, events.ChannelVoice, "three", events.WithTimestamp(base.Add(8*time.Second))))

	messages := log.Snapshot()
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Fatalf("CreatedAt decreased at position %d", i)
		}
	}
}

func TestStreamingLifecycle(t *testing.T) {
	log := NewLog()
	id := log.BeginStreaming(events.RoleTutor, events.ChannelText)

	if err := log.AppendDelta(id, "Hel"); err != nil {
		t.Fatalf("expected first delta to apply, got %v", err)
	}
	if err := log.AppendDelta(id, "lo"); err != nil {
		t.Fatalf("expected second delta to apply, got %v", err)
	}
	if err := log.Finalize(id); err != nil {
		t.Fatalf("expected finalize to succeed, got %v", err)
	}

	if err := log.AppendDelta(id, "!"); !errors.Is(err, ErrMessageFinalized) {
		t.Fatalf("expected post-finalize delta to fail with ErrMessageFinalized, got %v", err)
	}

	messages := log.Snapshot()
	if len(messages) != 1 || messages[0].Text != "Hello" {
		t.Fatalf("expected one message %q, got %+v", "Hello", messages)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	log := NewLog()
	id := log.BeginStreaming(events.RoleTutor, events.ChannelText)
	if err := log.Finalize(id); err != nil {
		t.Fatalf("expected finalize to succeed, got %v", err)
	}
	if err := log.Finalize(id); err != nil {
		t.Fatalf("expected repeated finalize to be a no-op, got %v", err)
	}
}

func TestZeroTokenStreamLeavesEmptyFinalizedMessage(t *testing.T) {
	log := NewLog()
	id := log.BeginStreaming(events.RoleTutor, events.ChannelText)
	if err := log.Finalize(id); err != nil {
		t.Fatalf("expected finalize to succeed, got %v", err)
	}

	messages := log.Snapshot()
	if len(messages) != 1 || messages[0].Text != "" {
		t.Fatalf("expected one empty finalized message, got %+v", messages)
	}
}

func TestAppendDeltaRejectsUnknownID(t *testing.T) {
	log := NewLog()
	if err := log.AppendDelta("missing", "x"); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
	if err := log.Finalize("missing"); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
}

func TestAppendDeltaRejectsAppendedMessages(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("hello", base))
	id := log.Snapshot()[0].ID

	if err := log.AppendDelta(id, "x"); !errors.Is(err, ErrMessageFinalized) {
		t.Fatalf("expected appended messages to be immutable, got %v", err)
	}
}

func TestResetRetiresIssuedIDs(t *testing.T) {
	log := NewLog()
	id := log.BeginStreaming(events.RoleTutor, events.ChannelText)
	log.Reset()

	if got := len(log.Snapshot()); got != 0 {
		t.Fatalf("expected empty sequence after reset, got %d messages", got)
	}
	if err := log.AppendDelta(id, "late"); !errors.Is(err, ErrMessageRetired) {
		t.Fatalf("expected late delta to fail with ErrMessageRetired, got %v", err)
	}
	if err := log.Finalize(id); !errors.Is(err, ErrMessageRetired) {
		t.Fatalf("expected late finalize to fail with ErrMessageRetired, got %v", err)
	}

	fresh := log.BeginStreaming(events.RoleTutor, events.ChannelText)
	if fresh == id {
		t.Fatalf("expected fresh id after reset, got reissued %q", fresh)
	}
}

func TestIteratorsWalkBothDirections(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("one", base))
	log.Append(events.NewMessage(events.RoleTutor, events.ChannelVoice, "two", events.WithTimestamp(base.Add(time.Second))))

	var forward []string
	for message := range log.Messages {
		forward = append(forward, message.Text)
	}
	var backward []string
	for message := range log.RMessages {
		backward = append(backward, message.Text)
	}

	if len(forward) != 2 || forward[0] != "one" || forward[1] != "two" {
		t.Fatalf("unexpected forward order %v", forward)
	}
	if len(backward) != 2 || backward[0] != "two" || backward[1] != "one" {
		t.Fatalf("unexpected backward order %v", backward)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	log := NewLog()
	log.Append(learnerVoiceAt("hello", base))

	snapshot := log.Snapshot()
	snapshot[0].Text = "mutated"

	if log.Snapshot()[0].Text != "hello" {
		t.Fatalf("expected snapshot mutation to not reach the log")
	}
}
