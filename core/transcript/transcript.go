// Package transcript owns the ordered message sequence of a tutoring
// session. It is the single authority over reconciliation: every mutation
// goes through Log, which serializes the inspect-tail/decide/mutate cycle
// behind one mutex so events from the voice channel, the completion stream,
// and the UI can never observe each other's partially applied state.
package transcript

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tesslearn/tessa-core/core/events"
)

// RecencyWindow bounds how long a same-role voice event is treated as a
// continuation or duplicate of the tail utterance rather than a new turn.
// Upstream transcription revises a single utterance through several discrete
// events; five seconds merges those revisions without swallowing genuinely
// separate quick utterances.
const RecencyWindow = 5 * time.Second

var (
	ErrUnknownMessage   = errors.New("no message with that id")
	ErrMessageFinalized = errors.New("message already finalized")
	ErrMessageRetired   = errors.New("message id retired by reset")
)

// Message is one entry of the transcript. Text mutates in place while the
// producing stream is still emitting; CreatedAt is fixed at insertion and
// never changes.
type Message struct {
	ID           string
	Role         events.Role
	Channel      events.Channel
	Text         string
	CreatedAt    time.Time
	IsAnnotation bool
}

type Log struct {
	mu sync.Mutex

	messages  []Message
	index     map[string]int
	streaming map[string]struct{}
	retired   map[string]struct{}

	now func() time.Time
}

func NewLog() *Log {
	return &Log{
		index:     map[string]int{},
		streaming: map[string]struct{}{},
		retired:   map[string]struct{}{},
		now:       time.Now,
	}
}

// Append applies one normalized event to the sequence.
//
// A learner voice event lands in one of three ways:
//
//   - the tail is a learner voice message younger than RecencyWindow: the
//     event is a refined transcript of the same utterance, so the tail's text
//     is replaced in place (CreatedAt stays put);
//   - an identical same-role message exists inside the window: the event is a
//     redundant re-delivery through a second event path and is dropped;
//   - otherwise a new message is appended.
//
// All other events only go through the duplicate check before appending.
// Window math uses the event's own timestamp, not the wall clock.
func (l *Log) Append(ev events.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	at := ev.Timestamp()

	if ev.Channel == events.ChannelVoice && ev.Role == events.RoleLearner && !ev.IsAnnotation {
		if tail := l.tailLocked(); tail != nil &&
			tail.Role == events.RoleLearner &&
			tail.Channel == events.ChannelVoice &&
			!tail.IsAnnotation &&
			!l.isStreamingLocked(tail.ID) &&
			at.Sub(tail.CreatedAt) < RecencyWindow {
			tail.Text = ev.Text
			return
		}
	}

	if l.isDuplicateLocked(ev, at) {
		return
	}

	l.appendLocked(Message{
		ID:           uuid.NewString(),
		Role:         ev.Role,
		Channel:      ev.Channel,
		Text:         ev.Text,
		CreatedAt:    l.clampLocked(at),
		IsAnnotation: ev.IsAnnotation,
	})
}

// BeginStreaming appends an empty placeholder message and returns its id so
// a producer can reveal content incrementally before it has any text.
func (l *Log) BeginStreaming(role events.Role, channel events.Channel) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.NewString()
	l.appendLocked(Message{
		ID:        id,
		Role:      role,
		Channel:   channel,
		CreatedAt: l.clampLocked(l.now()),
	})
	l.streaming[id] = struct{}{}
	return id
}

// AppendDelta concatenates delta onto the streaming message with the given
// id. Messages that were never opened for streaming, or whose stream already
// finished, reject the delta; ids issued before the last Reset are reported
// as retired so late callbacks can tell invalidation from a typo.
func (l *Log) AppendDelta(id string, delta string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.retired[id]; ok {
		return ErrMessageRetired
	}
	idx, ok := l.index[id]
	if !ok {
		return ErrUnknownMessage
	}
	if _, ok := l.streaming[id]; !ok {
		return ErrMessageFinalized
	}

	l.messages[idx].Text += delta
	return nil
}

// Finalize marks a streaming message as complete. Finalizing twice is a
// no-op; the message is immutable either way.
func (l *Log) Finalize(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.retired[id]; ok {
		return ErrMessageRetired
	}
	if _, ok := l.index[id]; !ok {
		return ErrUnknownMessage
	}

	delete(l.streaming, id)
	return nil
}

// Reset clears the sequence for a fresh conversation. Every id issued so far
// is retired: a delta arriving for a pre-reset message must fail, not land in
// the new conversation.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range l.index {
		l.retired[id] = struct{}{}
	}
	l.messages = nil
	l.index = map[string]int{}
	l.streaming = map[string]struct{}{}
}

// Snapshot returns a point-in-time copy of the sequence for display.
func (l *Log) Snapshot() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]Message, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// Messages is an iterator over the sequence from earliest to latest.
func (l *Log) Messages(yield func(Message) bool) {
	for _, message := range l.Snapshot() {
		if !yield(message) {
			return
		}
	}
}

// RMessages is an iterator over the sequence from latest to earliest.
func (l *Log) RMessages(yield func(Message) bool) {
	for _, message := range slices.Backward(l.Snapshot()) {
		if !yield(message) {
			return
		}
	}
}

func (l *Log) isStreamingLocked(id string) bool {
	_, ok := l.streaming[id]
	return ok
}

func (l *Log) tailLocked() *Message {
	if len(l.messages) == 0 {
		return nil
	}
	return &l.messages[len(l.messages)-1]
}

func (l *Log) isDuplicateLocked(ev events.Message, at time.Time) bool {
	for _, message := range slices.Backward(l.messages) {
		if at.Sub(message.CreatedAt) >= RecencyWindow {
			return false
		}
		if message.Role == ev.Role && message.Text == ev.Text {
			return true
		}
	}
	return false
}

// clampLocked keeps CreatedAt non-decreasing even when an event carries a
// timestamp older than the tail (out-of-order delivery is tolerated, a
// reordered display is not).
func (l *Log) clampLocked(at time.Time) time.Time {
	if tail := l.tailLocked(); tail != nil && at.Before(tail.CreatedAt) {
		return tail.CreatedAt
	}
	return at
}

func (l *Log) appendLocked(message Message) {
	l.index[message.ID] = len(l.messages)
	l.messages = append(l.messages, message)
}
