package tutoring

import (
	"strings"
	"sync"
)

// blackboard accumulates tool-authored content, newline joined in arrival
// order, alongside the transcript's annotation messages.
type blackboard struct {
	mu    sync.Mutex
	lines []string
}

func (b *blackboard) Write(text string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = append(b.lines, text)
	return strings.Join(b.lines, "\n")
}

func (b *blackboard) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

func (b *blackboard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}
