package llms

import "context"

// Stream is a lazily-evaluated token stream from a completion provider.
// Chunks may be iterated exactly once; the request is issued when iteration
// starts.
type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

type StreamUsageChunk interface {
	StreamChunk
	Usage() Usage
}

// Usage summarizes token accounting reported by the provider at the end of a
// stream.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
