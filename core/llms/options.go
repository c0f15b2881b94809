package llms

// StreamingPromptOptions collects everything a provider needs to open a
// token-streaming exchange.
type StreamingPromptOptions struct {
	Instructions string
	Turns        []Turn
	MaxTokens    int
}

type StreamingPromptOption func(*StreamingPromptOptions)

// WithSystemPrompt sets the system instruction for the exchange. Repeating
// this option overwrites the previous instruction.
func WithSystemPrompt(prompt string) StreamingPromptOption {
	return func(opts *StreamingPromptOptions) {
		opts.Instructions = prompt
	}
}

// WithTurns adds prior turns to the exchange's history. Repeating this option
// sequentially adds more turns.
func WithTurns(turns ...Turn) StreamingPromptOption {
	return func(opts *StreamingPromptOptions) {
		opts.Turns = append(opts.Turns, turns...)
	}
}

// WithMaxTokens caps the provider's output length. Zero leaves the provider
// default in place.
func WithMaxTokens(maxTokens int) StreamingPromptOption {
	return func(opts *StreamingPromptOptions) {
		opts.MaxTokens = maxTokens
	}
}
