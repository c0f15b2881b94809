package events

// Role describes who a normalized message is attributed to.
type Role string

const (
	RoleLearner Role = "learner"
	RoleTutor   Role = "tutor"
)

// Channel describes which source produced a normalized message.
type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelText  Channel = "text"
)

// Message is the single internal shape every inbound payload normalizes to.
type Message struct {
	Base
	Role         Role
	Channel      Channel
	Text         string
	IsAnnotation bool
}

func (m Message) String() string { return m.Text }

func NewMessage(role Role, channel Channel, text string, opts ...RebaseOption) Message {
	base := NewBase()
	for _, opt := range opts {
		opt(&base)
	}

	return Message{
		Base:    base,
		Role:    role,
		Channel: channel,
		Text:    text,
	}
}

// NewAnnotationMessage builds the normalized form of a tool-authored update.
// Annotations are always attributed to the tutor on the voice channel; the
// agent is the only party wired to the tool surface.
func NewAnnotationMessage(text string, opts ...RebaseOption) Message {
	base := NewBase()
	for _, opt := range opts {
		opt(&base)
	}

	return Message{
		Base:         base,
		Role:         RoleTutor,
		Channel:      ChannelVoice,
		Text:         text,
		IsAnnotation: true,
	}
}
