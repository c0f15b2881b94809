package eleven

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tesslearn/tessa-core/core/voicechannel"
)

var _ voicechannel.Client = (*ConversationClient)(nil)

// ConversationClient is a websocket session against an ElevenLabs
// conversational agent. Audio frames from the agent are acknowledged but not
// decoded; capture and playback sit outside this module's boundary.
type ConversationClient struct {
	agentID string

	conn   *websocket.Conn
	connMu sync.Mutex

	status   voicechannel.Status
	volume   float64
	options  voicechannel.SessionOptions
	stateMu  sync.Mutex
	speaking bool
}

func NewConversationClient(agentID string) (*ConversationClient, error) {
	if agentID == "" {
		envAgentID, ok := os.LookupEnv("ELEVENLABS_AGENT_ID")
		if !ok {
			return nil, fmt.Errorf("elevenlabs agent id not found")
		}
		agentID = envAgentID
	}

	return &ConversationClient{
		agentID: agentID,
		status:  voicechannel.StatusDisconnected,
		volume:  0.8,
	}, nil
}

func (c *ConversationClient) Start(ctx context.Context, opts ...voicechannel.SessionOption) error {
	options := voicechannel.SessionOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	c.setOptions(options)

	c.setStatus(voicechannel.StatusConnecting)

	conn, err := connectWebsocket(c.agentID)
	if err != nil {
		c.setStatus(voicechannel.StatusDisconnected)
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if err := c.writeJSON(initiationData{
		Type:             "conversation_initiation_client_data",
		DynamicVariables: options.DynamicVariables,
		ClientTools:      options.ClientTools,
	}); err != nil {
		conn.Close()
		c.setStatus(voicechannel.StatusDisconnected)
		return fmt.Errorf("failed to send initiation data: %w", err)
	}

	c.setStatus(voicechannel.StatusConnected)
	go c.readAndProcessMessages(ctx, conn)

	return nil
}

func connectWebsocket(agentID string) (*websocket.Conn, error) {
	conversationURL, _ := url.Parse("wss://api.elevenlabs.io/v1/convai/conversation")
	queryParams := conversationURL.Query()
	queryParams.Set("agent_id", agentID)
	conversationURL.RawQuery = queryParams.Encode()

	header := http.Header{}
	if apiKey, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
		header.Set("xi-api-key", apiKey)
	}

	conn, _, err := websocket.DefaultDialer.Dial(conversationURL.String(), header)
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to elevenlabs: %w", err)
	}

	return conn, nil
}

func (c *ConversationClient) Stop(_ context.Context) error {
	c.setStatus(voicechannel.StatusDisconnecting)

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn == nil {
		c.setStatus(voicechannel.StatusDisconnected)
		return nil
	}

	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	c.setStatus(voicechannel.StatusDisconnected)
	c.setSpeaking(false)
	if err != nil {
		return fmt.Errorf("failed to close websocket cleanly: %w", err)
	}
	return nil
}

// SetVolume records the playback volume for the session. Playback itself
// happens outside this module, so the value is only session state surfaced to
// whoever renders audio.
func (c *ConversationClient) SetVolume(volume float64) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	c.volume = volume
}

func (c *ConversationClient) Volume() float64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.volume
}

func (c *ConversationClient) Status() voicechannel.Status {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.status
}

func (c *ConversationClient) SendContextualUpdate(text string) error {
	if err := c.writeJSON(contextualUpdate{Type: "contextual_update", Text: text}); err != nil {
		return fmt.Errorf("failed to send contextual update: %w", err)
	}
	return nil
}

func (c *ConversationClient) SendUserMessage(text string) error {
	if err := c.writeJSON(userMessage{Type: "user_message", Text: text}); err != nil {
		return fmt.Errorf("failed to send user message: %w", err)
	}
	return nil
}

func (c *ConversationClient) writeJSON(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("voice channel not connected")
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to write to elevenlabs client: %w", err)
	}
	return nil
}

// setOptions swaps the session callbacks under the state lock; a read loop
// left over from a previous session may still be dereferencing them.
func (c *ConversationClient) setOptions(options voicechannel.SessionOptions) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.options = options
}

func (c *ConversationClient) sessionOptions() voicechannel.SessionOptions {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.options
}

func (c *ConversationClient) setStatus(status voicechannel.Status) {
	c.stateMu.Lock()
	changed := c.status != status
	c.status = status
	callback := c.options.StatusChangedCallback
	c.stateMu.Unlock()

	if changed && callback != nil {
		callback(status)
	}
}

func (c *ConversationClient) setSpeaking(isSpeaking bool) {
	c.stateMu.Lock()
	changed := c.speaking != isSpeaking
	c.speaking = isSpeaking
	callback := c.options.SpeakingChangedCallback
	c.stateMu.Unlock()

	if changed && callback != nil {
		callback(isSpeaking)
	}
}
