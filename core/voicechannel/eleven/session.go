package eleven

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gorilla/websocket"
	"github.com/tesslearn/tessa-core/core/events"
	"github.com/tesslearn/tessa-core/core/voicechannel"
)

func (c *ConversationClient) readAndProcessMessages(ctx context.Context, conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Println("Failed to read elevenlabs websocket message", "error", err)
				if callback := c.sessionOptions().ErrorCallback; callback != nil {
					callback(fmt.Errorf("voice channel closed unexpectedly: %w", err))
				}
			}

			c.connMu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.connMu.Unlock()
			conn.Close()
			c.setStatus(voicechannel.StatusDisconnected)
			c.setSpeaking(false)
			return
		}

		c.processMessage(ctx, msg)
	}
}

func (c *ConversationClient) processMessage(_ context.Context, msg []byte) {
	var parsedMsg serverMessage
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal elevenlabs message", "error", err)
		return
	}

	switch parsedMsg.Type {
	case messageTypeInitiationMetadata:
		// Connection handshake echo, nothing to surface.

	case messageTypeUserTranscript:
		if parsedMsg.UserTranscriptionEvent == nil {
			return
		}
		c.setSpeaking(false)
		c.emitMessage(events.VoicePayload{
			Type: messageTypeUserTranscript,
			Role: "user",
			Text: parsedMsg.UserTranscriptionEvent.UserTranscript,
		})

	case messageTypeAgentResponse:
		if parsedMsg.AgentResponseEvent == nil {
			return
		}
		c.emitMessage(events.VoicePayload{
			Type:   messageTypeAgentResponse,
			Source: "ai",
			Text:   parsedMsg.AgentResponseEvent.AgentResponse,
		})

	case messageTypeAgentCorrection:
		// The agent re-delivers its response with corrections applied; the
		// transcript's dedup/merge rules decide whether it is new content.
		if parsedMsg.AgentResponseCorrectionEvent == nil {
			return
		}
		c.emitMessage(events.VoicePayload{
			Type:   messageTypeAgentCorrection,
			Source: "ai",
			Text:   parsedMsg.AgentResponseCorrectionEvent.CorrectedAgentResponse,
		})

	case messageTypeClientToolCall:
		if parsedMsg.ClientToolCallEvent == nil {
			return
		}
		c.handleToolCall(
			parsedMsg.ClientToolCallEvent.ToolName,
			parsedMsg.ClientToolCallEvent.ToolCallID,
			parsedMsg.ClientToolCallEvent.Parameters,
		)

	case messageTypeAudio:
		c.setSpeaking(true)

	case messageTypeInterruption:
		c.setSpeaking(false)

	case messageTypePing:
		if parsedMsg.PingEvent == nil {
			return
		}
		if err := c.writeJSON(pongMessage{Type: "pong", EventID: parsedMsg.PingEvent.EventID}); err != nil {
			log.Println("Failed to answer elevenlabs ping", "error", err)
		}
	}
}

func (c *ConversationClient) emitMessage(payload events.VoicePayload) {
	if callback := c.sessionOptions().MessageCallback; callback != nil {
		callback(payload)
	}
}

func (c *ConversationClient) handleToolCall(name string, toolCallID string, rawParameters json.RawMessage) {
	callback := c.sessionOptions().ToolCallCallback
	if callback == nil {
		return
	}

	parameters := map[string]any{}
	if len(rawParameters) > 0 {
		if err := json.Unmarshal(rawParameters, &parameters); err != nil {
			log.Println("Failed to unmarshal tool call parameters", "error", err)
			return
		}
	}

	result, err := callback(name, parameters)
	response := clientToolResult{
		Type:       "client_tool_result",
		ToolCallID: toolCallID,
		Result:     result,
	}
	if err != nil {
		response.Result = err.Error()
		response.IsError = true
	}

	if err := c.writeJSON(response); err != nil {
		log.Println("Failed to send tool call result", "error", err)
	}
}
