package websocket

import (
	"encoding/json"
	"time"
)

// Inbound frame types.
const (
	FramePing           = "ping"
	FrameKeystroke      = "keystroke"
	FrameSendText       = "send_text"
	FrameSendMedia      = "send_media"
	FrameToggleReaction = "toggle_reaction"
	FrameDeleteMessage  = "delete_message"
	FrameMarkRead       = "mark_read"
)

// Outbound frame types.
const (
	FramePong     = "pong"
	FrameMessages = "messages"
	FrameTyping   = "typing"
	FrameSeen     = "seen"
	FrameAlert    = "alert"
	FrameError    = "error"

	// FrameConversationUpdate goes to every open connection of a
	// participant, whichever conversation it is bound to.
	FrameConversationUpdate = "conversation_update"
)

// Frame is the envelope for every websocket message in both directions.
type Frame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type SendTextData struct {
	Text string `json:"text"`
}

type SendMediaData struct {
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
	Caption   string `json:"caption"`
}

type ReactionData struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type DeleteData struct {
	MessageID string `json:"message_id"`
	Confirm   bool   `json:"confirm"`
}

type ConversationUpdateData struct {
	ConversationID string `json:"conversation_id"`
	LastMessage    string `json:"last_message"`
	SenderID       string `json:"sender_id"`
	MessageType    string `json:"message_type"`
}

type ErrorData struct {
	Message string `json:"message"`
}

func DecodeFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, err
	}
	return frame, nil
}

// Bind decodes the frame payload into v.
func (f Frame) Bind(v interface{}) error {
	if len(f.Data) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(f.Data, v)
}

// EncodeFrame marshals an outbound frame. Payloads that fail to marshal are
// sent as an error frame.
func EncodeFrame(frameType string, data interface{}) []byte {
	frame := Frame{
		Type:      frameType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return ErrorFrame("Failed to encode frame")
		}
		frame.Data = raw
	}

	out, _ := json.Marshal(frame)
	return out
}

func ErrorFrame(message string) []byte {
	raw, _ := json.Marshal(ErrorData{Message: message})
	out, _ := json.Marshal(Frame{
		Type:      FrameError,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return out
}
