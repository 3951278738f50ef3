package entity

import "time"

const (
	MediaImage = "image"
	MediaVideo = "video"
)

// ReactionPalette is the fixed set of reactions a message accepts.
var ReactionPalette = []string{"👍", "❤️", "😂", "😮", "😢", "😡"}

func IsPaletteReaction(emoji string) bool {
	for _, r := range ReactionPalette {
		if r == emoji {
			return true
		}
	}
	return false
}

func IsMediaKind(kind string) bool {
	return kind == MediaImage || kind == MediaVideo
}

// Message holds either Text or a media reference, never both.
type Message struct {
	ID        string            `json:"id" firestore:"-"`
	SenderID  string            `json:"sender_id" firestore:"senderId"`
	CreatedAt time.Time         `json:"created_at" firestore:"createdAt,serverTimestamp"`
	Text      string            `json:"text,omitempty" firestore:"text,omitempty"`
	MediaURL  string            `json:"media_url,omitempty" firestore:"mediaUrl,omitempty"`
	MediaType string            `json:"media_type,omitempty" firestore:"mediaType,omitempty"`
	Caption   string            `json:"caption,omitempty" firestore:"caption,omitempty"`
	Reactions map[string]string `json:"reactions,omitempty" firestore:"reactions,omitempty"`
}

func (m *Message) IsMedia() bool {
	return m.MediaURL != ""
}

// Kind is "text", "image" or "video".
func (m *Message) Kind() string {
	if m.IsMedia() {
		return m.MediaType
	}
	return "text"
}

func (m *Message) ReactionOf(userID string) string {
	return m.Reactions[userID]
}

// Preview is the denormalized "last message" string for the conversation.
func (m *Message) Preview() string {
	if !m.IsMedia() {
		return m.Text
	}
	if m.Caption != "" {
		return m.Caption
	}
	if m.MediaType == MediaVideo {
		return "🎥 Video"
	}
	return "📷 Image"
}

// SeenBy reports whether a read marker strictly postdates the message.
func (m *Message) SeenBy(readAt time.Time) bool {
	return !readAt.IsZero() && !m.CreatedAt.IsZero() && readAt.After(m.CreatedAt)
}
