package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPairIsOrderIndependent(t *testing.T) {
	assert.Equal(t, CanonicalPair("bob", "alice"), CanonicalPair("alice", "bob"))
	assert.Equal(t, []string{"alice", "bob"}, CanonicalPair("bob", "alice"))
}

func TestConversationParticipants(t *testing.T) {
	conv := &Conversation{Participants: []string{"a", "b"}}

	assert.True(t, conv.HasParticipant("a"))
	assert.False(t, conv.HasParticipant("c"))
	assert.Equal(t, "b", conv.OtherParticipant("a"))
	assert.Equal(t, "a", conv.OtherParticipant("b"))
	assert.False(t, conv.IsTyping("a"))
	assert.True(t, conv.ReadAt("a").IsZero())
}

func TestMessageSeenByIsStrict(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &Message{CreatedAt: created}

	assert.False(t, msg.SeenBy(time.Time{}))
	assert.False(t, msg.SeenBy(created))
	assert.False(t, msg.SeenBy(created.Add(-time.Second)))
	assert.True(t, msg.SeenBy(created.Add(time.Millisecond)))
}

func TestMessagePreviewAndKind(t *testing.T) {
	assert.Equal(t, "hi", (&Message{Text: "hi"}).Preview())
	assert.Equal(t, "text", (&Message{Text: "hi"}).Kind())

	img := &Message{MediaURL: "https://x/y.jpg", MediaType: MediaImage}
	assert.Equal(t, "📷 Image", img.Preview())
	assert.Equal(t, "image", img.Kind())

	vid := &Message{MediaURL: "https://x/y.mp4", MediaType: MediaVideo}
	assert.Equal(t, "🎥 Video", vid.Preview())

	captioned := &Message{MediaURL: "https://x/y.jpg", MediaType: MediaImage, Caption: "sunset"}
	assert.Equal(t, "sunset", captioned.Preview())
}

func TestReactionPalette(t *testing.T) {
	assert.True(t, IsPaletteReaction("👍"))
	assert.True(t, IsPaletteReaction("❤️"))
	assert.False(t, IsPaletteReaction("🍕"))
	assert.False(t, IsPaletteReaction(""))
}

func TestUserDisplayName(t *testing.T) {
	var nilUser *User
	assert.Equal(t, "Someone", nilUser.DisplayName())
	assert.Equal(t, "Someone", (&User{}).DisplayName())
	assert.Equal(t, "jdoe", (&User{Username: "jdoe"}).DisplayName())
	assert.Equal(t, "Jane", (&User{Username: "jdoe", FirstName: "Jane"}).DisplayName())
}
