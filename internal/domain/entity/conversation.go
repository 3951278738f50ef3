package entity

import (
	"sort"
	"time"
)

// Conversation is a two-party chat. Participants are stored sorted so the
// pair can be looked up with a single equality query.
type Conversation struct {
	ID           string               `json:"id" firestore:"-"`
	Participants []string             `json:"participants" firestore:"participants"`
	LastMessage  string               `json:"last_message" firestore:"lastMessage"`
	CreatedAt    time.Time            `json:"created_at" firestore:"createdAt,serverTimestamp"`
	UpdatedAt    time.Time            `json:"updated_at" firestore:"updatedAt,serverTimestamp"`
	Typing       map[string]bool      `json:"typing,omitempty" firestore:"typing,omitempty"`
	ReadBy       map[string]time.Time `json:"read_by,omitempty" firestore:"readBy,omitempty"`
}

// CanonicalPair returns the two ids in sort order.
func CanonicalPair(userA, userB string) []string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return pair
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, id := range c.Participants {
		if id != userID {
			return id
		}
	}
	return ""
}

func (c *Conversation) IsTyping(userID string) bool {
	return c.Typing[userID]
}

// ReadAt returns userID's read marker, zero if the user never opened the
// conversation.
func (c *Conversation) ReadAt(userID string) time.Time {
	return c.ReadBy[userID]
}
